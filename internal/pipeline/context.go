package pipeline

import (
	"log/slog"

	"github.com/funvibe/nibble/internal/ast"
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/token"
	"github.com/funvibe/nibble/internal/vm"
)

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one expression through the stages. Each stage
// fills in its own field and appends to Errors on failure.
type PipelineContext struct {
	SourceCode string

	TokenStream []token.Token
	AstRoot     ast.Node
	Program     *vm.Program

	// Result holds the result register after execution; Executed reports
	// whether a machine actually ran.
	Result   int16
	Executed bool

	Errors []*diagnostics.DiagnosticError

	Logger *slog.Logger
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{
		SourceCode: source,
		Logger:     slog.Default(),
	}
}

// Failed reports whether any stage recorded an error.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}

// Err returns the first recorded error, or nil.
func (ctx *PipelineContext) Err() error {
	if len(ctx.Errors) == 0 {
		return nil
	}
	return ctx.Errors[0]
}

// Log returns the context logger, falling back to the default one.
func (ctx *PipelineContext) Log() *slog.Logger {
	if ctx.Logger == nil {
		return slog.Default()
	}
	return ctx.Logger
}

// AddError records err, converting it to a diagnostic if needed.
func (ctx *PipelineContext) AddError(err error, fallback diagnostics.ErrorCode) {
	ctx.Errors = append(ctx.Errors, diagnostics.From(err, fallback))
}
