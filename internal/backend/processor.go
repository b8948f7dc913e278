package backend

import (
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/pipeline"
	"github.com/funvibe/nibble/internal/vm"
)

// CompileProcessor lowers ctx.AstRoot into ctx.Program.
type CompileProcessor struct{}

func (cp *CompileProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.AstRoot == nil {
		return ctx
	}

	compiler := vm.NewCompiler()
	program, err := compiler.Compile(ctx.AstRoot)
	if err != nil {
		ctx.AddError(err, diagnostics.ErrC001)
		return ctx
	}

	ctx.Program = program
	ctx.Log().Debug("compiled", "instructions", program.Len(), "spills", compiler.SpillDepth())
	return ctx
}

// ExecutionProcessor runs a Backend and stores its result in the context.
type ExecutionProcessor struct {
	Backend Backend
}

func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Failed() {
		return ctx
	}
	if ctx.AstRoot == nil && ctx.Program == nil {
		return ctx
	}

	result, err := p.Backend.Run(ctx)
	if err != nil {
		ctx.AddError(err, diagnostics.ErrR001)
		return ctx
	}

	ctx.Result = result
	ctx.Executed = true
	ctx.Log().Debug("result", "backend", p.Backend.Name(), "value", result)
	return ctx
}
