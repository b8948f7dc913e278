package lexer

import (
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/pipeline"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}

	tokens, err := Tokenize(ctx.SourceCode)
	if err != nil {
		ctx.AddError(err, diagnostics.ErrE001)
		return ctx
	}

	ctx.TokenStream = tokens
	ctx.Log().Debug("tokenized", "tokens", len(tokens))
	return ctx
}
