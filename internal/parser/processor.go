package parser

import (
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/pipeline"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}

	root, err := Parse(ctx.TokenStream)
	if err != nil {
		ctx.AddError(err, diagnostics.ErrI001)
		return ctx
	}

	ctx.AstRoot = root
	ctx.Log().Debug("parsed", "ast", root.String())
	return ctx
}
