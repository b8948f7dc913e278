package parser

import (
	"github.com/funvibe/nibble/internal/ast"
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/token"
)

// Parse runs the Expr grammar over the whole token stream and returns the
// single expression it describes. Unconsumed tokens, an empty stream and more
// than one top-level expression are syntax errors.
func Parse(tokens []token.Token) (ast.Node, error) {
	rest, nodes, err := Expr.Parse(tokens, nil)
	if err != nil {
		return nil, err
	}

	if len(rest) > 0 {
		return nil, diagnostics.NewError(diagnostics.ErrP001, rest[0],
			"unexpected %q, %d token(s) left after parsing", rest[0].Literal, len(rest))
	}
	if len(nodes) == 0 {
		return nil, diagnostics.NewError(diagnostics.ErrP002, token.Token{},
			"expected an expression of 4-bit literals joined by '*' or '/'")
	}
	if len(nodes) > 1 {
		// nodes[0] is the most recent expression, i.e. the one that should
		// have been joined to its predecessor by an operator.
		return nil, diagnostics.NewError(diagnostics.ErrP003, ast.Start(nodes[0]),
			"expected an operator before this literal, found %d separate expressions", len(nodes))
	}
	return nodes[0], nil
}
