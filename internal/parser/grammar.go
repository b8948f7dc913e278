package parser

import (
	"github.com/funvibe/nibble/internal/ast"
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/token"
)

// NumberWidth is the number of digits in a literal.
const NumberWidth = 4

// Grammar:
//
//	Expr    = Repeat(Alt(DivExpr, MulExpr))
//	Number  = Exactly(4, Digit), folded into one NumberValue
//	MulExpr = Alt(When(TopIsOperator, MulOperator), Seq(Number, MulOperator)) then Number
//	DivExpr = same shape with DivOperator
var (
	Digit       Combinator = CombinatorFunc(parseDigit)
	MulOperator            = Match(token.MUL)
	DivOperator            = Match(token.DIV)

	Number  = Reduce(Exactly(NumberWidth, Digit), NumberWidth, packBits)
	MulExpr = operatorRule(MulOperator, token.MUL, newMultiply)
	DivExpr = operatorRule(DivOperator, token.DIV, newDivide)
	Expr    = Repeat(Alt(DivExpr, MulExpr))
)

// TopIsOperator holds when the most recent node is a finished Multiply or
// Divide, which then becomes the left operand of the next operator.
func TopIsOperator(_ []token.Token, nodes []ast.Node) bool {
	return len(nodes) > 0 && ast.IsOperator(nodes[0])
}

func parseDigit(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
	if len(tokens) == 0 {
		return tokens, nodes, nil
	}
	tok := tokens[0]
	switch tok.Type {
	case token.ZERO:
		return tokens[1:], push(&ast.BitDigit{Token: tok, Bit: 0}, nodes), nil
	case token.ONE:
		return tokens[1:], push(&ast.BitDigit{Token: tok, Bit: 1}, nodes), nil
	}
	return tokens, nodes, nil
}

// packBits folds four BitDigits into a NumberValue. The accumulator holds
// the last consumed (least significant) digit first, so each step shifts the
// partial value right and adds the digit at bit 3.
func packBits(children []ast.Node, consumed []token.Token) (ast.Node, error) {
	var value int16
	for _, child := range children {
		value >>= 1
		digit, ok := child.(*ast.BitDigit)
		if !ok {
			return nil, diagnostics.NewError(diagnostics.ErrI001, ast.Start(child),
				"expected a binary digit while packing a literal, got %s", child)
		}
		if digit.Bit == 1 {
			value += 1 << (NumberWidth - 1)
		}
	}
	return &ast.NumberValue{Token: consumed[0], Value: value}, nil
}

type operatorBuilder func(op token.Token, lhs, rhs ast.Node) ast.Node

func operatorRule(operator Combinator, opType token.TokenType, build operatorBuilder) Combinator {
	leftOperand := Alt(
		When(TopIsOperator, operator),
		Seq(Number, operator),
	)
	return Reduce(Seq(leftOperand, Number), 2, func(children []ast.Node, consumed []token.Token) (ast.Node, error) {
		op, ok := findToken(consumed, opType)
		if !ok {
			return nil, diagnostics.NewError(diagnostics.ErrI001, consumed[0],
				"operator %q missing from matched input", opType)
		}
		return build(op, children[0], children[1]), nil
	})
}

func findToken(tokens []token.Token, t token.TokenType) (token.Token, bool) {
	for _, tok := range tokens {
		if tok.Type == t {
			return tok, true
		}
	}
	return token.Token{}, false
}

func newMultiply(op token.Token, lhs, rhs ast.Node) ast.Node {
	return &ast.Multiply{Token: op, Lhs: lhs, Rhs: rhs}
}

func newDivide(op token.Token, lhs, rhs ast.Node) ast.Node {
	return &ast.Divide{Token: op, Lhs: lhs, Rhs: rhs}
}
