// Package ast defines the expression tree produced by the parser.
//
// Both operator nodes store their children in parser accumulator order: Lhs
// is the operand produced last (the right-hand operand in the source text)
// and Rhs is the operand produced before it. For Divide this makes Lhs the
// divisor and Rhs the dividend.
package ast

import (
	"fmt"

	"github.com/funvibe/nibble/internal/token"
)

type Node interface {
	TokenLiteral() string
	String() string
	node()
}

// NumberValue is a folded 4-bit literal.
type NumberValue struct {
	Token token.Token // first digit of the literal
	Value int16
}

func (n *NumberValue) node()                {}
func (n *NumberValue) TokenLiteral() string { return n.Token.Literal }
func (n *NumberValue) String() string       { return fmt.Sprintf("%d", n.Value) }

type Multiply struct {
	Token token.Token // the '*' token
	Lhs   Node        // multiplier
	Rhs   Node        // multiplicand
}

func (m *Multiply) node()                {}
func (m *Multiply) TokenLiteral() string { return m.Token.Literal }
func (m *Multiply) String() string {
	return fmt.Sprintf("(%s * %s)", m.Rhs, m.Lhs)
}

type Divide struct {
	Token token.Token // the '/' token
	Lhs   Node        // divisor
	Rhs   Node        // dividend
}

func (d *Divide) node()                {}
func (d *Divide) TokenLiteral() string { return d.Token.Literal }
func (d *Divide) String() string {
	return fmt.Sprintf("(%s / %s)", d.Rhs, d.Lhs)
}

// BitDigit is a single consumed digit. It only lives on the parser's
// accumulator; a finished tree never contains one.
type BitDigit struct {
	Token token.Token
	Bit   uint8
}

func (b *BitDigit) node()                {}
func (b *BitDigit) TokenLiteral() string { return b.Token.Literal }
func (b *BitDigit) String() string       { return fmt.Sprintf("bit(%d)", b.Bit) }

// IsOperator reports whether n is a Multiply or Divide.
func IsOperator(n Node) bool {
	switch n.(type) {
	case *Multiply, *Divide:
		return true
	}
	return false
}

// Walk calls fn for n and every descendant, parents first. Children are
// visited Rhs before Lhs, i.e. in source order.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Multiply:
		Walk(n.Rhs, fn)
		Walk(n.Lhs, fn)
	case *Divide:
		Walk(n.Rhs, fn)
		Walk(n.Lhs, fn)
	}
}

// Start returns the token at which n begins in the source text.
func Start(n Node) token.Token {
	switch n := n.(type) {
	case *NumberValue:
		return n.Token
	case *BitDigit:
		return n.Token
	case *Multiply:
		return Start(n.Rhs)
	case *Divide:
		return Start(n.Rhs)
	}
	return token.Token{}
}
