// Package prettyprinter renders expression trees and result values.
package prettyprinter

import (
	"bytes"
	"fmt"

	"github.com/funvibe/nibble/internal/ast"
)

// --- Code Printer (Output looks like source code) ---

// Both operators bind equally tight and associate to the left, so a
// right-nested operand is the only thing that needs parentheses.
type CodePrinter struct {
	buf     bytes.Buffer
	spacing bool // put spaces around operators
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{spacing: true}
}

// NewCompactPrinter prints without spaces, in a form the lexer accepts back.
func NewCompactPrinter() *CodePrinter {
	return &CodePrinter{}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

// Print renders n and returns the printer's output.
func (p *CodePrinter) Print(n ast.Node) string {
	p.buf.Reset()
	p.printExpr(n, false)
	return p.buf.String()
}

func (p *CodePrinter) printExpr(n ast.Node, isRight bool) {
	switch n := n.(type) {
	case *ast.NumberValue:
		p.buf.WriteString(Literal(n.Value))
	case *ast.Multiply:
		p.printInfix("*", n.Rhs, n.Lhs, isRight)
	case *ast.Divide:
		p.printInfix("/", n.Rhs, n.Lhs, isRight)
	case *ast.BitDigit:
		fmt.Fprintf(&p.buf, "%d", n.Bit)
	case nil:
		p.buf.WriteString("<nil>")
	default:
		p.buf.WriteString(n.String())
	}
}

func (p *CodePrinter) printInfix(op string, left, right ast.Node, isRight bool) {
	if isRight {
		p.buf.WriteByte('(')
	}
	p.printExpr(left, false)
	if p.spacing {
		p.buf.WriteString(" " + op + " ")
	} else {
		p.buf.WriteString(op)
	}
	p.printExpr(right, true)
	if isRight {
		p.buf.WriteByte(')')
	}
}

// Literal formats v as a 4-digit source literal using its low nibble.
func Literal(v int16) string {
	return fmt.Sprintf("%04b", uint16(v)&0xf)
}
