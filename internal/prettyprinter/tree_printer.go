package prettyprinter

import (
	"bytes"
	"fmt"

	"github.com/funvibe/nibble/internal/ast"
)

// --- Tree Printer (Output shows AST structure) ---

type TreePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewTreePrinter() *TreePrinter {
	return &TreePrinter{}
}

func (p *TreePrinter) String() string {
	return p.buf.String()
}

func (p *TreePrinter) Print(n ast.Node) string {
	p.buf.Reset()
	p.indent = 0
	p.visit(n, "")
	return p.buf.String()
}

func (p *TreePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
}

func (p *TreePrinter) line(role, format string, args ...any) {
	p.writeIndent()
	if role != "" {
		p.buf.WriteString(role + ": ")
	}
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

func (p *TreePrinter) visit(n ast.Node, role string) {
	switch n := n.(type) {
	case *ast.NumberValue:
		p.line(role, "Number %s = %d (col %d)", Literal(n.Value), n.Value, n.Token.Column)
	case *ast.Multiply:
		p.line(role, "Multiply (col %d)", n.Token.Column)
		p.indent++
		p.visit(n.Rhs, "multiplicand")
		p.visit(n.Lhs, "multiplier")
		p.indent--
	case *ast.Divide:
		p.line(role, "Divide (col %d)", n.Token.Column)
		p.indent++
		p.visit(n.Rhs, "dividend")
		p.visit(n.Lhs, "divisor")
		p.indent--
	case *ast.BitDigit:
		p.line(role, "BitDigit %d (col %d)", n.Bit, n.Token.Column)
	case nil:
		p.line(role, "<nil>")
	default:
		p.line(role, "%T", n)
	}
}
