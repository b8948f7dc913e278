package backend

import (
	"github.com/funvibe/nibble/internal/ast"
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/pipeline"
	"github.com/funvibe/nibble/internal/token"
	"github.com/funvibe/nibble/internal/vm"
)

// TreeWalkBackend evaluates the AST directly. It reproduces the machine's
// loops bit for bit, including 16-bit wraparound and the 4-bit multiplier
// window, so its results must always agree with VMBackend.
type TreeWalkBackend struct{}

func NewTreeWalkBackend() *TreeWalkBackend {
	return &TreeWalkBackend{}
}

func (b *TreeWalkBackend) Name() string {
	return "tree"
}

func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) (int16, error) {
	if ctx.AstRoot == nil {
		return 0, diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "nothing to evaluate")
	}
	return Evaluate(ctx.AstRoot)
}

// Evaluate computes the value the compiled program would leave in the
// result register.
func Evaluate(node ast.Node) (int16, error) {
	switch n := node.(type) {
	case *ast.NumberValue:
		return n.Value, nil

	case *ast.Multiply:
		multiplicand, err := Evaluate(n.Rhs)
		if err != nil {
			return 0, err
		}
		multiplier, err := Evaluate(n.Lhs)
		if err != nil {
			return 0, err
		}
		return ShiftAddMultiply(multiplicand, multiplier), nil

	case *ast.Divide:
		dividend, err := Evaluate(n.Rhs)
		if err != nil {
			return 0, err
		}
		divisor, err := Evaluate(n.Lhs)
		if err != nil {
			return 0, err
		}
		return RestoringDivide(dividend, divisor), nil

	case *ast.BitDigit:
		return 0, diagnostics.NewError(diagnostics.ErrI001, n.Token, "unpacked binary digit reached the evaluator")

	case nil:
		return 0, diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "missing operand")
	}
	return 0, diagnostics.NewError(diagnostics.ErrI001, ast.Start(node), "cannot evaluate node of type %T", node)
}

// ShiftAddMultiply multiplies using only the low vm.MultiplyIterations bits
// of multiplier.
func ShiftAddMultiply(multiplicand, multiplier int16) int16 {
	var acc int16
	for i := 0; i < vm.MultiplyIterations; i++ {
		if multiplier&1 != 0 {
			acc += multiplicand
		}
		multiplicand = int16(uint16(multiplicand) << 1)
		multiplier = int16(uint16(multiplier) >> 1)
	}
	return acc
}

// RestoringDivide divides with the divisor aligned vm.DivisorAlignment bits
// up. For a 4-bit dividend and non-zero 4-bit divisor this is truncating
// division; a zero divisor yields 31.
func RestoringDivide(dividend, divisor int16) int16 {
	remainder := dividend
	divisor = int16(uint16(divisor) << vm.DivisorAlignment)
	var quotient int16
	for i := 0; i < vm.DivideIterations; i++ {
		remainder -= divisor
		if remainder&vm.SignBit != 0 {
			remainder += divisor
			quotient <<= 1
		} else {
			quotient = quotient<<1 + 1
		}
		divisor = int16(uint16(divisor) >> 1)
	}
	return quotient
}
