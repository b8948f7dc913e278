package vm

import (
	"fmt"

	"github.com/funvibe/nibble/internal/ast"
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/token"
)

// placeholderTarget marks a forward jump that has not been patched yet.
const placeholderTarget Address = 0xffff

// Compiler lowers an expression tree to a Program. Every subexpression
// leaves its value in ResultRegister.
type Compiler struct {
	program *Program

	// column of the node currently being compiled, recorded per instruction
	column int

	// deepest spill register used so far, -1 if none
	maxSpill int
}

func NewCompiler() *Compiler {
	return &Compiler{maxSpill: -1}
}

// Compile compiles root into a fresh program.
func Compile(root ast.Node) (*Program, error) {
	return NewCompiler().Compile(root)
}

func (c *Compiler) Compile(root ast.Node) (*Program, error) {
	c.program = NewProgram()
	c.maxSpill = -1
	c.column = 0

	if err := c.compileNode(root, 0); err != nil {
		return nil, err
	}
	if c.program.Len() > MaxProgramLen {
		return nil, diagnostics.NewError(diagnostics.ErrC002, ast.Start(root),
			"expression needs %d instructions, limit is %d", c.program.Len(), MaxProgramLen)
	}
	return c.program, nil
}

// SpillDepth reports how many spill registers the last compilation used.
func (c *Compiler) SpillDepth() int {
	return c.maxSpill + 1
}

func (c *Compiler) compileNode(node ast.Node, depth int) error {
	switch n := node.(type) {
	case *ast.NumberValue:
		c.column = n.Token.Column
		c.emit(StoreImm(ResultRegister, n.Value))
		return nil

	case *ast.Multiply:
		if err := c.compileOperands(n, depth,
			operandSlot{node: n.Rhs, dest: MultiplicandRegister},
			operandSlot{node: n.Lhs, dest: MultiplierRegister},
		); err != nil {
			return err
		}
		c.column = n.Token.Column
		c.emitMultiply()
		return nil

	case *ast.Divide:
		if err := c.compileOperands(n, depth,
			operandSlot{node: n.Lhs, dest: DivisorRegister},
			operandSlot{node: n.Rhs, dest: RemainderRegister},
		); err != nil {
			return err
		}
		c.column = n.Token.Column
		c.emitDivide()
		return nil

	case *ast.BitDigit:
		return diagnostics.NewError(diagnostics.ErrI001, n.Token,
			"unpacked binary digit reached the compiler")

	case nil:
		return diagnostics.NewError(diagnostics.ErrI001, token.Token{Column: c.column},
			"missing operand")

	default:
		return diagnostics.NewError(diagnostics.ErrI001, ast.Start(node),
			"cannot compile node of type %T", node)
	}
}

// operandSlot is a child expression and the register the operator reads it from.
type operandSlot struct {
	node ast.Node
	dest Register
}

// compileOperands evaluates both children of an operator into their
// registers. The deeper child goes first; on a tie the listed order is kept.
// When the second child is itself an operator, the first child's value waits
// in spill register FirstSpillRegister+depth, and the second child compiles
// one level deeper so it cannot touch that register.
func (c *Compiler) compileOperands(parent ast.Node, depth int, first, second operandSlot) error {
	if height(second.node) > height(first.node) {
		first, second = second, first
	}

	if err := c.compileNode(first.node, depth); err != nil {
		return err
	}

	hold := first.dest
	spilled := height(second.node) > 0 || first.dest == ResultRegister
	if spilled {
		spill, err := c.spillRegister(parent, depth)
		if err != nil {
			return err
		}
		hold = spill
	}
	c.emit(Copy(hold, ResultRegister))

	if err := c.compileNode(second.node, depth+1); err != nil {
		return err
	}
	if second.dest != ResultRegister {
		c.emit(Copy(second.dest, ResultRegister))
	}
	if spilled {
		c.emit(Copy(first.dest, hold))
	}
	return nil
}

func (c *Compiler) spillRegister(parent ast.Node, depth int) (Register, error) {
	if depth >= SpillRegisters {
		return 0, diagnostics.NewError(diagnostics.ErrC001, ast.Start(parent),
			"expression nests too deeply: %d spill registers available", SpillRegisters)
	}
	if depth > c.maxSpill {
		c.maxSpill = depth
	}
	return FirstSpillRegister + Register(depth), nil
}

// height is the operator depth of a tree; leaves are 0.
func height(node ast.Node) int {
	switch n := node.(type) {
	case *ast.Multiply:
		return 1 + max(height(n.Lhs), height(n.Rhs))
	case *ast.Divide:
		return 1 + max(height(n.Lhs), height(n.Rhs))
	}
	return 0
}

// emitMultiply emits shift-and-add over the low MultiplyIterations bits of
// the multiplier. ResultRegister is cleared with AND 0 rather than a store.
func (c *Compiler) emitMultiply() {
	c.emit(AndImm(ResultRegister, 0))
	c.emit(StoreImm(CounterRegister, MultiplyIterations))

	loop := c.here()
	c.emit(Copy(TestRegister, MultiplierRegister))
	c.emit(Negate(TestRegister))
	c.emit(AndImm(TestRegister, 1))
	skip := c.emitJump(JumpIfNonZero(TestRegister, placeholderTarget))
	c.emit(Add(ResultRegister, MultiplicandRegister, ResultRegister))
	c.patchJump(skip)
	c.emit(ShiftLeft(MultiplicandRegister, 1))
	c.emit(ShiftRight(MultiplierRegister, 1))
	c.emit(SubImm(CounterRegister, 1))
	c.emit(JumpIfNonZero(CounterRegister, loop))
}

// emitDivide emits restoring division. The divisor is aligned under the top
// of a 4-bit dividend and one extra iteration lets the quotient absorb the
// bit above it, which is what makes x/0 come out as 31 for any 4-bit x.
func (c *Compiler) emitDivide() {
	c.emit(ShiftLeft(DivisorRegister, DivisorAlignment))
	c.emit(StoreImm(QuotientRegister, 0))
	c.emit(StoreImm(CounterRegister, DivideIterations))

	loop := c.here()
	c.emit(Sub(RemainderRegister, RemainderRegister, DivisorRegister))
	c.emit(Copy(TestRegister, RemainderRegister))
	c.emit(AndImm(TestRegister, SignBit))
	restore := c.emitJump(JumpIfNonZero(TestRegister, placeholderTarget))
	c.emit(ShiftLeft(QuotientRegister, 1))
	c.emit(AddImm(QuotientRegister, 1))
	next := c.emitJump(Jump(placeholderTarget))
	c.patchJump(restore)
	c.emit(Add(RemainderRegister, RemainderRegister, DivisorRegister))
	c.emit(ShiftLeft(QuotientRegister, 1))
	c.patchJump(next)
	c.emit(ShiftRight(DivisorRegister, 1))
	c.emit(SubImm(CounterRegister, 1))
	c.emit(JumpIfNonZero(CounterRegister, loop))
	c.emit(Copy(ResultRegister, QuotientRegister))
}

func (c *Compiler) emit(inst Instruction) int {
	return c.program.Write(inst, c.column)
}

func (c *Compiler) here() Address {
	return Address(c.program.Len())
}

// emitJump emits a jump with a placeholder target and returns its address
// for patchJump.
func (c *Compiler) emitJump(inst Instruction) int {
	return c.emit(inst)
}

// patchJump points the jump at addr to the next instruction to be emitted.
func (c *Compiler) patchJump(addr int) {
	inst := &c.program.Code[addr]
	if !inst.Op.IsJump() || inst.Target != placeholderTarget {
		panic(fmt.Sprintf("patchJump: instruction %04d is not a pending jump", addr))
	}
	inst.Target = c.here()
}
