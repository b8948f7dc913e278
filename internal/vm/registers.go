package vm

import "math"

// NumRegisters is the size of the register file.
const NumRegisters = 8

// WordBits is the register width.
const WordBits = 16

// Register conventions used by compiled code. Multiplication and division
// share the same physical registers under different roles.
const (
	CounterRegister Register = 0

	MultiplierRegister Register = 1
	QuotientRegister   Register = 1

	MultiplicandRegister Register = 2
	DivisorRegister      Register = 2

	ResultRegister    Register = 3
	RemainderRegister Register = 3

	TestRegister Register = 4

	// Registers from FirstSpillRegister up hold finished subexpressions
	// while a sibling operand is being computed.
	FirstSpillRegister Register = 5
)

// Loop shapes of the generated arithmetic.
const (
	MultiplyIterations = 4
	DivideIterations   = 5
	DivisorAlignment   = 4

	// SignBit selects bit 15 of a register.
	SignBit int16 = math.MinInt16
)

// SpillRegisters is the number of registers available for nesting.
const SpillRegisters = NumRegisters - int(FirstSpillRegister)
