// Package vm implements the register-machine bytecode, the compiler that
// lowers expression trees into it and the machine that executes it.
//
// The machine has NumRegisters signed 16-bit registers and no memory.
// Instructions come in three families:
//
//	register-register   ADD, SUB, COPY
//	register-immediate  STORE_IMM, ADD_IMM, SUB_IMM, AND_IMM, SHL, SHR, NEGATE
//	control flow        JUMP, JUMP_IF_NONZERO
//
// Execution starts at address 0 and stops when the program counter runs off
// the end of the program; there is no halt instruction.
package vm

import "fmt"

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Register-register
	OP_ADD  Opcode = iota // dst = src + src2
	OP_SUB                // dst = src - src2
	OP_COPY               // dst = src

	// Register-immediate
	OP_STORE_IMM // dst = imm
	OP_ADD_IMM   // dst += imm
	OP_SUB_IMM   // dst -= imm
	OP_AND_IMM   // dst &= imm
	OP_SHL       // dst <<= imm, logical
	OP_SHR       // dst >>= imm, logical
	OP_NEGATE    // dst = ^dst (bitwise complement)

	// Control flow
	OP_JUMP            // pc = target
	OP_JUMP_IF_NONZERO // if src != 0 { pc = target }

	opcodeCount
)

var opcodeNames = [...]string{
	OP_ADD:             "ADD",
	OP_SUB:             "SUB",
	OP_COPY:            "COPY",
	OP_STORE_IMM:       "STORE_IMM",
	OP_ADD_IMM:         "ADD_IMM",
	OP_SUB_IMM:         "SUB_IMM",
	OP_AND_IMM:         "AND_IMM",
	OP_SHL:             "SHL",
	OP_SHR:             "SHR",
	OP_NEGATE:          "NEGATE",
	OP_JUMP:            "JUMP",
	OP_JUMP_IF_NONZERO: "JUMP_IF_NONZERO",
}

func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodeNames[op]
	}
	return fmt.Sprintf("OP(%d)", byte(op))
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	return op < opcodeCount
}

// ParseOpcode looks up an opcode by its mnemonic.
func ParseOpcode(name string) (Opcode, error) {
	for i, n := range opcodeNames {
		if n == name {
			return Opcode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown opcode %q", name)
}

// operand identifies an instruction field used by an opcode.
type operand int

const (
	operandDst operand = iota
	operandSrc
	operandSrc2
	operandImm
	operandTarget
)

// layouts lists, per opcode, the fields it reads in assembly order.
var layouts = [...][]operand{
	OP_ADD:             {operandDst, operandSrc, operandSrc2},
	OP_SUB:             {operandDst, operandSrc, operandSrc2},
	OP_COPY:            {operandDst, operandSrc},
	OP_STORE_IMM:       {operandDst, operandImm},
	OP_ADD_IMM:         {operandDst, operandImm},
	OP_SUB_IMM:         {operandDst, operandImm},
	OP_AND_IMM:         {operandDst, operandImm},
	OP_SHL:             {operandDst, operandImm},
	OP_SHR:             {operandDst, operandImm},
	OP_NEGATE:          {operandDst},
	OP_JUMP:            {operandTarget},
	OP_JUMP_IF_NONZERO: {operandSrc, operandTarget},
}

func (op Opcode) layout() []operand {
	if !op.Valid() {
		return nil
	}
	return layouts[op]
}

func (op Opcode) uses(o operand) bool {
	for _, x := range op.layout() {
		if x == o {
			return true
		}
	}
	return false
}

// IsJump reports whether op may transfer control.
func (op Opcode) IsJump() bool {
	return op == OP_JUMP || op == OP_JUMP_IF_NONZERO
}

// IsShift reports whether op is a constant-amount shift.
func (op Opcode) IsShift() bool {
	return op == OP_SHL || op == OP_SHR
}
