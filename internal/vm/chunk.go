package vm

import (
	"math"

	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/token"
)

// MaxProgramLen is the largest program a jump target can fully address.
const MaxProgramLen = math.MaxUint16

// Program is a compiled instruction sequence
type Program struct {
	Code    []Instruction
	Columns []int // source column that produced each instruction, 0 if unknown
}

func NewProgram() *Program {
	return &Program{
		Code:    make([]Instruction, 0, 32),
		Columns: make([]int, 0, 32),
	}
}

// Write appends an instruction and returns its address
func (p *Program) Write(inst Instruction, column int) int {
	p.Code = append(p.Code, inst)
	p.Columns = append(p.Columns, column)
	return len(p.Code) - 1
}

func (p *Program) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Code)
}

// Column returns the source column of the instruction at addr.
func (p *Program) Column(addr int) int {
	if addr < 0 || addr >= len(p.Columns) {
		return 0
	}
	return p.Columns[addr]
}

// Validate checks that every instruction is well formed: known opcode,
// registers inside the register file, shift amounts inside the word and jump
// targets inside the program.
func (p *Program) Validate() error {
	if p.Len() > MaxProgramLen {
		return diagnostics.NewError(diagnostics.ErrR001, token.Token{},
			"program has %d instructions, limit is %d", p.Len(), MaxProgramLen)
	}
	if len(p.Columns) != 0 && len(p.Columns) != len(p.Code) {
		return diagnostics.NewError(diagnostics.ErrR001, token.Token{},
			"program has %d instructions but %d column entries", len(p.Code), len(p.Columns))
	}
	for addr, inst := range p.Code {
		if err := p.validateInstruction(addr, inst); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) validateInstruction(addr int, inst Instruction) error {
	fail := func(format string, args ...any) error {
		err := diagnostics.NewError(diagnostics.ErrR001, token.Token{Column: p.Column(addr)}, format, args...)
		err.Message = "instruction " + formatAddress(addr) + ": " + err.Message
		return err
	}

	if !inst.Op.Valid() {
		return fail("unknown opcode %d", byte(inst.Op))
	}
	for _, o := range inst.Op.layout() {
		switch o {
		case operandDst:
			if inst.Dst >= NumRegisters {
				return fail("%s: destination %s out of range", inst.Op, inst.Dst)
			}
		case operandSrc:
			if inst.Src >= NumRegisters {
				return fail("%s: source %s out of range", inst.Op, inst.Src)
			}
		case operandSrc2:
			if inst.Src2 >= NumRegisters {
				return fail("%s: source %s out of range", inst.Op, inst.Src2)
			}
		case operandTarget:
			if int(inst.Target) >= len(p.Code) {
				return fail("%s: target %d outside program of length %d", inst.Op, inst.Target, len(p.Code))
			}
		case operandImm:
			if inst.Op.IsShift() && (inst.Imm < 0 || inst.Imm >= WordBits) {
				return fail("%s: shift amount %d outside 0..%d", inst.Op, inst.Imm, WordBits-1)
			}
		}
	}
	return nil
}
