package vm

import (
	"fmt"
	"strings"
)

// Register indexes the register file.
type Register uint8

// Address indexes a Program.
type Address uint16

func (r Register) String() string {
	return fmt.Sprintf("r%d", r)
}

// Instruction is one decoded machine instruction. Only the fields named by
// the opcode's layout are meaningful; the others stay zero.
type Instruction struct {
	Op     Opcode
	Dst    Register
	Src    Register
	Src2   Register
	Imm    int16
	Target Address
}

func Add(dst, src, src2 Register) Instruction {
	return Instruction{Op: OP_ADD, Dst: dst, Src: src, Src2: src2}
}

func Sub(dst, src, src2 Register) Instruction {
	return Instruction{Op: OP_SUB, Dst: dst, Src: src, Src2: src2}
}

func Copy(dst, src Register) Instruction {
	return Instruction{Op: OP_COPY, Dst: dst, Src: src}
}

func StoreImm(dst Register, imm int16) Instruction {
	return Instruction{Op: OP_STORE_IMM, Dst: dst, Imm: imm}
}

func AddImm(dst Register, imm int16) Instruction {
	return Instruction{Op: OP_ADD_IMM, Dst: dst, Imm: imm}
}

func SubImm(dst Register, imm int16) Instruction {
	return Instruction{Op: OP_SUB_IMM, Dst: dst, Imm: imm}
}

func AndImm(dst Register, imm int16) Instruction {
	return Instruction{Op: OP_AND_IMM, Dst: dst, Imm: imm}
}

func ShiftLeft(dst Register, amount int16) Instruction {
	return Instruction{Op: OP_SHL, Dst: dst, Imm: amount}
}

func ShiftRight(dst Register, amount int16) Instruction {
	return Instruction{Op: OP_SHR, Dst: dst, Imm: amount}
}

func Negate(dst Register) Instruction {
	return Instruction{Op: OP_NEGATE, Dst: dst}
}

func Jump(target Address) Instruction {
	return Instruction{Op: OP_JUMP, Target: target}
}

func JumpIfNonZero(test Register, target Address) Instruction {
	return Instruction{Op: OP_JUMP_IF_NONZERO, Src: test, Target: target}
}

// String renders the instruction in assembly form, e.g. "ADD r3, r2, r3".
func (i Instruction) String() string {
	layout := i.Op.layout()
	if len(layout) == 0 {
		return i.Op.String()
	}
	args := make([]string, 0, len(layout))
	for _, o := range layout {
		switch o {
		case operandDst:
			args = append(args, i.Dst.String())
		case operandSrc:
			args = append(args, i.Src.String())
		case operandSrc2:
			args = append(args, i.Src2.String())
		case operandImm:
			args = append(args, fmt.Sprintf("%d", i.Imm))
		case operandTarget:
			args = append(args, fmt.Sprintf("@%04d", i.Target))
		}
	}
	return i.Op.String() + " " + strings.Join(args, ", ")
}
