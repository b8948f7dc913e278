package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program
func Disassemble(program *Program, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	for addr := 0; addr < program.Len(); addr++ {
		disassembleInstruction(&sb, program, addr)
	}

	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, program *Program, addr int) {
	sb.WriteString(formatAddress(addr))
	sb.WriteByte(' ')

	// Source column, or '|' when unchanged from the previous instruction
	col := program.Column(addr)
	if addr > 0 && col == program.Column(addr-1) {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", col))
	}

	inst := program.Code[addr]
	sb.WriteString(fmt.Sprintf("%-16s", inst.Op))

	args := inst.String()
	if i := strings.IndexByte(args, ' '); i >= 0 {
		sb.WriteString(args[i+1:])
	}
	if inst.Op.IsJump() && int(inst.Target) <= addr {
		sb.WriteString("  (loop)")
	}
	sb.WriteByte('\n')
}

func formatAddress(addr int) string {
	return fmt.Sprintf("%04d", addr)
}
