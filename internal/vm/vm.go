package vm

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/token"
)

// Machine executes a Program on its own register file. A Machine is not
// safe for concurrent use, but independent Machines share nothing and may
// run in parallel.
type Machine struct {
	registers [NumRegisters]int16
	pc        int
	steps     int

	stepLimit int
	runID     string
	logger    *slog.Logger
	tracer    Tracer
}

type Option func(*Machine)

// WithStepLimit aborts execution with R002 after n instructions. Zero means
// no limit.
func WithStepLimit(n int) Option {
	return func(m *Machine) { m.stepLimit = n }
}

// WithLogger sets the logger that receives per-step records at LevelTrace.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithTracer registers a Tracer that observes every executed instruction.
func WithTracer(t Tracer) Option {
	return func(m *Machine) { m.tracer = t }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(m *Machine) { m.runID = id }
}

func New(opts ...Option) *Machine {
	m := &Machine{}
	for _, opt := range opts {
		opt(m)
	}
	if m.runID == "" {
		m.runID = uuid.NewString()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Run executes program from address 0 until the program counter leaves the
// program. Registers keep their values between runs; use Reset to clear
// them. An empty program leaves the machine untouched.
func (m *Machine) Run(program *Program) error {
	if program == nil {
		program = &Program{}
	}
	if err := program.Validate(); err != nil {
		return err
	}

	m.pc = 0
	m.steps = 0
	code := program.Code
	tracing := m.logger.Enabled(context.Background(), LevelTrace)

	for m.pc < len(code) {
		if m.stepLimit > 0 && m.steps >= m.stepLimit {
			return diagnostics.NewError(diagnostics.ErrR002, token.Token{Column: program.Column(m.pc)},
				"step limit of %d reached at %s", m.stepLimit, formatAddress(m.pc))
		}

		addr := m.pc
		inst := code[addr]
		if !m.execute(inst) {
			m.pc++
		}
		if tracing || m.tracer != nil {
			m.record(addr, inst, tracing)
		}
		m.steps++
	}
	return nil
}

// execute runs one instruction and reports whether it moved the program
// counter itself.
func (m *Machine) execute(inst Instruction) bool {
	r := &m.registers
	switch inst.Op {
	case OP_ADD:
		r[inst.Dst] = r[inst.Src] + r[inst.Src2]
	case OP_SUB:
		r[inst.Dst] = r[inst.Src] - r[inst.Src2]
	case OP_COPY:
		r[inst.Dst] = r[inst.Src]
	case OP_STORE_IMM:
		r[inst.Dst] = inst.Imm
	case OP_ADD_IMM:
		r[inst.Dst] += inst.Imm
	case OP_SUB_IMM:
		r[inst.Dst] -= inst.Imm
	case OP_AND_IMM:
		r[inst.Dst] &= inst.Imm
	case OP_SHL:
		r[inst.Dst] = int16(uint16(r[inst.Dst]) << uint(inst.Imm))
	case OP_SHR:
		r[inst.Dst] = int16(uint16(r[inst.Dst]) >> uint(inst.Imm))
	case OP_NEGATE:
		r[inst.Dst] = ^r[inst.Dst]
	case OP_JUMP:
		m.pc = int(inst.Target)
		return true
	case OP_JUMP_IF_NONZERO:
		if r[inst.Src] != 0 {
			m.pc = int(inst.Target)
			return true
		}
	}
	return false
}

func (m *Machine) record(addr int, inst Instruction, log bool) {
	step := Step{
		RunID:     m.runID,
		Index:     m.steps,
		Address:   addr,
		Inst:      inst,
		Registers: m.registers,
	}
	if log {
		Trace(m.logger, "step",
			"run", m.runID,
			"step", step.Index,
			"pc", addr,
			"inst", inst.String(),
			"regs", step.Registers,
		)
	}
	if m.tracer != nil {
		m.tracer.Step(step)
	}
}

// Result returns the value of ResultRegister.
func (m *Machine) Result() int16 {
	return m.registers[ResultRegister]
}

// Registers returns a copy of the register file.
func (m *Machine) Registers() [NumRegisters]int16 {
	return m.registers
}

func (m *Machine) Register(r Register) int16 {
	return m.registers[r]
}

func (m *Machine) SetRegister(r Register, v int16) {
	m.registers[r] = v
}

// Steps returns the number of instructions executed by the last Run.
func (m *Machine) Steps() int {
	return m.steps
}

func (m *Machine) RunID() string {
	return m.runID
}

// Reset zeroes the registers and counters.
func (m *Machine) Reset() {
	m.registers = [NumRegisters]int16{}
	m.pc = 0
	m.steps = 0
}
