package vm

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/funvibe/nibble/internal/diagnostics"
)

func program(code ...Instruction) *Program {
	p := NewProgram()
	for _, inst := range code {
		p.Write(inst, 0)
	}
	return p
}

func run(t *testing.T, m *Machine, p *Program) {
	t.Helper()
	if err := m.Run(p); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestInstructions(t *testing.T) {
	tests := []struct {
		name  string
		setup map[Register]int16
		inst  Instruction
		reg   Register
		want  int16
	}{
		{"add", map[Register]int16{1: 5, 2: 7}, Add(3, 1, 2), 3, 12},
		{"add wraps", map[Register]int16{1: math.MaxInt16, 2: 1}, Add(3, 1, 2), 3, math.MinInt16},
		{"sub", map[Register]int16{1: 5, 2: 7}, Sub(3, 1, 2), 3, -2},
		{"sub wraps", map[Register]int16{1: math.MinInt16, 2: 1}, Sub(1, 1, 2), 1, math.MaxInt16},
		{"copy", map[Register]int16{6: 42}, Copy(0, 6), 0, 42},
		{"store", nil, StoreImm(7, -9), 7, -9},
		{"add immediate", map[Register]int16{2: 40}, AddImm(2, 2), 2, 42},
		{"sub immediate", map[Register]int16{0: 1}, SubImm(0, 1), 0, 0},
		{"and immediate", map[Register]int16{4: 0x7f}, AndImm(4, 0x0f), 4, 0x0f},
		{"and sign mask", map[Register]int16{4: -3}, AndImm(4, SignBit), 4, math.MinInt16},
		{"and clears", map[Register]int16{3: 1234}, AndImm(3, 0), 3, 0},
		{"shift left", map[Register]int16{2: 3}, ShiftLeft(2, 4), 2, 48},
		{"shift left drops high bits", map[Register]int16{2: 0x4001}, ShiftLeft(2, 2), 2, 4},
		{"shift right", map[Register]int16{1: 12}, ShiftRight(1, 2), 1, 3},
		{"shift right is logical", map[Register]int16{1: math.MinInt16}, ShiftRight(1, 1), 1, 0x4000},
		{"shift right of -1", map[Register]int16{1: -1}, ShiftRight(1, 15), 1, 1},
		{"negate is complement", map[Register]int16{4: 0}, Negate(4), 4, -1},
		{"negate odd", map[Register]int16{4: 5}, Negate(4), 4, -6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			for r, v := range tt.setup {
				m.SetRegister(r, v)
			}
			run(t, m, program(tt.inst))
			if got := m.Register(tt.reg); got != tt.want {
				t.Errorf("%s = %d, want %d", tt.reg, got, tt.want)
			}
			if m.Steps() != 1 {
				t.Errorf("steps = %d, want 1", m.Steps())
			}
		})
	}
}

func TestJumps(t *testing.T) {
	// r3 collects the additions that ran.
	p := program(
		StoreImm(1, 0),      // 0
		JumpIfNonZero(1, 3), // 1 not taken
		AddImm(3, 1),        // 2 runs
		StoreImm(1, 1),      // 3
		JumpIfNonZero(1, 6), // 4 taken
		AddImm(3, 100),      // 5 skipped
		Jump(8),             // 6
		AddImm(3, 100),      // 7 skipped
		AddImm(3, 10),       // 8 runs
	)
	m := New()
	run(t, m, p)
	if m.Result() != 11 {
		t.Errorf("result = %d, want 11", m.Result())
	}
	if m.Steps() != 7 {
		t.Errorf("steps = %d, want 7", m.Steps())
	}
}

func TestCountdownLoop(t *testing.T) {
	p := program(
		StoreImm(0, 5),
		AddImm(3, 2),
		SubImm(0, 1),
		JumpIfNonZero(0, 1),
	)
	m := New()
	run(t, m, p)
	if m.Result() != 10 {
		t.Errorf("result = %d, want 10", m.Result())
	}
}

func TestEmptyProgram(t *testing.T) {
	m := New()
	run(t, m, NewProgram())
	run(t, m, nil)
	if m.Result() != 0 || m.Steps() != 0 {
		t.Errorf("result=%d steps=%d, want 0 and 0", m.Result(), m.Steps())
	}
}

func TestRegistersPersistUntilReset(t *testing.T) {
	m := New()
	run(t, m, program(AddImm(3, 4)))
	run(t, m, program(AddImm(3, 4)))
	if m.Result() != 8 {
		t.Fatalf("result = %d, want 8", m.Result())
	}
	m.Reset()
	if m.Registers() != [NumRegisters]int16{} {
		t.Errorf("Reset left %v", m.Registers())
	}
}

func TestValidateRejectsMalformedPrograms(t *testing.T) {
	tests := []struct {
		name string
		p    *Program
	}{
		{"unknown opcode", program(Instruction{Op: opcodeCount})},
		{"destination out of range", program(StoreImm(NumRegisters, 1))},
		{"source out of range", program(Copy(0, 9))},
		{"second source out of range", program(Add(0, 1, 200))},
		{"jump past end", program(Jump(1))},
		{"conditional jump past end", program(StoreImm(0, 1), JumpIfNonZero(0, 5))},
		{"jump test register out of range", program(JumpIfNonZero(8, 0))},
		{"shift by word size", program(ShiftLeft(1, 16))},
		{"negative shift", program(ShiftRight(1, -1))},
		{"columns out of step", &Program{Code: []Instruction{StoreImm(3, 1)}, Columns: []int{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			err := m.Run(tt.p)
			if !errors.Is(err, diagnostics.ErrRuntime) {
				t.Fatalf("expected a runtime error, got %v", err)
			}
			var diag *diagnostics.DiagnosticError
			if errors.As(err, &diag) && diag.Code != diagnostics.ErrR001 {
				t.Errorf("code = %s, want R001", diag.Code)
			}
			if m.Steps() != 0 {
				t.Errorf("invalid program must not execute, ran %d steps", m.Steps())
			}
		})
	}
}

func TestStepLimit(t *testing.T) {
	m := New(WithStepLimit(10))
	err := m.Run(program(Jump(0)))
	var diag *diagnostics.DiagnosticError
	if !errors.As(err, &diag) || diag.Code != diagnostics.ErrR002 {
		t.Fatalf("expected R002, got %v", err)
	}
	if m.Steps() != 10 {
		t.Errorf("steps = %d, want 10", m.Steps())
	}

	// A program that finishes within the limit is unaffected.
	m = New(WithStepLimit(3))
	run(t, m, program(StoreImm(3, 1), AddImm(3, 1), AddImm(3, 1)))
	if m.Result() != 3 {
		t.Errorf("result = %d, want 3", m.Result())
	}
}

func TestTracerSeesEveryStep(t *testing.T) {
	var steps []Step
	m := New(WithRunID("run-1"), WithTracer(TracerFunc(func(s Step) {
		steps = append(steps, s)
	})))
	run(t, m, program(StoreImm(0, 2), SubImm(0, 1), JumpIfNonZero(0, 1)))

	if len(steps) != m.Steps() || len(steps) != 5 {
		t.Fatalf("traced %d steps, machine ran %d, want 5", len(steps), m.Steps())
	}
	wantAddrs := []int{0, 1, 2, 1, 2}
	for i, s := range steps {
		if s.Index != i || s.Address != wantAddrs[i] || s.RunID != "run-1" {
			t.Errorf("step %d = %+v", i, s)
		}
	}
	if steps[1].Registers[0] != 1 {
		t.Errorf("registers should be captured after execution, r0 = %d", steps[1].Registers[0])
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	a, b := New(), New()
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("run ids %q and %q", a.RunID(), b.RunID())
	}
}

func TestIndependentMachinesRunInParallel(t *testing.T) {
	const workers = 16
	var wg sync.WaitGroup
	results := make([]int16, workers)
	errs := make([]error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			m := New()
			p := program(
				StoreImm(0, int16(w)+1),
				AddImm(3, 3),
				SubImm(0, 1),
				JumpIfNonZero(0, 1),
			)
			errs[w] = m.Run(p)
			results[w] = m.Result()
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		if errs[w] != nil {
			t.Fatalf("worker %d: %v", w, errs[w])
		}
		if want := int16(3 * (w + 1)); results[w] != want {
			t.Errorf("worker %d result = %d, want %d", w, results[w], want)
		}
	}
}
