package vm

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
)

// LevelTrace sits below slog.LevelDebug and carries one record per
// executed instruction.
const LevelTrace slog.Level = slog.LevelDebug - 4

func Trace(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Step is the machine state right after one instruction executed.
type Step struct {
	RunID     string
	Index     int // 0-based position in the run
	Address   int // address of the executed instruction
	Inst      Instruction
	Registers [NumRegisters]int16
}

type Tracer interface {
	Step(s Step)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(s Step)

func (f TracerFunc) Step(s Step) { f(s) }

// TableTracer collects steps and renders them as a table.
type TableTracer struct {
	steps []Step
	limit int
}

// NewTableTracer keeps at most limit steps; zero keeps all.
func NewTableTracer(limit int) *TableTracer {
	return &TableTracer{limit: limit}
}

func (t *TableTracer) Step(s Step) {
	if t.limit > 0 && len(t.steps) >= t.limit {
		return
	}
	t.steps = append(t.steps, s)
}

func (t *TableTracer) Steps() []Step {
	return t.steps
}

// Render writes the collected steps to w. Counter and scratch registers are
// shown in decimal, the data registers in 16-bit binary.
func (t *TableTracer) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	if len(t.steps) > 0 {
		tw.SetTitle("run %s", t.steps[0].RunID)
	}

	header := table.Row{"step", "pc", "instruction"}
	for r := 0; r < NumRegisters; r++ {
		header = append(header, Register(r).String())
	}
	tw.AppendHeader(header)

	for _, s := range t.steps {
		row := table.Row{s.Index, formatAddress(s.Address), s.Inst.String()}
		for r, v := range s.Registers {
			switch Register(r) {
			case MultiplierRegister, MultiplicandRegister, ResultRegister:
				row = append(row, fmt.Sprintf("%016b", uint16(v)))
			default:
				row = append(row, v)
			}
		}
		tw.AppendRow(row)
	}
	if t.limit > 0 && len(t.steps) >= t.limit {
		tw.SetCaption("truncated at %d steps", t.limit)
	}
	tw.Render()
}
