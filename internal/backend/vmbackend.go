package backend

import (
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/pipeline"
	"github.com/funvibe/nibble/internal/token"
	"github.com/funvibe/nibble/internal/vm"
)

// VMBackend runs ctx.Program on a fresh register machine, compiling the AST
// first when no program is present.
type VMBackend struct {
	opts []vm.Option

	// last machine, kept for inspection after Run
	machine *vm.Machine
}

// VMOption configures machines created by a VMBackend.
type VMOption = vm.Option

func NewVMBackend(opts ...VMOption) *VMBackend {
	return &VMBackend{opts: opts}
}

func (b *VMBackend) Name() string {
	return "vm"
}

func (b *VMBackend) Run(ctx *pipeline.PipelineContext) (int16, error) {
	if ctx.Program == nil {
		if ctx.AstRoot == nil {
			return 0, diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "nothing to execute")
		}
		program, err := vm.Compile(ctx.AstRoot)
		if err != nil {
			return 0, err
		}
		ctx.Program = program
	}

	opts := append([]vm.Option{vm.WithLogger(ctx.Log())}, b.opts...)
	machine := vm.New(opts...)
	b.machine = machine

	ctx.Log().Debug("executing", "run", machine.RunID(), "instructions", ctx.Program.Len())
	if err := machine.Run(ctx.Program); err != nil {
		return 0, err
	}
	ctx.Log().Debug("executed", "run", machine.RunID(), "steps", machine.Steps())
	return machine.Result(), nil
}

// Machine returns the machine used by the last Run, or nil.
func (b *VMBackend) Machine() *vm.Machine {
	return b.machine
}
