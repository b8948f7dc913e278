// Package cli implements the nibble command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/funvibe/nibble/internal/backend"
	"github.com/funvibe/nibble/internal/config"
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/lexer"
	"github.com/funvibe/nibble/internal/parser"
	"github.com/funvibe/nibble/internal/pipeline"
	"github.com/funvibe/nibble/internal/prettyprinter"
	"github.com/funvibe/nibble/internal/vm"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const usageText = `Usage: nibble [flags] <expression>
       nibble [flags] -program <file.yaml>

Evaluates 4-bit binary literals joined by '*' and '/', left to right,
e.g. nibble 0011*0010. Other ASCII characters are ignored.

Flags:
`

type options struct {
	configPath  string
	programPath string
	width       int
	steps       int
	color       string
	backend     string
	verbose     bool
	showAST     bool
	disasm      bool
	trace       bool
	emitYAML    bool
}

// Run executes the command with args (without the program name) and
// returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("nibble", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "load settings from a YAML `file`")
	fs.StringVar(&opts.programPath, "program", "", "run a compiled YAML program `file` instead of an expression")
	fs.IntVar(&opts.width, "width", config.DefaultWidth, "number of result `bits` to print (1..16)")
	fs.IntVar(&opts.steps, "steps", 0, "abort after `n` executed instructions (0 = no limit)")
	fs.StringVar(&opts.color, "color", config.ColorAuto, "color errors: auto, always or never")
	fs.StringVar(&opts.backend, "backend", "vm", "execution backend: vm or tree")
	fs.BoolVar(&opts.verbose, "v", false, "log pipeline stages to stderr")
	fs.BoolVar(&opts.showAST, "ast", false, "print the expression tree")
	fs.BoolVar(&opts.disasm, "disasm", false, "print the compiled program")
	fs.BoolVar(&opts.trace, "trace", false, "print every executed instruction with the register file")
	fs.BoolVar(&opts.emitYAML, "emit-yaml", false, "print the compiled program as YAML and exit")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	settings, err := resolveSettings(fs, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return ExitUsage
	}
	if opts.trace && opts.programPath == "" && settings.Backend != "vm" {
		fmt.Fprintf(stderr, "Error: -trace needs the vm backend, not %q\n", settings.Backend)
		return ExitUsage
	}

	r := &runner{
		opts:     opts,
		settings: settings,
		stdout:   stdout,
		stderr:   stderr,
		color:    useColor(settings.Color, stderr),
		logger:   newLogger(stderr, settings.LogLevel),
	}

	if opts.programPath != "" {
		if fs.NArg() != 0 {
			fmt.Fprintln(stderr, "-program takes no expression argument")
			fs.Usage()
			return ExitUsage
		}
		return r.runProgramFile(opts.programPath)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Need exactly one argument")
		fs.Usage()
		return ExitUsage
	}
	return r.runExpression(fs.Arg(0))
}

// resolveSettings layers explicitly set flags over the settings file.
func resolveSettings(fs *flag.FlagSet, opts options) (config.Settings, error) {
	settings := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Settings{}, err
		}
		settings = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			settings.Width = opts.width
		case "steps":
			settings.StepLimit = opts.steps
		case "color":
			settings.Color = opts.color
		case "backend":
			settings.Backend = opts.backend
		case "v":
			if opts.verbose && settings.LogLevel != config.LogLevelTrace {
				settings.LogLevel = config.LogLevelDebug
			}
		}
	})

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

type runner struct {
	opts     options
	settings config.Settings
	stdout   io.Writer
	stderr   io.Writer
	color    bool
	logger   *slog.Logger
}

func (r *runner) runExpression(source string) int {
	ctx := pipeline.NewPipelineContext(source)
	ctx.Logger = r.logger

	tracer := r.tracer()
	exec := backend.ByName(r.settings.Backend, r.machineOptions(tracer)...)

	stages := []pipeline.Processor{
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&backend.CompileProcessor{},
	}
	if !r.opts.emitYAML {
		stages = append(stages, backend.NewExecutionProcessor(exec))
	}
	ctx = pipeline.New(stages...).Run(ctx)

	if ctx.Failed() {
		r.reportErrors(ctx.Errors)
		return ExitFailure
	}

	if r.opts.showAST {
		fmt.Fprint(r.stdout, prettyprinter.NewTreePrinter().Print(ctx.AstRoot))
	}
	if r.opts.disasm {
		fmt.Fprint(r.stdout, vm.Disassemble(ctx.Program, source))
	}
	if r.opts.emitYAML {
		bundle := vm.NewBundle(prettyprinter.NewCompactPrinter().Print(ctx.AstRoot), ctx.Program)
		if _, err := bundle.WriteTo(r.stdout); err != nil {
			fmt.Fprintf(r.stderr, "Serialization error: %s\n", err)
			return ExitFailure
		}
		return ExitOK
	}
	return r.finish(ctx, tracer)
}

func (r *runner) runProgramFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error reading program: %s\n", err)
		return ExitFailure
	}
	defer f.Close()

	bundle, err := vm.ReadBundle(f)
	if err != nil {
		r.reportErrors([]*diagnostics.DiagnosticError{diagnostics.From(err, diagnostics.ErrR001)})
		return ExitFailure
	}

	ctx := pipeline.NewPipelineContext(bundle.Source)
	ctx.Logger = r.logger
	ctx.Program = bundle.Program

	if r.opts.disasm {
		fmt.Fprint(r.stdout, vm.Disassemble(bundle.Program, path))
	}
	if r.opts.emitYAML {
		if _, err := bundle.WriteTo(r.stdout); err != nil {
			fmt.Fprintf(r.stderr, "Serialization error: %s\n", err)
			return ExitFailure
		}
		return ExitOK
	}

	// A bundle carries no tree, so only the machine can run it.
	tracer := r.tracer()
	ctx = pipeline.New(
		backend.NewExecutionProcessor(backend.NewVMBackend(r.machineOptions(tracer)...)),
	).Run(ctx)
	if ctx.Failed() {
		r.reportErrors(ctx.Errors)
		return ExitFailure
	}
	return r.finish(ctx, tracer)
}

func (r *runner) finish(ctx *pipeline.PipelineContext, tracer *vm.TableTracer) int {
	if tracer != nil {
		tracer.Render(r.stdout)
	}
	fmt.Fprintln(r.stdout, prettyprinter.Binary(ctx.Result, r.settings.Width))
	return ExitOK
}

func (r *runner) tracer() *vm.TableTracer {
	if !r.opts.trace {
		return nil
	}
	return vm.NewTableTracer(r.settings.TraceRows)
}

func (r *runner) machineOptions(tracer *vm.TableTracer) []vm.Option {
	opts := []vm.Option{vm.WithStepLimit(r.settings.StepLimit)}
	if tracer != nil {
		opts = append(opts, vm.WithTracer(tracer))
	}
	return opts
}

func (r *runner) reportErrors(errs []*diagnostics.DiagnosticError) {
	for _, err := range errs {
		line := "- " + err.Error()
		if r.color {
			line = colorRed + line + colorReset
		}
		fmt.Fprintln(r.stderr, line)
	}
}
