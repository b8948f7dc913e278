package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunPrintsBinaryResult(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"0011*0010"}, "00000110\n"},
		{[]string{"0001/0000"}, "00011111\n"},
		{[]string{"1111 / 0011 * 0010"}, "00001010\n"},
		{[]string{"-width", "4", "0011*0010"}, "0110\n"},
		{[]string{"-width", "16", "1111*1111*1111"}, "0000110100101111\n"},
		{[]string{"-backend", "tree", "0001/0000"}, "00011111\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != ExitOK {
				t.Fatalf("exit %d, stderr:\n%s", code, stderr)
			}
			if stdout != tt.want {
				t.Errorf("stdout = %q, want %q", stdout, tt.want)
			}
			if stderr != "" {
				t.Errorf("unexpected stderr:\n%s", stderr)
			}
		})
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "Need exactly one argument"},
		{"two arguments", []string{"0011*0010", "0001/0001"}, "Need exactly one argument"},
		{"unknown flag", []string{"-bogus", "0011*0010"}, "flag provided but not defined"},
		{"width out of range", []string{"-width", "17", "0011*0010"}, "width 17"},
		{"unknown backend", []string{"-backend", "jit", "0011*0010"}, "unknown backend"},
		{"trace on tree backend", []string{"-trace", "-backend", "tree", "0011*0010"}, "-trace needs the vm backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != ExitUsage {
				t.Errorf("exit %d, want %d", code, ExitUsage)
			}
			if stdout != "" {
				t.Errorf("unexpected stdout %q", stdout)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr does not mention %q:\n%s", tt.want, stderr)
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	code, _, stderr := runCLI(t, "-h")
	if code != ExitOK {
		t.Errorf("exit %d, want 0", code)
	}
	if !strings.Contains(stderr, "Usage: nibble") {
		t.Errorf("help text missing:\n%s", stderr)
	}
}

func TestRunReportsFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"leftover tokens", []string{"0011*001"}, "[P001]"},
		{"trailing operator", []string{"0011*0010*"}, "at column 10"},
		{"nothing to parse", []string{"hello"}, "[P002]"},
		{"non-ASCII input", []string{"0011×0010"}, "[E001]"},
		{"step limit", []string{"-steps", "5", "0011*0010"}, "[R002]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != ExitFailure {
				t.Errorf("exit %d, want %d", code, ExitFailure)
			}
			if stdout != "" {
				t.Errorf("nothing should be printed on failure, got %q", stdout)
			}
			if !strings.HasPrefix(stderr, "- ") || !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want a '- ' line mentioning %q", stderr, tt.want)
			}
		})
	}
}

func TestEmitAndRunProgram(t *testing.T) {
	code, yamlOut, stderr := runCLI(t, "-emit-yaml", "0011 * 0010")
	if code != ExitOK {
		t.Fatalf("emit exit %d:\n%s", code, stderr)
	}
	for _, want := range []string{"version: 1", "source: 0011*0010", "op: JUMP_IF_NONZERO"} {
		if !strings.Contains(yamlOut, want) {
			t.Errorf("emitted YAML lacks %q:\n%s", want, yamlOut)
		}
	}

	path := filepath.Join(t.TempDir(), "product.yaml")
	if err := os.WriteFile(path, []byte(yamlOut), 0o644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := runCLI(t, "-program", path)
	if code != ExitOK {
		t.Fatalf("program exit %d:\n%s", code, stderr)
	}
	if stdout != "00000110\n" {
		t.Errorf("stdout = %q", stdout)
	}

	code, _, stderr = runCLI(t, "-program", path, "0001*0001")
	if code != ExitUsage {
		t.Errorf("-program with an expression: exit %d, want %d (%s)", code, ExitUsage, stderr)
	}

	code, _, _ = runCLI(t, "-program", filepath.Join(t.TempDir(), "missing.yaml"))
	if code != ExitFailure {
		t.Errorf("missing program file: exit %d, want %d", code, ExitFailure)
	}
}

func TestRunRejectsMalformedProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	src := "version: 1\ncode:\n  - op: STORE_IMM\n    dst: 9\n    imm: 1\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, "-program", path)
	if code != ExitFailure || !strings.Contains(stderr, "[R001]") {
		t.Errorf("exit %d, stderr %q; want R001 failure", code, stderr)
	}
}

func TestRunDiagnosticOutputs(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-ast", "-disasm", "-trace", "0011*0010")
	if code != ExitOK {
		t.Fatalf("exit %d:\n%s", code, stderr)
	}
	for _, want := range []string{
		"Multiply (col 5)",
		"multiplier: Number 0010 = 2",
		"== 0011*0010 ==",
		"AND_IMM",
		"NEGATE r4",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output lacks %q:\n%s", want, stdout)
		}
	}
	if !strings.HasSuffix(stdout, "\n00000110\n") {
		t.Errorf("result should be the last line:\n%s", stdout)
	}
}

func TestRunWithSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nibble.yaml")
	if err := os.WriteFile(path, []byte("width: 4\ncolor: never\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stdout, _ := runCLI(t, "-config", path, "0011*0010")
	if stdout != "0110\n" {
		t.Errorf("settings width: stdout = %q", stdout)
	}

	// Flags win over the file.
	_, stdout, _ = runCLI(t, "-config", path, "-width", "6", "0011*0010")
	if stdout != "000110\n" {
		t.Errorf("flag width: stdout = %q", stdout)
	}

	code, _, stderr := runCLI(t, "-config", filepath.Join(t.TempDir(), "none.yaml"), "0011*0010")
	if code != ExitUsage || !strings.Contains(stderr, "read settings") {
		t.Errorf("missing settings file: exit %d, stderr %q", code, stderr)
	}
}

func TestVerboseLogsStages(t *testing.T) {
	code, _, stderr := runCLI(t, "-v", "0011*0010")
	if code != ExitOK {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"level=DEBUG", "msg=tokenized", "msg=compiled", "msg=result"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("debug log lacks %q:\n%s", want, stderr)
		}
	}
}

func TestColorModes(t *testing.T) {
	var buf bytes.Buffer
	if useColor("auto", &buf) {
		t.Error("a buffer is never a terminal")
	}
	if !useColor("always", &buf) {
		t.Error("always should force color")
	}
	if useColor("never", os.Stderr) {
		t.Error("never should disable color")
	}

	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("color: always\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, stderr := runCLI(t, "-config", path, "0011*001")
	if !strings.HasPrefix(stderr, colorRed+"- ") || !strings.HasSuffix(stderr, colorReset+"\n") {
		t.Errorf("expected a red error line, got %q", stderr)
	}
}
