package lexer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/pipeline"
	"github.com/funvibe/nibble/internal/token"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Token
	}{
		{
			name:  "product",
			input: "0011*0010",
			want: []token.Token{
				token.New(token.ZERO, 1), token.New(token.ZERO, 2),
				token.New(token.ONE, 3), token.New(token.ONE, 4),
				token.New(token.MUL, 5),
				token.New(token.ZERO, 6), token.New(token.ZERO, 7),
				token.New(token.ONE, 8), token.New(token.ZERO, 9),
			},
		},
		{
			name:  "ignored characters",
			input: " 1a/\t0x",
			want: []token.Token{
				token.New(token.ONE, 2),
				token.New(token.DIV, 4),
				token.New(token.ZERO, 6),
			},
		},
		{
			name:  "nothing recognized",
			input: "hello, world 2+3",
			want:  []token.Token{},
		},
		{
			name:  "empty",
			input: "",
			want:  []token.Token{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTokenizeRejectsNonASCII(t *testing.T) {
	_, err := Tokenize("00é1")
	if err == nil {
		t.Fatal("expected an encoding error")
	}
	if !errors.Is(err, diagnostics.ErrEncoding) {
		t.Errorf("expected ErrEncoding, got %v", err)
	}

	var diag *diagnostics.DiagnosticError
	if !errors.As(err, &diag) {
		t.Fatalf("expected a DiagnosticError, got %T", err)
	}
	if diag.Code != diagnostics.ErrE001 {
		t.Errorf("code = %s, want E001", diag.Code)
	}
	if diag.Token.Column != 3 {
		t.Errorf("column = %d, want 3", diag.Token.Column)
	}
}

func TestNextTokenStopsAtEnd(t *testing.T) {
	l := New("*")
	tok, ok, err := l.NextToken()
	if err != nil || !ok || tok.Type != token.MUL {
		t.Fatalf("first NextToken = %v, %v, %v", tok, ok, err)
	}
	for i := 0; i < 2; i++ {
		if _, ok, err := l.NextToken(); ok || err != nil {
			t.Fatalf("NextToken after end = %v, %v", ok, err)
		}
	}
}

func TestLexerProcessor(t *testing.T) {
	ctx := pipeline.NewPipelineContext("0101 / 0001")
	ctx = (&LexerProcessor{}).Process(ctx)
	if ctx.Failed() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if len(ctx.TokenStream) != 9 {
		t.Errorf("got %d tokens, want 9", len(ctx.TokenStream))
	}

	ctx = pipeline.NewPipelineContext("\xff")
	ctx = (&LexerProcessor{}).Process(ctx)
	if !ctx.Failed() || ctx.Errors[0].Code != diagnostics.ErrE001 {
		t.Fatalf("expected E001, got %v", ctx.Errors)
	}
	if ctx.TokenStream != nil {
		t.Errorf("token stream should stay empty on error")
	}
}
