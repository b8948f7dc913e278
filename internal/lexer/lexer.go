package lexer

import (
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/token"
)

type Lexer struct {
	input    string
	position int // current position in input (points to current char)
	ch       byte
}

func New(input string) *Lexer {
	l := &Lexer{input: input, position: -1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	l.position++
	if l.position >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.position]
}

// NextToken returns the next recognized token. ok is false at end of input.
// Characters outside the alphabet are skipped.
func (l *Lexer) NextToken() (tok token.Token, ok bool, err error) {
	for l.position < len(l.input) {
		ch, column := l.ch, l.position+1
		l.readChar()

		if ch >= 0x80 {
			return token.Token{}, false, diagnostics.NewError(
				diagnostics.ErrE001,
				token.Token{Column: column},
				"byte 0x%02x is not ASCII", ch,
			)
		}

		switch ch {
		case '0':
			return token.New(token.ZERO, column), true, nil
		case '1':
			return token.New(token.ONE, column), true, nil
		case '*':
			return token.New(token.MUL, column), true, nil
		case '/':
			return token.New(token.DIV, column), true, nil
		}
	}
	return token.Token{}, false, nil
}

// Tokenize returns every recognized token of input, in order.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	tokens := make([]token.Token, 0, len(input))
	for {
		tok, ok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}
