package token

import "fmt"

type TokenType string

const (
	ZERO TokenType = "0"
	ONE  TokenType = "1"
	MUL  TokenType = "*"
	DIV  TokenType = "/"
)

// Token is a single recognized input symbol.
type Token struct {
	Type    TokenType
	Literal string
	Column  int // 1-based byte column in the source
}

func New(t TokenType, column int) Token {
	return Token{Type: t, Literal: string(t), Column: column}
}

// IsBit reports whether the token is a binary digit.
func (t Token) IsBit() bool {
	return t.Type == ZERO || t.Type == ONE
}

func (t Token) String() string {
	return fmt.Sprintf("%q@%d", t.Literal, t.Column)
}
