// Package diagnostics defines the error taxonomy shared by every pipeline stage.
package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/nibble/internal/token"
)

// Error kinds. DiagnosticError unwraps to one of these, so callers can use
// errors.Is without caring about the exact code.
var (
	ErrEncoding = errors.New("encoding error")
	ErrSyntax   = errors.New("syntax error")
	ErrInternal = errors.New("internal consistency error")
	ErrCompile  = errors.New("compile error")
	ErrRuntime  = errors.New("runtime error")
)

type ErrorCode string

const (
	// Lexer
	ErrE001 ErrorCode = "E001" // input is not ASCII

	// Parser
	ErrP001 ErrorCode = "P001" // tokens left after the top-level parse
	ErrP002 ErrorCode = "P002" // nothing to parse
	ErrP003 ErrorCode = "P003" // more than one expression

	// Parser defects surfacing later in the pipeline
	ErrI001 ErrorCode = "I001"

	// Compiler
	ErrC001 ErrorCode = "C001" // out of spill registers
	ErrC002 ErrorCode = "C002" // program exceeds the address space

	// Machine
	ErrR001 ErrorCode = "R001" // malformed program
	ErrR002 ErrorCode = "R002" // step limit exceeded
)

var codeKinds = map[ErrorCode]error{
	ErrE001: ErrEncoding,
	ErrP001: ErrSyntax,
	ErrP002: ErrSyntax,
	ErrP003: ErrSyntax,
	ErrI001: ErrInternal,
	ErrC001: ErrCompile,
	ErrC002: ErrCompile,
	ErrR001: ErrRuntime,
	ErrR002: ErrRuntime,
}

// DiagnosticError is an error tied to a code and, when known, a source token.
type DiagnosticError struct {
	Code    ErrorCode
	Token   token.Token
	Message string
}

func NewError(code ErrorCode, tok token.Token, format string, args ...any) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Token:   tok,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *DiagnosticError) Error() string {
	kind := e.Kind()
	if e.Token.Column > 0 {
		return fmt.Sprintf("%s [%s] at column %d: %s", kind, e.Code, e.Token.Column, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", kind, e.Code, e.Message)
}

// Kind returns the sentinel error for the diagnostic's code.
func (e *DiagnosticError) Kind() error {
	if kind, ok := codeKinds[e.Code]; ok {
		return kind
	}
	return ErrInternal
}

func (e *DiagnosticError) Unwrap() error {
	return e.Kind()
}

// From converts any error into a DiagnosticError, keeping existing ones as-is.
// Unknown errors are reported under fallback.
func From(err error, fallback ErrorCode) *DiagnosticError {
	var diag *DiagnosticError
	if errors.As(err, &diag) {
		return diag
	}
	return &DiagnosticError{Code: fallback, Message: err.Error()}
}
