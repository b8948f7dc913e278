// Package backend provides the execution backends for a compiled expression.
// The register machine is the real one; the tree-walk backend evaluates the
// AST directly with the same bit-level algorithms and serves as a reference.
package backend

import (
	"github.com/funvibe/nibble/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run evaluates the expression held by ctx and returns the result
	// register value.
	Run(ctx *pipeline.PipelineContext) (int16, error)

	// Name returns the backend name for display
	Name() string
}

// ByName returns a backend for the given name, or nil if unknown.
func ByName(name string, opts ...VMOption) Backend {
	switch name {
	case "vm":
		return NewVMBackend(opts...)
	case "tree":
		return NewTreeWalkBackend()
	}
	return nil
}
