// Package errors provides error handling for the kerml analysis engine.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing diagnostics
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrLinking) {
//	    // handle unresolved reference
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll  = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Common sentinel errors for use across the engine.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates a requested element or document does not exist
	ErrNotFound = New("not found")

	// ErrLinking indicates a name reference failed to resolve uniquely
	ErrLinking = New("linking error")

	// ErrEvaluation indicates expression evaluation failed
	ErrEvaluation = New("evaluation error")

	// ErrCycle indicates a cycle was detected in a specialization or
	// ownership traversal
	ErrCycle = New("cycle detected")

	// ErrCanceled indicates a workspace build was canceled between phases
	ErrCanceled = New("build canceled")

	// ErrSyntax indicates malformed concrete syntax
	ErrSyntax = New("syntax error")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsLinkingError checks if an error is or wraps ErrLinking
func IsLinkingError(err error) bool {
	return err != nil && Is(err, ErrLinking)
}

// IsEvaluationError checks if an error is or wraps ErrEvaluation
func IsEvaluationError(err error) bool {
	return err != nil && Is(err, ErrEvaluation)
}

// NewLinkingError creates a linking error with a formatted message
func NewLinkingError(format string, args ...interface{}) error {
	return Wrap(ErrLinking, Newf(format, args...).Error())
}

// NewEvaluationError creates an evaluation error with a formatted message
func NewEvaluationError(format string, args ...interface{}) error {
	return Wrap(ErrEvaluation, Newf(format, args...).Error())
}
