// Package toolerrors provides a structured, chainable error type for tool
// invocation failures. ToolError preserves error chains and supports
// errors.Is/As while remaining safe to embed in a tool-role message body.
package toolerrors

import (
	"errors"
	"fmt"
)

// Kind classifies a ToolError so callers (HTTP handlers, the tool-call
// executor) can map it to the right surface without string-matching messages.
type Kind string

const (
	// KindValidation indicates malformed arguments or a missing required field.
	KindValidation Kind = "validation"
	// KindNotFound indicates a referenced file, symbol, or trajectory is absent.
	KindNotFound Kind = "not_found"
	// KindPermission indicates a path/privacy/confirmation policy blocked the call.
	KindPermission Kind = "permission"
	// KindBudget indicates the turn's token budget cannot be satisfied.
	KindBudget Kind = "budget"
	// KindExecution indicates the tool ran but failed (non-zero exit, IO error).
	KindExecution Kind = "execution"
	// KindParse indicates a diff or structured payload could not be parsed/aligned.
	KindParse Kind = "parse"
)

// ToolError represents a structured tool failure that preserves message and
// causal context while still implementing the standard error interface. Tool
// errors may be nested via Cause to retain diagnostics across retries and
// sub-chat hops.
type ToolError struct {
	// Kind classifies the failure; empty means unclassified.
	Kind Kind
	// Message is the human-readable summary of the failure.
	Message string
	// Cause links to the underlying tool error, enabling error chains.
	Cause *ToolError
}

// New constructs a ToolError with the provided message and no cause.
func New(kind Kind, message string) *ToolError {
	if message == "" {
		message = "tool error"
	}
	return &ToolError{Kind: kind, Message: message}
}

// NewWithCause constructs a ToolError that wraps an underlying error.
func NewWithCause(kind Kind, message string, cause error) *ToolError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &ToolError{Kind: kind, Message: message, Cause: FromError(cause)}
}

// FromError converts an arbitrary error into a ToolError chain, preserving
// Kind when the error (or one it wraps) is already a ToolError.
func FromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{Message: err.Error(), Cause: FromError(errors.Unwrap(err))}
}

// Errorf formats according to a format specifier and returns a ToolError.
func Errorf(kind Kind, format string, args ...any) *ToolError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying tool error to support errors.Is/As.
func (e *ToolError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}
