// Package errors provides structured error types for the pagetiming library.
package errors

import (
	"fmt"
	"time"
)

// Kind represents the category of error that occurred.
type Kind string

const (
	// KindUnsupported means no timing source is available in the environment
	KindUnsupported Kind = "unsupported"
	// KindProbe represents failures while capturing live timing data
	KindProbe Kind = "probe"
	// KindValidation represents invalid input or configuration
	KindValidation Kind = "validation"
)

// Error represents a structured error with context information.
type Error struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// NewUnsupportedError signals that no timing source is available.
func NewUnsupportedError() *Error {
	return &Error{
		Kind:      KindUnsupported,
		Message:   "no timing source available in this environment",
		Timestamp: time.Now(),
	}
}

// NewProbeError creates an error for a failed live capture.
func NewProbeError(target string, cause error) *Error {
	return &Error{
		Kind:      KindProbe,
		Message:   fmt.Sprintf("probe of %s failed", target),
		Cause:     cause,
		Target:    target,
		Timestamp: time.Now(),
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *Error {
	return &Error{
		Kind:      KindValidation,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// IsUnsupported checks if an error signals an unsupported environment.
func IsUnsupported(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == KindUnsupported
	}
	return false
}
