// Package errkind defines the error-kind taxonomy shared across Iris
// components, so a caller several layers up can decide how to react without
// parsing error strings.
package errkind

import (
	"errors"
	"fmt"
)

// Kind tags an error with the category the error-handling design assigns it.
type Kind string

const (
	// Transient covers network and storage errors a worker retries with backoff.
	Transient Kind = "transient"
	// Validation covers schema failures on tool-routing gate output or IPC messages.
	Validation Kind = "validation"
	// Capability covers child crashes, permission violations, repeated restart failure.
	Capability Kind = "capability"
	// Resource covers queue overflow and budget denial.
	Resource Kind = "resource"
	// Cancellation covers context-version bumps and shutdown.
	Cancellation Kind = "cancellation"
	// Fatal covers boot failure beyond the safe-mode latch and corrupt state.
	Fatal Kind = "fatal"
)

// Error wraps a cause with a Kind. Components should wrap at the point an
// error first crosses a subsystem boundary, not at every call site.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New wraps err with kind. Returns nil if err is nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: err}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Of extracts the Kind carried by err, if any.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
