// Package errs provides the error taxonomy shared across the engine's
// kernel, registry, model and orchestrator layers (see the error handling
// design: each error carries a Kind so callers can branch on locality and
// retriability without string matching).
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error by where it originates and how it should be handled.
type Kind string

const (
	KindInvalidFrame         Kind = "invalid_frame"
	KindInsufficientHistory  Kind = "insufficient_history"
	KindUnknownIndicator     Kind = "unknown_indicator"
	KindUnknownStrategy      Kind = "unknown_strategy"
	KindParameterValidation  Kind = "parameter_validation"
	KindDataUnavailable      Kind = "data_unavailable"
	KindStrategyInternal     Kind = "strategy_internal"
	KindPersistenceFailure   Kind = "persistence_failure"
	KindConfigInvalid        Kind = "config_invalid"
	KindNotFound             Kind = "not_found"
)

// Error is a kinded, wrappable error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a kinded error with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a kinded error wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, returning ok=false if err is not a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Retriable reports whether the Scheduler should retry the monitor's next tick
// rather than escalating. Only DataUnavailable is retriable per the error
// handling design.
func Retriable(err error) bool {
	return Is(err, KindDataUnavailable)
}
