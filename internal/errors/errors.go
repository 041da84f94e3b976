// Package apperrors holds the error types shared across the command-line,
// server and analysis layers, and the process exit codes they map to.
//
// Every type here implements Unwrap where it carries a cause, so callers
// can keep using errors.Is and errors.As on the wrapped sentinels of the
// domain packages (primes.ErrInvalidLimit, analysis.ErrInsufficientData, ...).
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess       = 0   // Every selected analysis succeeded.
	ExitErrorGeneric  = 1   // Unexpected failure.
	ExitErrorTimeout  = 2   // The run deadline was reached.
	ExitErrorPartial  = 3   // At least one analysis failed, at least one succeeded.
	ExitErrorConfig   = 4   // Invalid flags, environment or reference data.
	ExitErrorCanceled = 130 // Interrupted (SIGINT).
)

// ConfigError reports invalid user configuration: flags, environment
// variables or a malformed reference-data file.
type ConfigError struct {
	// Message describes what is wrong.
	Message string
}

// Error implements error.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError formats a ConfigError.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: The format arguments.
//
// Returns:
//   - error: The ConfigError.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// AnalysisError ties a failure to the analysis that produced it.
type AnalysisError struct {
	// Analysis is the registered name of the failing analysis.
	Analysis string
	// Cause is the underlying error.
	Cause error
}

// Error implements error.
func (e AnalysisError) Error() string {
	if e.Analysis == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Analysis, e.Cause)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e AnalysisError) Unwrap() error { return e.Cause }

// NewAnalysisError wraps cause with the analysis name. A nil cause yields
// nil.
func NewAnalysisError(analysis string, cause error) error {
	if cause == nil {
		return nil
	}
	return AnalysisError{Analysis: analysis, Cause: cause}
}

// ServerError reports a failure of the HTTP server itself (listen,
// shutdown), as opposed to a failed request.
type ServerError struct {
	// Message gives the server operation that failed.
	Message string
	// Cause is the underlying error, possibly nil.
	Cause error
}

// Error implements error.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the cause, or nil.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a ServerError.
//
// Parameters:
//   - message: The server operation that failed.
//   - cause: The underlying error (may be nil).
//
// Returns:
//   - error: The ServerError.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError prefixes err with a formatted context message, keeping it
// unwrappable. A nil err yields nil.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context.
//   - args: The format arguments.
//
// Returns:
//   - error: The wrapped error, or nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err stems from a canceled or expired
// context.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError rejects a single input value of an API request, a REPL
// command or a configuration field.
type ValidationError struct {
	// Field names the offending input.
	Field string
	// Message says why it was rejected.
	Message string
	// Value is the rejected value, if useful.
	Value any
}

// Error implements error.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return "invalid input: " + e.Message
}

// NewValidationError creates a ValidationError.
//
// Parameters:
//   - field: The offending input.
//   - message: Why it was rejected.
//   - value: The rejected value (optional).
//
// Returns:
//   - error: The ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
