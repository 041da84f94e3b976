package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies terminal colour codes without importing the cli
// package.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider returns empty codes.
type DefaultColorProvider struct{}

func (DefaultColorProvider) Yellow() string { return "" }
func (DefaultColorProvider) Reset() string  { return "" }

// HandleAnalysisError prints a one-line status for a failed run and maps
// the error to an exit code: timeout, cancellation, configuration or
// generic failure.
//
// Parameters:
//   - err: The error; nil yields ExitSuccess and prints nothing.
//   - duration: Elapsed time before the failure, omitted when zero.
//   - out: The destination writer.
//   - colors: Colour codes; nil disables colours.
//
// Returns:
//   - int: The exit code.
func HandleAnalysisError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	after := ""
	if duration > 0 {
		after = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	var cfgErr ConfigError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The run deadline was reached%s.\n", after)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), after, colors.Reset())
		return ExitErrorCanceled
	case errors.As(err, &cfgErr):
		fmt.Fprintf(out, "Status: Configuration error: %v\n", err)
		return ExitErrorConfig
	}
	fmt.Fprintf(out, "Status: Failure%s: %v\n", after, err)
	return ExitErrorGeneric
}
