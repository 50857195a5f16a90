package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorInput    = 5   // Indicates malformed or out-of-range array input.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// FormatError reports a malformed decimal string met while decoding an array
// element. Index is the element's flat (row-major) position and Coords its
// coordinates; both are -1/nil when the error was raised outside an array.
type FormatError struct {
	// Value is the offending raw input.
	Value string
	// Reason replaces the default description when the input is not a
	// decimal string, such as a malformed limb encoding.
	Reason string
	// Index is the flat index of the element, or -1.
	Index int
	// Coords are the element coordinates in the source array.
	Coords []int
}

// Error returns a formatted message describing the malformed value.
func (e FormatError) Error() string {
	msg := fmt.Sprintf("invalid decimal integer %q", e.Value)
	if e.Reason != "" {
		msg = e.Reason
	}
	if e.Index < 0 {
		return msg
	}
	return fmt.Sprintf("%s at element %d %s", msg, e.Index, formatCoords(e.Coords))
}

// RangeError reports a value that does not fit the requested fixed-width
// integer encoding.
type RangeError struct {
	// Value is the decimal form of the value that did not fit.
	Value string
	// Bits is the requested width.
	Bits int
	// Signed reports whether the target encoding is signed.
	Signed bool
	// Index is the flat index of the element, or -1.
	Index int
	// Coords are the element coordinates in the source array.
	Coords []int
}

// Error returns a formatted message describing the out-of-range value.
func (e RangeError) Error() string {
	typ := fmt.Sprintf("uint%d", e.Bits)
	if e.Signed {
		typ = fmt.Sprintf("int%d", e.Bits)
	}
	if e.Index < 0 {
		return fmt.Sprintf("value %s out of range for %s", truncateValue(e.Value), typ)
	}
	return fmt.Sprintf("value %s out of range for %s at element %d %s", truncateValue(e.Value), typ, e.Index, formatCoords(e.Coords))
}

// ShapeError reports two array shapes that cannot be combined by an operation.
type ShapeError struct {
	// Op is the operation that rejected the shapes.
	Op string
	// A and B are the operand shapes.
	A, B []int
	// Axis is the first incompatible axis of the aligned output shape.
	Axis int
}

// Error returns a formatted message naming both shapes and the axis.
func (e ShapeError) Error() string {
	return fmt.Sprintf("%s: incompatible shapes %v and %v at axis %d", e.Op, e.A, e.B, e.Axis)
}

// ArithmeticError reports an undefined arithmetic result for one element,
// such as a division by zero or a missing modular inverse.
type ArithmeticError struct {
	// Op is the operation name.
	Op string
	// Index is the flat index of the output element, or -1.
	Index int
	// Reason describes the failure.
	Reason string
}

// Error returns a formatted message describing the arithmetic failure.
func (e ArithmeticError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: %s at element %d", e.Op, e.Reason, e.Index)
}

// TimeoutError represents an operation timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsInputError reports whether err (or anything it wraps) was caused by
// caller-supplied array data: a format, range, shape, arithmetic or
// validation failure.
func IsInputError(err error) bool {
	var (
		fe FormatError
		re RangeError
		se ShapeError
		ae ArithmeticError
		ve ValidationError
	)
	return errors.As(err, &fe) || errors.As(err, &re) || errors.As(err, &se) ||
		errors.As(err, &ae) || errors.As(err, &ve)
}

// Kind returns a short machine-readable name for the error class, used in
// metrics labels and API responses.
func Kind(err error) string {
	var (
		fe FormatError
		re RangeError
		se ShapeError
		ae ArithmeticError
		ve ValidationError
		ce ConfigError
		te TimeoutError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return "format"
	case errors.As(err, &re):
		return "range"
	case errors.As(err, &se):
		return "shape"
	case errors.As(err, &ae):
		return "arithmetic"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ce):
		return "config"
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) int {
	switch Kind(err) {
	case "":
		return ExitSuccess
	case "format", "range", "shape", "arithmetic", "validation":
		return ExitErrorInput
	case "config":
		return ExitErrorConfig
	case "timeout":
		return ExitErrorTimeout
	case "canceled":
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}

func formatCoords(coords []int) string {
	if len(coords) == 0 {
		return "[]"
	}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = fmt.Sprint(c)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// truncateValue keeps error messages readable for values with thousands of digits.
func truncateValue(s string) string {
	const edge = 20
	if len(s) <= 2*edge+3 {
		return s
	}
	return s[:edge] + "..." + s[len(s)-edge:]
}
