package apperrors

import (
	"fmt"
	"io"
)

// ColorProvider supplies the escape sequences used when printing errors.
// It keeps this package free of any terminal or theme dependency.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// HandleError prints a user-facing description of err to out and returns the
// matching exit code. A nil error prints nothing and returns ExitSuccess.
func HandleError(err error, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	code := ExitCodeFor(err)
	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "%sOperation timed out: %v%s\n", colors.Yellow(), err, colors.Reset())
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sOperation canceled.%s\n", colors.Yellow(), colors.Reset())
	case ExitErrorInput:
		fmt.Fprintf(out, "%sInvalid input (%s): %v%s\n", colors.Red(), Kind(err), err, colors.Reset())
	default:
		fmt.Fprintf(out, "%sError: %v%s\n", colors.Red(), err, colors.Reset())
	}
	return code
}
