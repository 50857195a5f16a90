// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and styling.
//     Examples: [DisplayResult], [DisplayQuietResult].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatQuietResult], [FormatExecutionDuration].
//
//   - Write* functions write data to files on the filesystem.
//     Examples: [WriteResultToFile].

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agbru/bigtensor/internal/boundary"
	"github.com/agbru/bigtensor/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the result (empty for no file output).
	OutputFile string
	// Quiet prints only the result as compact JSON.
	Quiet bool
	// Verbose prints every element in full.
	Verbose bool
}

// FormatQuietResult renders raw as a compact JSON nested list, suitable for
// scripting.
func FormatQuietResult(raw boundary.RawArray) (string, error) {
	nested, err := boundary.ToNested(raw)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(nested)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DisplayQuietResult outputs a result in quiet mode (minimal output).
func DisplayQuietResult(out io.Writer, raw boundary.RawArray) error {
	s, err := FormatQuietResult(raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s)
	return nil
}

// FormatPreview renders the leading elements of raw on one line. Long
// elements are truncated and the remaining count is appended. With full set,
// every element is rendered as JSON.
func FormatPreview(raw boundary.RawArray, full bool) (string, error) {
	if full {
		return FormatQuietResult(raw)
	}
	values := valueStrings(raw)
	shown := min(len(values), PreviewElements)
	parts := make([]string, shown)
	for i := range parts {
		parts[i] = TruncateDigits(values[i])
	}
	preview := "[" + strings.Join(parts, " ") + "]"
	if rest := len(values) - shown; rest > 0 {
		preview = fmt.Sprintf("[%s ...] (+%d more)", strings.Join(parts, " "), rest)
	}
	return preview, nil
}

// DisplayResult prints a styled summary of a computed array.
func DisplayResult(out io.Writer, op string, raw boundary.RawArray, duration time.Duration, verbose bool) error {
	st := ui.CurrentStyles()
	preview, err := FormatPreview(raw, verbose)
	if err != nil {
		return err
	}
	row := func(label, value string) {
		fmt.Fprintln(out, "  "+st.Label.Render(label)+st.Value.Render(value))
	}

	fmt.Fprintln(out, st.Title.Render("Result"))
	row("Operation", op)
	row("Shape", raw.Shape.String())
	row("Elements", FormatNumberString(fmt.Sprint(raw.Len())))
	row("Kind", raw.Kind.String())
	row("Time", FormatExecutionDuration(duration))
	fmt.Fprintln(out, st.Result.Render(preview))
	return nil
}

// WriteResultToFile writes a result to config.OutputFile as a commented header
// followed by the JSON nested list.
func WriteResultToFile(raw boundary.RawArray, op string, duration time.Duration, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	body, err := FormatQuietResult(raw)
	if err != nil {
		return err
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "# bigtensor result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Operation: %s\n", op)
	fmt.Fprintf(file, "# Duration: %s\n", duration)
	fmt.Fprintf(file, "# Shape: %s\n", raw.Shape)
	fmt.Fprintf(file, "# Kind: %s\n", raw.Kind)
	if _, err := fmt.Fprintln(file, body); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// DisplayResultWithConfig displays a result with the given output
// configuration and saves it when an output file is set.
func DisplayResultWithConfig(out io.Writer, op string, raw boundary.RawArray, duration time.Duration, config OutputConfig) error {
	var err error
	if config.Quiet {
		err = DisplayQuietResult(out, raw)
	} else {
		err = DisplayResult(out, op, raw, duration, config.Verbose)
	}
	if err != nil {
		return err
	}

	if config.OutputFile != "" {
		if err := WriteResultToFile(raw, op, duration, config); err != nil {
			return err
		}
		if !config.Quiet {
			theme := ui.GetCurrentTheme()
			fmt.Fprintf(out, "%sResult saved to: %s%s\n", theme.Success, config.OutputFile, theme.Reset)
		}
	}
	return nil
}
