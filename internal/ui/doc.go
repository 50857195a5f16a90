// Package ui provides theme and color support for the command-line output.
// It defines ANSI color schemes and the lipgloss styles used to lay out
// array results, shared by the CLI and the error handler.
package ui
