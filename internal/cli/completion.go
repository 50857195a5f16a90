package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a CLI flag for shell completion generation.
// All shell completion functions generate from this registry, so adding
// a new flag only requires appending to flagRegistry.
type FlagCompletion struct {
	Name      string   // flag name without the leading "-"
	Help      string   // description text
	Values    []string // suggested completion values (nil = boolean/no suggestions)
	ValueName string   // label for the value in zsh (e.g., "kind", "duration")
	IsFile    bool     // true if the flag takes a file path
	IsOp      bool     // true if values come from the operation list
	TakesArg  bool     // true if the flag expects a value
}

var kindValues = []string{"string", "int32", "int64", "uint8", "decimal"}

// flagRegistry is the central list of all CLI flags for completion generation.
var flagRegistry = []FlagCompletion{
	{Name: "help", Help: "Show help message"},
	{Name: "version", Help: "Show version information"},
	{Name: "op", Help: "Operation to apply", IsOp: true, ValueName: "operation", TakesArg: true},
	{Name: "a", Help: "First operand (JSON or @file)", ValueName: "array", TakesArg: true},
	{Name: "b", Help: "Second operand (JSON or @file)", ValueName: "array", TakesArg: true},
	{Name: "m", Help: "Modulus for powmod, inv and mod_scalar", ValueName: "modulus", TakesArg: true},
	{Name: "secure", Help: "Fixed-sequence powmod ladder"},
	{Name: "shape", Help: "Result shape of random_uniform", ValueName: "dims", TakesArg: true},
	{Name: "maxval", Help: "Exclusive bound of random_uniform", ValueName: "bound", TakesArg: true},
	{Name: "bits", Help: "Modulus size of random_rsa_modulus", Values: []string{"1024", "2048", "3072", "4096"}, ValueName: "bits", TakesArg: true},
	{Name: "max-bitlen", Help: "Value width of export_limbs", ValueName: "bits", TakesArg: true},
	{Name: "dtype", Help: "Input element kind", Values: kindValues, ValueName: "kind", TakesArg: true},
	{Name: "output", Help: "Output element kind", Values: kindValues, ValueName: "kind", TakesArg: true},
	{Name: "threshold", Help: "Parallel threshold in elements", Values: []string{"1024", "4096", "16384", "65536"}, ValueName: "elements", TakesArg: true},
	{Name: "workers", Help: "Goroutines per operation", ValueName: "count", TakesArg: true},
	{Name: "gc", Help: "GC control", Values: []string{"auto", "aggressive", "disabled"}, ValueName: "mode", TakesArg: true},
	{Name: "timeout", Help: "Maximum execution time", Values: []string{"10s", "1m", "5m", "30m"}, ValueName: "duration", TakesArg: true},
	{Name: "repl", Help: "Interactive mode"},
	{Name: "serve", Help: "Run the HTTP server"},
	{Name: "addr", Help: "HTTP listen address", ValueName: "address", TakesArg: true},
	{Name: "max-body", Help: "Maximum request body in bytes", ValueName: "bytes", TakesArg: true},
	{Name: "calibrate", Help: "Run calibration mode"},
	{Name: "calibration-profile", Help: "Calibration profile file", IsFile: true, ValueName: "file", TakesArg: true},
	{Name: "o", Help: "Output file path", IsFile: true, ValueName: "file", TakesArg: true},
	{Name: "quiet", Help: "Quiet mode for scripts"},
	{Name: "v", Help: "Print every element and memory statistics"},
	{Name: "no-color", Help: "Disable colors"},
	{Name: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error", "off"}, ValueName: "level", TakesArg: true},
	{Name: "log-file", Help: "Rotating JSON log file", IsFile: true, ValueName: "file", TakesArg: true},
	{Name: "config", Help: "TOML configuration file", IsFile: true, ValueName: "file", TakesArg: true},
	{Name: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh", "fish"}, ValueName: "shell", TakesArg: true},
}

// GenerateCompletion generates a shell completion script for the specified shell.
// ops lists the operation names offered for -op.
func GenerateCompletion(out io.Writer, shell string, ops []string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out, ops)
	case "zsh":
		return generateZshCompletion(out, ops)
	case "fish":
		return generateFishCompletion(out, ops)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
}

func flagValues(f FlagCompletion, ops []string) []string {
	if f.IsOp {
		return ops
	}
	return f.Values
}

func generateBashCompletion(out io.Writer, ops []string) error {
	opts := make([]string, len(flagRegistry))
	for i, f := range flagRegistry {
		opts[i] = "-" + f.Name
	}

	var b strings.Builder
	b.WriteString("# bash completion for bigtensor\n")
	b.WriteString("_bigtensor() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    case \"${prev}\" in\n")
	for _, f := range flagRegistry {
		switch values := flagValues(f, ops); {
		case f.IsFile:
			fmt.Fprintf(&b, "        -%s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n", f.Name)
		case len(values) > 0:
			fmt.Fprintf(&b, "        -%s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				f.Name, strings.Join(values, " "))
		}
	}
	b.WriteString("    esac\n")
	fmt.Fprintf(&b, "    COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(opts, " "))
	b.WriteString("}\n")
	b.WriteString("complete -F _bigtensor bigtensor\n")

	_, err := io.WriteString(out, b.String())
	return err
}

func generateZshCompletion(out io.Writer, ops []string) error {
	var b strings.Builder
	b.WriteString("#compdef bigtensor\n\n")
	b.WriteString("_bigtensor() {\n")
	b.WriteString("    _arguments \\\n")
	for i, f := range flagRegistry {
		b.WriteString("        " + zshArgEntry(f, ops))
		if i < len(flagRegistry)-1 {
			b.WriteString(" \\")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
	b.WriteString("_bigtensor \"$@\"\n")

	_, err := io.WriteString(out, b.String())
	return err
}

func zshArgEntry(f FlagCompletion, ops []string) string {
	help := strings.ReplaceAll(f.Help, "'", "")
	if !f.TakesArg {
		return fmt.Sprintf("'-%s[%s]'", f.Name, help)
	}
	action := ""
	switch values := flagValues(f, ops); {
	case f.IsFile:
		action = "_files"
	case len(values) > 0:
		action = "(" + strings.Join(values, " ") + ")"
	}
	return fmt.Sprintf("'-%s[%s]:%s:%s'", f.Name, help, f.ValueName, action)
}

func generateFishCompletion(out io.Writer, ops []string) error {
	var b strings.Builder
	b.WriteString("# fish completion for bigtensor\n")
	for _, f := range flagRegistry {
		line := fmt.Sprintf("complete -c bigtensor -o %s -d '%s'", f.Name, strings.ReplaceAll(f.Help, "'", ""))
		switch values := flagValues(f, ops); {
		case f.IsFile:
			line += " -r -F"
		case len(values) > 0:
			line += fmt.Sprintf(" -x -a '%s'", strings.Join(values, " "))
		case f.TakesArg:
			line += " -x"
		}
		b.WriteString(line + "\n")
	}

	_, err := io.WriteString(out, b.String())
	return err
}
