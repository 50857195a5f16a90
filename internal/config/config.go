// Package config parses and validates the bigtensor configuration.
//
// Values are resolved in priority order: command-line flags, BIGTENSOR_*
// environment variables, the TOML file named by -config, adaptive hardware
// estimates, then static defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/memory"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "BIGTENSOR_"

// Default values.
const (
	DefaultOp           = "add"
	DefaultTimeout      = 1 * time.Minute
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 64 << 20
	DefaultDType        = "string"
)

// AppConfig is the fully resolved application configuration.
type AppConfig struct {
	// Computation (one-shot mode).
	Op      string // operation name, see tensor.ParseOp
	A, B    string // operands: JSON nested lists, or @path to a JSON file
	Modulus string // decimal modulus for powmod, inv and mod_scalar
	Secure  bool   // fixed-sequence ladder for powmod
	DType   string // input element kind
	Output  string // output element kind, defaults to DType

	// Operand-free and limb operations.
	Shape     string // random_uniform shape, comma separated
	MaxVal    string // random_uniform exclusive bound
	Bits      int    // random_rsa_modulus size
	MaxBitLen int    // export_limbs value width

	InputKind  codec.Kind
	OutputKind codec.Kind

	// Engine.
	Threshold int    // parallel threshold in output elements, 0 = adaptive
	Workers   int    // goroutines per operation, 0 = adaptive
	GCMode    string // auto, aggressive or disabled
	Timeout   time.Duration

	// Modes.
	REPL      bool
	Serve     bool
	Calibrate bool
	Version   bool

	// Server.
	Addr         string
	MaxBodyBytes int64

	// Output and logging.
	Quiet      bool
	Verbose    bool
	NoColor    bool
	OutputFile string
	LogLevel   string
	LogFile    string

	// Files.
	ConfigFile         string
	CalibrationProfile string

	// Completion names a shell whose completion script is printed.
	Completion string
}

// ParseConfig parses args (without the program name) into an AppConfig.
// Usage and parse errors are written to errWriter. A -help request returns
// flag.ErrHelp.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	cfg := AppConfig{}
	fs.StringVar(&cfg.Op, "op", DefaultOp, "Operation: add, sub, mul, quo, rem, mod, min, max, comparisons, neg, abs, matmul, powmod, inv, mod_scalar, random_uniform, random_rsa_modulus, import_limbs, export_limbs.")
	fs.StringVar(&cfg.A, "a", "", "First operand as a JSON nested list, or @file.")
	fs.StringVar(&cfg.B, "b", "", "Second operand as a JSON nested list, or @file.")
	fs.StringVar(&cfg.Modulus, "m", "", "Decimal modulus for powmod, inv and mod_scalar.")
	fs.BoolVar(&cfg.Secure, "secure", false, "Use the fixed-sequence ladder for powmod.")
	fs.StringVar(&cfg.Shape, "shape", "", "Result shape of random_uniform, e.g. 2,3.")
	fs.StringVar(&cfg.MaxVal, "maxval", "", "Exclusive decimal bound of random_uniform.")
	fs.IntVar(&cfg.Bits, "bits", 2048, "Modulus size in bits for random_rsa_modulus.")
	fs.IntVar(&cfg.MaxBitLen, "max-bitlen", 2048, "Largest value width in bits for export_limbs.")
	fs.StringVar(&cfg.DType, "dtype", DefaultDType, "Input element kind: string, int32, int64, uint8, decimal.")
	fs.StringVar(&cfg.Output, "output", "", "Output element kind (defaults to -dtype).")
	fs.IntVar(&cfg.Threshold, "threshold", 0, "Output elements from which work is sharded (0 = adaptive).")
	fs.IntVar(&cfg.Workers, "workers", 0, "Goroutines per operation (0 = number of CPUs).")
	fs.StringVar(&cfg.GCMode, "gc", string(memory.GCModeAuto), "GC control during large operations: auto, aggressive, disabled.")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "Maximum duration of one computation or request.")
	fs.BoolVar(&cfg.REPL, "repl", false, "Start the interactive shell.")
	fs.BoolVar(&cfg.Serve, "serve", false, "Run the HTTP server.")
	fs.StringVar(&cfg.Addr, "addr", DefaultAddr, "HTTP listen address.")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body", DefaultMaxBodyBytes, "Maximum HTTP request body size in bytes.")
	fs.BoolVar(&cfg.Calibrate, "calibrate", false, "Measure the parallel threshold and save a profile.")
	fs.StringVar(&cfg.CalibrationProfile, "calibration-profile", "", "Calibration profile path (default ~/.bigtensor_calibration.json).")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Print only the result.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Shorthand for -quiet.")
	fs.BoolVar(&cfg.Verbose, "v", false, "Print timing and memory details.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output (also honors NO_COLOR).")
	fs.StringVar(&cfg.OutputFile, "o", "", "Write the result to this file.")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error, off.")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Write JSON logs to this rotating file.")
	fs.StringVar(&cfg.ConfigFile, "config", "", "TOML configuration file.")
	fs.BoolVar(&cfg.Version, "version", false, "Print version information.")
	fs.StringVar(&cfg.Completion, "completion", "", "Print a completion script for bash, zsh or fish.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	if path := configFilePath(cfg.ConfigFile, fs); path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		fc.apply(&cfg, fs)
	}
	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errWriter, err)
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and resolves the element kinds.
func (c *AppConfig) Validate() error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	}
	if c.Threshold < 0 {
		return apperrors.NewConfigError("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("workers must be non-negative, got %d", c.Workers)
	}
	if c.Bits < 0 {
		return apperrors.NewConfigError("bits must be non-negative, got %d", c.Bits)
	}
	if c.MaxBitLen < 0 {
		return apperrors.NewConfigError("max-bitlen must be non-negative, got %d", c.MaxBitLen)
	}
	if c.MaxBodyBytes <= 0 {
		return apperrors.NewConfigError("max-body must be positive, got %d", c.MaxBodyBytes)
	}
	if _, ok := memory.ParseGCMode(c.GCMode); !ok {
		return apperrors.NewConfigError("invalid gc mode %q", c.GCMode)
	}
	modes := 0
	for _, on := range []bool{c.REPL, c.Serve, c.Calibrate} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return apperrors.NewConfigError("-repl, -serve and -calibrate are mutually exclusive")
	}

	in, err := codec.ParseKind(c.DType)
	if err != nil {
		return apperrors.NewConfigError("invalid -dtype: %v", err)
	}
	c.InputKind, c.OutputKind = in, in
	if c.Output != "" {
		out, err := codec.ParseKind(c.Output)
		if err != nil {
			return apperrors.NewConfigError("invalid -output: %v", err)
		}
		c.OutputKind = out
	}
	return nil
}

// EffectiveWorkers returns the worker count with the adaptive default
// applied.
func (c AppConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// HasVersionFlag reports whether args request version information, so the
// version can be printed before full parsing.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-version", "--version", "-V":
			return true
		}
	}
	return false
}
