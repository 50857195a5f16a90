package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig("bigtensor", nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Op != DefaultOp || cfg.Timeout != DefaultTimeout || cfg.Addr != DefaultAddr {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.InputKind != codec.KindString || cfg.OutputKind != codec.KindString {
		t.Errorf("kinds = %v/%v, want string/string", cfg.InputKind, cfg.OutputKind)
	}
}

func TestParseConfigFlags(t *testing.T) {
	args := []string{"-op", "mul", "-a", "[1,2]", "-b", "3", "-dtype", "int32", "-output", "string",
		"-threshold", "100", "-workers", "3", "-timeout", "5s", "-q", "-gc", "aggressive"}
	cfg, err := ParseConfig("bigtensor", args, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Op != "mul" || cfg.A != "[1,2]" || cfg.B != "3" {
		t.Errorf("operands not parsed: %+v", cfg)
	}
	if cfg.InputKind != codec.KindInt32 || cfg.OutputKind != codec.KindString {
		t.Errorf("kinds = %v/%v", cfg.InputKind, cfg.OutputKind)
	}
	if cfg.Threshold != 100 || cfg.Workers != 3 || cfg.Timeout != 5*time.Second || !cfg.Quiet || cfg.GCMode != "aggressive" {
		t.Errorf("engine settings not parsed: %+v", cfg)
	}
}

func TestParseConfigOperationParameters(t *testing.T) {
	t.Setenv(EnvPrefix+"BITS", "512")
	args := []string{"-op", "random_uniform", "-shape", "2,3", "-maxval", "1000", "-max-bitlen", "64"}
	cfg, err := ParseConfig("bigtensor", args, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Shape != "2,3" || cfg.MaxVal != "1000" || cfg.MaxBitLen != 64 {
		t.Errorf("operation parameters not parsed: %+v", cfg)
	}
	if cfg.Bits != 512 {
		t.Errorf("Bits = %d, want 512 from the environment", cfg.Bits)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad dtype", []string{"-dtype", "float"}},
		{"bad output", []string{"-output", "complex"}},
		{"negative threshold", []string{"-threshold", "-1"}},
		{"zero timeout", []string{"-timeout", "0s"}},
		{"bad gc mode", []string{"-gc", "sometimes"}},
		{"exclusive modes", []string{"-serve", "-repl"}},
		{"negative bits", []string{"-bits", "-1"}},
		{"negative max-bitlen", []string{"-max-bitlen", "-8"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig("bigtensor", tt.args, io.Discard)
			var ce apperrors.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("err = %v, want ConfigError", err)
			}
		})
	}

	if _, err := ParseConfig("bigtensor", []string{"-help"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-help error = %v, want flag.ErrHelp", err)
	}
}

// Environment tests mutate process state and cannot run in parallel.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("BIGTENSOR_THRESHOLD", "777")
	t.Setenv("BIGTENSOR_OP", "sub")
	t.Setenv("BIGTENSOR_QUIET", "yes")
	t.Setenv("BIGTENSOR_TIMEOUT", "not-a-duration")

	cfg, err := ParseConfig("bigtensor", []string{"-op", "max"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Threshold != 777 {
		t.Errorf("Threshold = %d, want 777 from env", cfg.Threshold)
	}
	if cfg.Op != "max" {
		t.Errorf("Op = %q, flag should win over env", cfg.Op)
	}
	if !cfg.Quiet {
		t.Error("Quiet should come from env")
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("invalid env duration should be ignored, got %s", cfg.Timeout)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bigtensor.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigFileLayer(t *testing.T) {
	path := writeConfigFile(t, `
[engine]
threshold = 2048
workers = 6
timeout = "30s"
dtype = "int64"

[server]
addr = ":9090"

[log]
level = "debug"
`)
	t.Setenv("BIGTENSOR_WORKERS", "2")

	cfg, err := ParseConfig("bigtensor", []string{"-config", path, "-threshold", "10"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Threshold != 10 {
		t.Errorf("Threshold = %d, flag should win over file", cfg.Threshold)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, env should win over file", cfg.Workers)
	}
	if cfg.Timeout != 30*time.Second || cfg.Addr != ":9090" || cfg.LogLevel != "debug" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.InputKind != codec.KindInt64 {
		t.Errorf("InputKind = %v, want int64 from file", cfg.InputKind)
	}
}

func TestConfigFileErrors(t *testing.T) {
	t.Parallel()
	var ce apperrors.ConfigError

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.As(err, &ce) {
		t.Errorf("missing file error = %v, want ConfigError", err)
	}

	_, err = LoadFile(writeConfigFile(t, "[engine]\nthreshhold = 1\n"))
	if !errors.As(err, &ce) {
		t.Errorf("unknown key error = %v, want ConfigError", err)
	}

	_, err = LoadFile(writeConfigFile(t, "[engine]\ntimeout = \"soon\"\n"))
	if !errors.As(err, &ce) {
		t.Errorf("bad duration error = %v, want ConfigError", err)
	}
}

func TestApplyAdaptiveThresholds(t *testing.T) {
	t.Parallel()
	cfg := ApplyAdaptiveThresholds(AppConfig{})
	if cfg.Threshold <= 0 || cfg.Workers <= 0 {
		t.Errorf("adaptive values not applied: threshold=%d workers=%d", cfg.Threshold, cfg.Workers)
	}
	kept := ApplyAdaptiveThresholds(AppConfig{Threshold: 5, Workers: 7})
	if kept.Threshold != 5 || kept.Workers != 7 {
		t.Errorf("explicit values overwritten: %+v", kept)
	}
}

func TestHasVersionFlag(t *testing.T) {
	t.Parallel()
	if !HasVersionFlag([]string{"-op", "add", "--version"}) {
		t.Error("--version not detected")
	}
	if HasVersionFlag([]string{"-v"}) {
		t.Error("-v is verbose, not version")
	}
}
