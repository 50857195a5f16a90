package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/boundary"
	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/memory"
	"github.com/agbru/bigtensor/internal/metrics"
	"github.com/agbru/bigtensor/internal/tensor"
	"github.com/agbru/bigtensor/internal/ui"
)

// run builds and runs the application with a private calibration profile
// path and colors disabled.
func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	defer ui.SetCurrentTheme(ui.GetCurrentTheme())

	full := append([]string{"bigtensor",
		"-no-color",
		"-log-level", "off",
		"-calibration-profile", filepath.Join(t.TempDir(), "profile.json"),
	}, args...)
	var out, errOut bytes.Buffer
	application, err := New(full, &errOut, WithInput(strings.NewReader("")))
	require.NoError(t, err)
	code = application.Run(context.Background(), &out)
	return code, out.String(), errOut.String()
}

func TestRunComputeQuiet(t *testing.T) {
	code, out, stderr := run(t, "-op", "add", "-a", "[[1,2],[3,4]]", "-b", "[10,20]", "-q")
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	assert.Equal(t, `[["11","22"],["13","24"]]`+"\n", out)
}

func TestRunComputeUnary(t *testing.T) {
	code, out, stderr := run(t, "-op", "neg", "-a", "[5, -6]", "-output", "int64", "-q")
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	assert.Equal(t, "[-5,6]\n", out)
}

func TestRunComputeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, os.WriteFile(path, []byte(`["123456789012345678901234567890"]`), 0o644))

	code, out, stderr := run(t, "-op", "mod_scalar", "-a", "@"+path, "-m", "97", "-q")
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	assert.Equal(t, `["52"]`+"\n", out)
}

func TestRunComputeVerbose(t *testing.T) {
	code, out, stderr := run(t, "-op", "mul", "-a", "[3]", "-b", "[4]", "-v")
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	for _, want := range []string{"Execution Configuration", "Operation", "mul", "12", "Memory Stats", "System load"} {
		assert.Contains(t, out, want)
	}
}

func TestRunComputeWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	code, out, stderr := run(t, "-op", "sub", "-a", "[10]", "-b", "[3]", "-o", path)
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	assert.Contains(t, out, "Result saved to: "+path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Operation: sub")
	assert.Contains(t, string(content), `["7"]`)
}

func TestRunComputeOperandFreeAndLimbOps(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"random uniform", []string{"-op", "random_uniform", "-shape", "2,3", "-maxval", "1"}, `[["0","0","0"],["0","0","0"]]`},
		{"export limbs", []string{"-op", "export_limbs", "-a", `["5"]`, "-max-bitlen", "16"}, `[[0,0,0,1,5,0]]`},
		{"import limbs", []string{"-op", "import_limbs", "-dtype", "uint8", "-a", "[[0,0,0,2,1,0]]"}, `["256"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := run(t, append(tt.args, "-q")...)
			require.Equal(t, apperrors.ExitSuccess, code, stderr)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestRunComputeRSAModulus(t *testing.T) {
	code, out, stderr := run(t, "-op", "random_rsa_modulus", "-bits", "24", "-q")
	require.Equal(t, apperrors.ExitSuccess, code, stderr)

	var pqn []string
	require.NoError(t, json.Unmarshal([]byte(out), &pqn))
	require.Len(t, pqn, 3)
	p, q, n := bigint.MustParseDecimal(pqn[0]), bigint.MustParseDecimal(pqn[1]), bigint.MustParseDecimal(pqn[2])
	assert.Equal(t, 24, n.BitLen())
	assert.True(t, bigint.Equal(bigint.Mul(p, q), n))
}

func TestOutputElements(t *testing.T) {
	ones := func(n int) []string {
		v := make([]string, n)
		for i := range v {
			v[i] = "1"
		}
		return v
	}
	tests := []struct {
		name string
		req  boundary.Request
		want int
	}{
		{
			name: "broadcast outer sum",
			req: boundary.Request{Op: "add",
				A: boundary.RawArray{Kind: codec.KindString, Shape: tensor.Shape{1000, 1}, Values: ones(1000)},
				B: boundary.RawArray{Kind: codec.KindString, Shape: tensor.Shape{1000}, Values: ones(1000)}},
			want: 1_000_000,
		},
		{
			name: "unary",
			req:  boundary.Request{Op: "neg", A: boundary.RawArray{Kind: codec.KindString, Shape: tensor.Shape{3}, Values: ones(3)}},
			want: 3,
		},
		{
			name: "random",
			req:  boundary.Request{Op: "random_uniform", Shape: tensor.Shape{20, 50}},
			want: 1000,
		},
		{
			name: "incompatible shapes fall back to operands",
			req: boundary.Request{Op: "add",
				A: boundary.RawArray{Kind: codec.KindString, Shape: tensor.Shape{2}, Values: ones(2)},
				B: boundary.RawArray{Kind: codec.KindString, Shape: tensor.Shape{5}, Values: ones(5)}},
			want: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputElements(tt.req))
		})
	}

	outer := tests[0].req
	assert.True(t, memory.NewGCController(memory.GCModeAuto, outputElements(outer)).Active())
	assert.False(t, memory.NewGCController(memory.GCModeAuto, max(outer.A.Len(), outer.B.Len())).Active())
}

func TestRunComputeErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"missing operand", []string{"-op", "add", "-a", "[1]"}, apperrors.ExitErrorInput, "operand is required"},
		{"invalid JSON", []string{"-op", "add", "-a", "[1", "-b", "[1]"}, apperrors.ExitErrorInput, "invalid JSON"},
		{"missing file", []string{"-op", "neg", "-a", "@/nonexistent/operand.json"}, apperrors.ExitErrorInput, "Invalid input (validation)"},
		{"format", []string{"-op", "add", "-a", `["12x"]`, "-b", "[1]"}, apperrors.ExitErrorInput, "Invalid input (format)"},
		{"shape", []string{"-op", "add", "-a", "[1,2,3]", "-b", "[1,2]"}, apperrors.ExitErrorInput, "Invalid input (shape)"},
		{"arithmetic", []string{"-op", "quo", "-a", "[1]", "-b", "[0]"}, apperrors.ExitErrorInput, "Invalid input (arithmetic)"},
		{"range", []string{"-op", "mul", "-a", "[100000]", "-b", "[100000]", "-output", "int32"}, apperrors.ExitErrorInput, "Invalid input (range)"},
		{"modulus", []string{"-op", "inv", "-a", "[3]"}, apperrors.ExitErrorInput, "modulus"},
		{"unknown op", []string{"-op", "frobnicate", "-a", "[1]", "-b", "[1]"}, apperrors.ExitErrorInput, "frobnicate"},
		{"bad shape", []string{"-op", "random_uniform", "-shape", "2,x", "-maxval", "5"}, apperrors.ExitErrorInput, "invalid shape"},
		{"missing maxval", []string{"-op", "random_uniform", "-shape", "2"}, apperrors.ExitErrorInput, "maxval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, append(tt.args, "-q")...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestRunREPL(t *testing.T) {
	defer ui.SetCurrentTheme(ui.GetCurrentTheme())
	var out, errOut bytes.Buffer
	application, err := New([]string{"bigtensor", "-repl", "-log-level", "off", "-no-color", "-m", "7"}, &errOut,
		WithInput(strings.NewReader("let x = [2, 3]\ninv x\nexit\n")))
	require.NoError(t, err)

	code := application.Run(context.Background(), &out)
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, out.String(), "_ = [4 5]")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestRunServerStopsOnCancel(t *testing.T) {
	defer ui.SetCurrentTheme(ui.GetCurrentTheme())
	var errOut bytes.Buffer
	application, err := New([]string{"bigtensor", "-serve", "-addr", "127.0.0.1:0", "-log-level", "off"}, &errOut)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, apperrors.ExitSuccess, application.Run(ctx, &bytes.Buffer{}), errOut.String())
}

func TestRunVersionAndCompletion(t *testing.T) {
	code, out, _ := run(t, "-version")
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, out, "bigtensor dev")
	assert.Contains(t, out, "Backend:")

	code, out, _ = run(t, "-completion", "zsh")
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, out, "#compdef bigtensor")
	assert.Contains(t, out, "powmod")

	code, _, stderr := run(t, "-completion", "tcsh")
	assert.Equal(t, apperrors.ExitErrorConfig, code)
	assert.Contains(t, stderr, "unsupported shell")
}

func TestNewAppliesConfiguration(t *testing.T) {
	var errOut bytes.Buffer
	application, err := New([]string{"bigtensor", "-threshold", "77", "-workers", "3", "-dtype", "int32", "-output", "uint8",
		"-calibration-profile", filepath.Join(t.TempDir(), "p.json")}, &errOut, WithRecorder(metrics.NewRecorder()))
	require.NoError(t, err)
	assert.Equal(t, 77, application.Config.Threshold)
	assert.Equal(t, 3, application.Config.Workers)
	assert.Equal(t, codec.KindInt32, application.Config.InputKind)
	assert.Equal(t, codec.KindUint8, application.Config.OutputKind)

	engine := application.newAdapter().Engine()
	assert.Equal(t, 77, engine.Options().ParallelThreshold)
	assert.Equal(t, 3, engine.Options().Workers)
}

func TestNewErrors(t *testing.T) {
	_, err := New([]string{"bigtensor", "-help"}, &bytes.Buffer{})
	assert.True(t, IsHelpError(err))

	_, err = New([]string{"bigtensor", "-timeout", "-1s"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.False(t, IsHelpError(err))
	var ce apperrors.ConfigError
	assert.True(t, errors.As(err, &ce))

	assert.False(t, IsHelpError(errors.New("other")))
	assert.True(t, IsHelpError(flag.ErrHelp))
}

func TestHasVersionFlag(t *testing.T) {
	assert.True(t, HasVersionFlag([]string{"--version"}))
	assert.False(t, HasVersionFlag([]string{"-v"}))
}
