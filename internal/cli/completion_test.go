package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateCompletion(t *testing.T) {
	t.Parallel()
	ops := []string{"add", "matmul"}

	tests := []struct {
		shell    string
		contains []string
	}{
		{"bash", []string{"complete -F _bigtensor bigtensor", "-op)", `compgen -W "add matmul"`, "-dtype)", "compgen -f", "-bits)", "-max-bitlen", "-shape", "-maxval"}},
		{"zsh", []string{"#compdef bigtensor", "'-op[Operation to apply]:operation:(add matmul)'", "'-secure[Fixed-sequence powmod ladder]'", "_files"}},
		{"fish", []string{"complete -c bigtensor -o op", "-x -a 'add matmul'", "-o config -d 'TOML configuration file' -r -F"}},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := GenerateCompletion(&buf, tt.shell, ops); err != nil {
				t.Fatalf("GenerateCompletion(%s): %v", tt.shell, err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("%s completion should contain %q", tt.shell, want)
				}
			}
		})
	}
}

func TestGenerateCompletionUnsupported(t *testing.T) {
	t.Parallel()
	err := GenerateCompletion(&bytes.Buffer{}, "tcsh", nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported shell") {
		t.Errorf("expected unsupported shell error, got %v", err)
	}
}
