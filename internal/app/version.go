package app

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/bigtensor/internal/arith"
	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/config"
)

// Build information, set with -ldflags "-X github.com/agbru/bigtensor/internal/app.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// HasVersionFlag reports whether args (without the program name) request
// version information.
func HasVersionFlag(args []string) bool { return config.HasVersionFlag(args) }

// PrintVersion writes the build and platform description to out.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "bigtensor %s\n", Version)
	fmt.Fprintf(out, "  Commit:     %s\n", Commit)
	fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
	fmt.Fprintf(out, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(out, "  Backend:    %s\n", bigint.Backend)
	fmt.Fprintf(out, "  CPU:        %s\n", arith.GetCPUFeatures())
}
