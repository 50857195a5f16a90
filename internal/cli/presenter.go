package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/bigtensor/internal/arith"
	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/config"
	"github.com/agbru/bigtensor/internal/metrics"
	"github.com/agbru/bigtensor/internal/ui"
)

// PrintExecutionConfig displays the operation about to run and the engine
// settings it runs with.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	theme := ui.GetCurrentTheme()
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Operation %s%s%s on %s%s%s elements, result as %s%s%s, timeout %s%s%s.\n",
		theme.Primary, cfg.Op, theme.Reset,
		theme.Info, cfg.InputKind, theme.Reset,
		theme.Info, cfg.OutputKind, theme.Reset,
		theme.Warning, cfg.Timeout, theme.Reset)
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s, %s, backend %s.\n",
		theme.Info, runtime.NumCPU(), theme.Reset, runtime.Version(), arith.GetCPUFeatures(), bigint.Backend)
	fmt.Fprintf(out, "Engine: parallel threshold %s%d%s elements, %s%d%s workers, GC mode %s.\n",
		theme.Info, cfg.Threshold, theme.Reset, theme.Info, cfg.EffectiveWorkers(), theme.Reset, cfg.GCMode)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}

// DisplayMemoryStats shows the allocation activity of an operation.
func DisplayMemoryStats(delta metrics.MemoryDelta, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Peak heap:       %s\n", FormatBytes(delta.PeakHeap))
	fmt.Fprintf(out, "  Total allocated: %s\n", FormatBytes(delta.AllocatedBytes))
	fmt.Fprintf(out, "  Allocations:     %s\n", FormatNumberString(fmt.Sprint(delta.Allocations)))
	fmt.Fprintf(out, "  GC cycles:       %d\n", delta.GCCycles)
}
