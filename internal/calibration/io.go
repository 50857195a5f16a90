package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/agbru/bigtensor/internal/cli"
	"github.com/agbru/bigtensor/internal/config"
	"github.com/agbru/bigtensor/internal/ui"
)

// printCalibrationResults formats and prints the calibration results table.
func printCalibrationResults(out io.Writer, results []Result, bestThreshold int) {
	theme := ui.GetCurrentTheme()
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sElements%s\t%sSequential%s\t%sParallel%s\t%sSpeedup%s\n",
		theme.Bold, theme.Reset, theme.Bold, theme.Reset, theme.Bold, theme.Reset, theme.Bold, theme.Reset)
	fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", strings.Repeat("─", 8), strings.Repeat("─", 10), strings.Repeat("─", 8), strings.Repeat("─", 7))
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(tw, "  %d\t%sN/A%s\t%sN/A%s\t\n", res.Size, theme.Error, theme.Reset, theme.Error, theme.Reset)
			continue
		}
		highlight := ""
		if res.Size == bestThreshold {
			highlight = fmt.Sprintf(" %s(Optimal)%s", theme.Success, theme.Reset)
		}
		fmt.Fprintf(tw, "  %s%d%s\t%s\t%s\t%s%.2fx%s%s\n",
			theme.Primary, res.Size, theme.Reset,
			durationLabel(res.Sequential), durationLabel(res.Parallel),
			theme.Warning, res.Speedup(), theme.Reset, highlight)
	}
	tw.Flush()
	if bestThreshold == 0 {
		fmt.Fprintf(out, "%sSharding never won; falling back to the hardware estimate.%s\n", theme.Warning, theme.Reset)
	}
}

func durationLabel(d time.Duration) string {
	if d < time.Microsecond {
		return "< 1µs"
	}
	return cli.FormatExecutionDuration(d)
}

// printCalibrationOutput prints the engine settings that will be used.
func printCalibrationOutput(cfg config.AppConfig, out io.Writer) {
	theme := ui.GetCurrentTheme()
	fmt.Fprintf(out, "%sAuto-calibration%s: parallel threshold=%s%d%s elements, workers=%s%d%s\n",
		theme.Success, theme.Reset,
		theme.Warning, cfg.Threshold, theme.Reset,
		theme.Warning, cfg.Workers, theme.Reset)
}
