package calibration

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/config"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/tensor"
)

// Default benchmark parameters.
const (
	DefaultDigits  = 64
	DefaultRepeats = 3
)

// Options configures a calibration run.
type Options struct {
	// Digits is the decimal width of the random operands.
	Digits int
	// Repeats is the number of timed runs per size; the fastest is kept.
	Repeats int
	// Sizes overrides the candidate array sizes.
	Sizes []int
	// Quick selects the reduced candidate set when Sizes is empty.
	Quick bool
	// Workers is the goroutine count of the sharded engine. Zero selects
	// runtime.NumCPU().
	Workers int
}

func (o Options) withDefaults() Options {
	if o.Digits <= 0 {
		o.Digits = DefaultDigits
	}
	if o.Repeats <= 0 {
		o.Repeats = DefaultRepeats
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if len(o.Sizes) == 0 {
		if o.Quick {
			o.Sizes = GenerateQuickParallelThresholds()
		} else {
			o.Sizes = GenerateParallelThresholds()
		}
	}
	return o
}

// Result holds the timings of one candidate size.
type Result struct {
	Size       int
	Sequential time.Duration
	Parallel   time.Duration
	Err        error
}

// Speedup returns Sequential / Parallel, or 0 when unmeasured.
func (r Result) Speedup() float64 {
	if r.Err != nil || r.Parallel <= 0 {
		return 0
	}
	return float64(r.Sequential) / float64(r.Parallel)
}

// Run times an elementwise addition of two random arrays at every candidate
// size, once on a single goroutine and once sharded across opts.Workers.
// best is the smallest size from which sharding wins at that size and every
// larger one, or 0 when it never wins.
func Run(ctx context.Context, opts Options) (results []Result, best int, err error) {
	opts = opts.withDefaults()

	maxval, err := bigint.ParseDecimal("1" + strings.Repeat("0", opts.Digits))
	if err != nil {
		return nil, 0, err
	}
	sequential := tensor.NewEngine(tensor.Options{Workers: 1, ParallelThreshold: math.MaxInt})
	sharded := tensor.NewEngine(tensor.Options{Workers: opts.Workers, ParallelThreshold: 0})

	for _, size := range opts.Sizes {
		if err := ctx.Err(); err != nil {
			return results, 0, err
		}
		res := Result{Size: size}
		res.Sequential, res.Parallel, res.Err = measure(ctx, sequential, sharded, size, maxval, opts.Repeats)
		if res.Err != nil && apperrors.IsContextError(res.Err) {
			return results, 0, res.Err
		}
		results = append(results, res)
	}
	return results, bestThreshold(results), nil
}

func measure(ctx context.Context, sequential, sharded *tensor.Engine, size int, maxval bigint.Int, repeats int) (seq, par time.Duration, err error) {
	shape := tensor.Shape{size}
	a, err := sequential.RandomUniform(ctx, shape, maxval)
	if err != nil {
		return 0, 0, err
	}
	b, err := sequential.RandomUniform(ctx, shape, maxval)
	if err != nil {
		return 0, 0, err
	}

	timeAdd := func(e *tensor.Engine) (time.Duration, error) {
		fastest := time.Duration(math.MaxInt64)
		for i := 0; i < repeats; i++ {
			start := time.Now()
			if _, err := e.Add(ctx, a, b); err != nil {
				return 0, err
			}
			if d := time.Since(start); d < fastest {
				fastest = d
			}
		}
		return fastest, nil
	}

	if seq, err = timeAdd(sequential); err != nil {
		return 0, 0, err
	}
	if par, err = timeAdd(sharded); err != nil {
		return 0, 0, err
	}
	return seq, par, nil
}

// bestThreshold scans from the largest size down and keeps the last size of
// the unbroken run where sharding is faster.
func bestThreshold(results []Result) int {
	best := 0
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		if r.Err != nil || r.Parallel >= r.Sequential {
			break
		}
		best = r.Size
	}
	return best
}

// RunCalibration runs a full calibration, prints the results table and saves
// the profile to cfg.CalibrationProfile (or the default path). It returns
// the process exit code.
func RunCalibration(ctx context.Context, out io.Writer, cfg config.AppConfig) int {
	fmt.Fprintf(out, "Calibrating parallel threshold on %d CPUs (%s backend)...\n", runtime.NumCPU(), bigint.Backend)

	start := time.Now()
	opts := Options{Workers: cfg.Workers}
	results, best, err := Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(out, "Calibration interrupted: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	opts = opts.withDefaults()

	threshold := best
	if threshold == 0 {
		threshold = config.EstimateOptimalParallelThreshold()
	}
	printCalibrationResults(out, results, best)

	profile := NewProfile()
	profile.OptimalParallelThreshold = threshold
	profile.OptimalWorkers = opts.Workers
	profile.CalibrationDigits = opts.Digits
	if len(opts.Sizes) > 0 {
		profile.CalibrationElements = opts.Sizes[len(opts.Sizes)-1]
	}
	profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()

	path := cfg.CalibrationProfile
	if path == "" {
		path = GetDefaultProfilePath()
	}
	if err := profile.SaveProfile(path); err != nil {
		fmt.Fprintf(out, "Could not save calibration profile: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	cfg.Threshold, cfg.Workers = 0, 0
	printCalibrationOutput(profile.ApplyProfile(cfg), out)
	fmt.Fprintf(out, "Profile saved to: %s\n", path)
	return apperrors.ExitSuccess
}
