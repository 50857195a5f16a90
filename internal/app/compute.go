package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/agbru/bigtensor/internal/boundary"
	"github.com/agbru/bigtensor/internal/cli"
	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/logging"
	"github.com/agbru/bigtensor/internal/memory"
	"github.com/agbru/bigtensor/internal/metrics"
	"github.com/agbru/bigtensor/internal/sysmon"
	"github.com/agbru/bigtensor/internal/ui"
)

// runCompute runs the one-shot operation named by -op on -a and -b.
func (a *Application) runCompute(ctx context.Context, out io.Writer) int {
	req, err := a.buildRequest()
	if err != nil {
		return apperrors.HandleError(err, a.ErrWriter, ui.Colors{})
	}

	// Setup lifecycle (timeout + signals)
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
	}

	mode, _ := memory.ParseGCMode(a.Config.GCMode)
	gc := memory.NewGCController(mode, outputElements(req))
	gc.SetLogger(a.logger.Zerolog())
	collector := metrics.NewMemoryCollector()
	before := collector.Snapshot()

	var result boundary.RawArray
	adapter := a.newAdapter()
	compute := func() error {
		var err error
		result, err = adapter.Compute(ctx, req)
		return err
	}

	start := time.Now()
	gc.Begin()
	if a.Config.Quiet {
		err = compute()
	} else {
		err = cli.RunWithSpinner(out, "computing "+req.Op, compute)
	}
	gc.End()
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.TimeoutError{Operation: req.Op, Limit: a.Config.Timeout}
		}
		a.logger.Debug("computation failed", logging.String("op", req.Op), logging.Err(err))
		return apperrors.HandleError(err, a.ErrWriter, ui.Colors{})
	}
	a.logger.Debug("computation finished",
		logging.String("op", req.Op),
		logging.Int("elements", result.Len()),
		logging.Float64("duration_ms", float64(duration.Microseconds())/1000))

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
	}
	if err := cli.DisplayResultWithConfig(out, req.Op, result, duration, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	if a.Config.Verbose && !a.Config.Quiet {
		cli.DisplayMemoryStats(collector.Since(before), out)
		fmt.Fprintf(out, "  System load:     %s\n", sysmon.Sample())
	}
	return apperrors.ExitSuccess
}

// buildRequest loads the operands named by the configuration.
func (a *Application) buildRequest() (boundary.Request, error) {
	op := a.Config.Op
	req := boundary.Request{
		Op:        op,
		Modulus:   a.Config.Modulus,
		Secure:    a.Config.Secure,
		Output:    a.Config.OutputKind,
		MaxVal:    a.Config.MaxVal,
		Bits:      a.Config.Bits,
		MaxBitLen: a.Config.MaxBitLen,
	}
	if a.Config.Output == "" {
		req.Output = boundary.DefaultOutput(op, a.Config.InputKind)
	}
	if a.Config.Shape != "" {
		shape, err := boundary.ParseShape(a.Config.Shape)
		if err != nil {
			return boundary.Request{}, err
		}
		req.Shape = shape
	}

	var err error
	arity := boundary.Arity(op)
	if arity >= 1 {
		if req.A, err = loadOperand("a", a.Config.A, a.Config.InputKind); err != nil {
			return boundary.Request{}, err
		}
	}
	if arity == 2 {
		if req.B, err = loadOperand("b", a.Config.B, a.Config.InputKind); err != nil {
			return boundary.Request{}, err
		}
	}
	return req, nil
}

// outputElements returns the number of result elements of req, which sizes
// GC control. Broadcasting can make it far larger than either operand. When
// the shapes do not combine the larger operand is used and the engine reports
// the error.
func outputElements(req boundary.Request) int {
	n := max(req.A.Len(), req.B.Len())
	if shape, err := boundary.OutputShape(req); err == nil {
		n = max(n, shape.Size())
	}
	return n
}

// loadOperand parses spec as a JSON nested list, or reads the list from the
// file named after a leading '@'.
func loadOperand(name, spec string, kind codec.Kind) (boundary.RawArray, error) {
	if spec == "" {
		return boundary.RawArray{}, apperrors.ValidationError{Field: name, Message: "operand is required (-" + name + ")"}
	}
	var r io.Reader = strings.NewReader(spec)
	if path, ok := strings.CutPrefix(spec, "@"); ok {
		f, err := os.Open(path)
		if err != nil {
			return boundary.RawArray{}, apperrors.ValidationError{Field: name, Message: err.Error()}
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return boundary.RawArray{}, apperrors.ValidationError{Field: name, Message: "invalid JSON: " + err.Error()}
	}
	raw, err := boundary.FromNested(v, kind)
	if err != nil {
		return boundary.RawArray{}, apperrors.WrapError(err, "operand %s", name)
	}
	return raw, nil
}
