package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/agbru/bigtensor/internal/boundary"
	"github.com/agbru/bigtensor/internal/calibration"
	"github.com/agbru/bigtensor/internal/cli"
	"github.com/agbru/bigtensor/internal/config"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/logging"
	"github.com/agbru/bigtensor/internal/metrics"
	"github.com/agbru/bigtensor/internal/tensor"
	"github.com/agbru/bigtensor/internal/ui"
)

// Application represents the bigtensor application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer
	// In feeds the REPL; it defaults to os.Stdin.
	In io.Reader

	recorder *metrics.Recorder
	logger   *logging.ZerologAdapter
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithInput sets the reader the REPL consumes.
func WithInput(r io.Reader) AppOption {
	return func(a *Application) { a.In = r }
}

// WithRecorder sets the metrics recorder that observes engine operations.
func WithRecorder(r *metrics.Recorder) AppOption {
	return func(a *Application) { a.recorder = r }
}

// New creates a new Application instance by parsing command-line arguments.
// args includes the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, In: os.Stdin}
	for _, opt := range opts {
		opt(app)
	}
	if app.recorder == nil {
		app.recorder = metrics.NewRecorder()
	}

	programName := "bigtensor"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	// Calibration measures sequential against sharded execution itself, so
	// it starts from the user's settings only.
	if !cfg.Calibrate {
		cfg, _ = calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile)
	}

	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Version {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	logger, closer, err := logging.Setup(a.Config.LogLevel, a.Config.LogFile, "bigtensor")
	if err != nil {
		return apperrors.HandleError(err, a.ErrWriter, ui.Colors{})
	}
	defer closer.Close()
	a.logger = logger
	ui.InitTheme(a.Config.NoColor)

	switch {
	case a.Config.Calibrate:
		return calibration.RunCalibration(ctx, out, a.Config)
	case a.Config.REPL:
		return a.runREPL(out)
	case a.Config.Serve:
		return a.runServer(ctx)
	default:
		return a.runCompute(ctx, out)
	}
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, cli.OperationNames()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// newAdapter builds the engine from the resolved configuration.
func (a *Application) newAdapter() *boundary.Adapter {
	return boundary.NewAdapter(tensor.NewEngine(tensor.Options{
		Workers:           a.Config.EffectiveWorkers(),
		ParallelThreshold: a.Config.Threshold,
		Observer:          a.recorder,
	}))
}

// runREPL starts the interactive shell on a.In.
func (a *Application) runREPL(out io.Writer) int {
	shape, err := boundary.ParseShape(a.Config.Shape)
	if err != nil {
		return apperrors.HandleError(err, a.ErrWriter, ui.Colors{})
	}
	repl := cli.NewREPL(a.newAdapter(), cli.REPLConfig{
		Timeout:   a.Config.Timeout,
		DType:     a.Config.InputKind,
		Output:    a.Config.OutputKind,
		Modulus:   a.Config.Modulus,
		Secure:    a.Config.Secure,
		Shape:     shape,
		MaxVal:    a.Config.MaxVal,
		Bits:      a.Config.Bits,
		MaxBitLen: a.Config.MaxBitLen,
	})
	repl.SetInput(a.In)
	repl.SetOutput(out)
	repl.Start()
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
