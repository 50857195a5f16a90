package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// FileOptions configures the rotating log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultFileOptions returns rotation limits suited to a long-running server.
func DefaultFileOptions(path string) FileOptions {
	return FileOptions{Path: path, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error",
// "disabled") to a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "off", "none":
		return zerolog.Disabled, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, apperrors.NewConfigError("invalid log level %q", name)
	}
	return level, nil
}

// Setup builds the process logger: JSON to the rotating file when a path is
// set, human-readable console output on stderr otherwise. The returned closer
// flushes and closes the file.
func Setup(level, path, component string) (*ZerologAdapter, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	if path != "" {
		lj := NewFileWriter(DefaultFileOptions(path))
		w, closer = lj, lj
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
	return NewZerologAdapter(zl), closer, nil
}

// NewFileWriter returns a size-rotated log file writer.
func NewFileWriter(opts FileOptions) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
