package config

import (
	"errors"
	"flag"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// FileConfig is the TOML configuration file layout. Every key is optional.
//
//	[engine]
//	threshold = 2048
//	workers = 8
//	gc = "auto"
//	timeout = "30s"
//
//	[server]
//	addr = ":9090"
//	max_body = 1048576
//
//	[log]
//	level = "debug"
//	file = "/var/log/bigtensor.log"
type FileConfig struct {
	Engine struct {
		Threshold *int      `toml:"threshold"`
		Workers   *int      `toml:"workers"`
		GC        *string   `toml:"gc"`
		Timeout   *duration `toml:"timeout"`
		DType     *string   `toml:"dtype"`
		Output    *string   `toml:"output"`
	} `toml:"engine"`
	Server struct {
		Addr    *string `toml:"addr"`
		MaxBody *int64  `toml:"max_body"`
	} `toml:"server"`
	Log struct {
		Level *string `toml:"level"`
		File  *string `toml:"file"`
	} `toml:"log"`
	Calibration struct {
		Profile *string `toml:"profile"`
	} `toml:"calibration"`
}

// duration decodes TOML strings such as "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// LoadFile decodes the TOML file at path. Unknown keys are rejected so that
// typos do not pass silently.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileConfig{}, apperrors.NewConfigError("config file %s not found", path)
		}
		return FileConfig{}, apperrors.NewConfigError("invalid config file %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, apperrors.NewConfigError("unknown key %q in config file %s", undecoded[0].String(), path)
	}
	return fc, nil
}

// apply copies file values into cfg for every flag that was not set on the
// command line.
func (fc FileConfig) apply(cfg *AppConfig, fs *flag.FlagSet) {
	set := func(flagName string, apply func()) {
		if !isFlagSet(fs, flagName) {
			apply()
		}
	}
	if v := fc.Engine.Threshold; v != nil {
		set("threshold", func() { cfg.Threshold = *v })
	}
	if v := fc.Engine.Workers; v != nil {
		set("workers", func() { cfg.Workers = *v })
	}
	if v := fc.Engine.GC; v != nil {
		set("gc", func() { cfg.GCMode = *v })
	}
	if v := fc.Engine.Timeout; v != nil {
		set("timeout", func() { cfg.Timeout = v.Duration })
	}
	if v := fc.Engine.DType; v != nil {
		set("dtype", func() { cfg.DType = *v })
	}
	if v := fc.Engine.Output; v != nil {
		set("output", func() { cfg.Output = *v })
	}
	if v := fc.Server.Addr; v != nil {
		set("addr", func() { cfg.Addr = *v })
	}
	if v := fc.Server.MaxBody; v != nil {
		set("max-body", func() { cfg.MaxBodyBytes = *v })
	}
	if v := fc.Log.Level; v != nil {
		set("log-level", func() { cfg.LogLevel = *v })
	}
	if v := fc.Log.File; v != nil {
		set("log-file", func() { cfg.LogFile = *v })
	}
	if v := fc.Calibration.Profile; v != nil {
		set("calibration-profile", func() { cfg.CalibrationProfile = *v })
	}
}
