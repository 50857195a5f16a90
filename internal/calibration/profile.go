package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/config"
)

// CurrentProfileVersion is bumped whenever the profile layout changes.
const CurrentProfileVersion = 1

// DefaultProfileFileName is the profile file created in the home directory.
const DefaultProfileFileName = ".bigtensor_calibration.json"

// DefaultMaxProfileAge is how long a cached profile is trusted.
const DefaultMaxProfileAge = 30 * 24 * time.Hour

// CalibrationProfile records the measured engine settings for one machine.
// A profile is only applied on the hardware and toolchain that produced it.
type CalibrationProfile struct {
	ProfileVersion int       `json:"profile_version"`
	CalibratedAt   time.Time `json:"calibrated_at"`

	NumCPU    int    `json:"num_cpu"`
	GOARCH    string `json:"goarch"`
	GOOS      string `json:"goos"`
	GoVersion string `json:"go_version"`
	WordSize  int    `json:"word_size"`
	Backend   string `json:"backend"`

	OptimalParallelThreshold int `json:"optimal_parallel_threshold"`
	OptimalWorkers           int `json:"optimal_workers"`

	CalibrationElements int    `json:"calibration_elements"`
	CalibrationDigits   int    `json:"calibration_digits"`
	CalibrationTime     string `json:"calibration_time"`
}

// NewProfile returns a profile stamped with the current machine description.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		ProfileVersion: CurrentProfileVersion,
		CalibratedAt:   time.Now(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
		Backend:        bigint.Backend,
	}
}

// GetDefaultProfilePath returns ~/.bigtensor_calibration.json, or the bare
// file name when the home directory is unknown.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// SaveProfile writes the profile as indented JSON, creating parent directories.
func (p *CalibrationProfile) SaveProfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating profile directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

func loadProfile(path string) (*CalibrationProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	var p CalibrationProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", path, err)
	}
	return &p, nil
}

// LoadOrCreateProfile loads the profile at path. When the file is missing or
// unreadable a fresh profile is returned and loaded is false.
func LoadOrCreateProfile(path string) (profile *CalibrationProfile, loaded bool) {
	p, err := loadProfile(path)
	if err != nil {
		return NewProfile(), false
	}
	return p, true
}

// IsValid reports whether the profile was produced on this machine by a
// compatible version.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	return p.ProfileVersion == CurrentProfileVersion &&
		p.NumCPU == runtime.NumCPU() &&
		p.GOARCH == runtime.GOARCH &&
		p.GOOS == runtime.GOOS &&
		p.WordSize == 32<<(^uint(0)>>63)
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

// ApplyProfile copies the measured settings into cfg. Values set by the user
// are kept.
func (p *CalibrationProfile) ApplyProfile(cfg config.AppConfig) config.AppConfig {
	if cfg.Threshold == 0 && p.OptimalParallelThreshold > 0 {
		cfg.Threshold = p.OptimalParallelThreshold
	}
	if cfg.Workers == 0 && p.OptimalWorkers > 0 {
		cfg.Workers = p.OptimalWorkers
	}
	return cfg
}

func (p *CalibrationProfile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Calibration profile v%d (%s)\n", p.ProfileVersion, p.CalibratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "  Machine:            %s/%s, %d CPUs, %d-bit words, %s\n", p.GOOS, p.GOARCH, p.NumCPU, p.WordSize, p.GoVersion)
	fmt.Fprintf(&b, "  Backend:            %s\n", p.Backend)
	fmt.Fprintf(&b, "  Parallel threshold: %d elements\n", p.OptimalParallelThreshold)
	fmt.Fprintf(&b, "  Workers:            %d\n", p.OptimalWorkers)
	if p.CalibrationTime != "" {
		fmt.Fprintf(&b, "  Measured with:      %d-digit elements in %s\n", p.CalibrationDigits, p.CalibrationTime)
	}
	return b.String()
}

// LoadCachedCalibration applies the profile stored at path (the default path
// when empty) if it is valid and fresh, then fills any remaining engine
// settings with hardware estimates. loaded reports whether a profile was used.
func LoadCachedCalibration(cfg config.AppConfig, path string) (config.AppConfig, bool) {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	p, err := loadProfile(path)
	if err != nil || !p.IsValid() || p.IsStale(DefaultMaxProfileAge) {
		return config.ApplyAdaptiveThresholds(cfg), false
	}
	return config.ApplyAdaptiveThresholds(p.ApplyProfile(cfg)), true
}
