package config

import "runtime"

// Threshold resolution chain (highest priority first):
//   1. CLI flags (-threshold, -workers)
//   2. Environment variables (BIGTENSOR_THRESHOLD, BIGTENSOR_WORKERS)
//   3. TOML configuration file
//   4. Cached calibration profile (~/.bigtensor_calibration.json)
//   5. Adaptive hardware estimation (this file)

// ApplyAdaptiveThresholds fills the engine settings left at zero with
// estimates derived from the CPU count. User-specified values are kept.
func ApplyAdaptiveThresholds(cfg AppConfig) AppConfig {
	if cfg.Threshold == 0 {
		cfg.Threshold = EstimateOptimalParallelThreshold()
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg
}

// EstimateOptimalParallelThreshold provides a heuristic estimate of the
// output size from which elementwise work is worth sharding, without running
// benchmarks.
func EstimateOptimalParallelThreshold() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return 1 << 30 // effectively never shard
	case numCPU <= 2:
		return 16384 // goroutine overhead dominates small arrays
	case numCPU <= 4:
		return 8192
	case numCPU <= 8:
		return 4096 // Default
	case numCPU <= 16:
		return 2048
	default:
		return 1024
	}
}
