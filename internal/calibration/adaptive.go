// This file implements adaptive candidate generation based on hardware characteristics.

package calibration

import (
	"runtime"

	"github.com/agbru/bigtensor/internal/config"
)

// ─────────────────────────────────────────────────────────────────────────────
// Candidate array sizes
// ─────────────────────────────────────────────────────────────────────────────

// GenerateParallelThresholds returns the array sizes at which sequential and
// sharded execution are compared. The smallest size from which sharding wins
// becomes the parallel threshold.
//
// A single core gets no candidates: sharding cannot win there.
func GenerateParallelThresholds() []int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return nil
	case numCPU <= 4:
		return []int{512, 1024, 2048, 4096, 8192}
	case numCPU <= 8:
		return []int{256, 512, 1024, 2048, 4096, 8192, 16384}
	case numCPU <= 16:
		return []int{256, 512, 1024, 2048, 4096, 8192, 16384, 32768}
	default:
		return []int{128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768}
	}
}

// GenerateQuickParallelThresholds returns a reduced candidate set.
func GenerateQuickParallelThresholds() []int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return nil
	case numCPU <= 4:
		return []int{1024, 4096, 8192}
	case numCPU <= 8:
		return []int{1024, 2048, 4096, 16384}
	default:
		return []int{512, 1024, 2048, 4096, 16384}
	}
}

// EstimateOptimalParallelThreshold delegates to config.EstimateOptimalParallelThreshold.
func EstimateOptimalParallelThreshold() int { return config.EstimateOptimalParallelThreshold() }
