package calibration

import (
	"runtime"
	"sort"
	"testing"
)

func TestGenerateParallelThresholds(t *testing.T) {
	t.Parallel()
	thresholds := GenerateParallelThresholds()

	for i, th := range thresholds {
		if th <= 0 {
			t.Errorf("Threshold at index %d is not positive: %d", i, th)
		}
	}
	if !sort.IntsAreSorted(thresholds) {
		t.Errorf("Thresholds should be ascending: %v", thresholds)
	}

	numCPU := runtime.NumCPU()
	switch {
	case numCPU == 1:
		if len(thresholds) != 0 {
			t.Errorf("For 1 CPU, expected no candidates, got %v", thresholds)
		}
	case numCPU <= 4:
		expected := []int{512, 1024, 2048, 4096}
		for _, exp := range expected {
			found := false
			for _, th := range thresholds {
				if th == exp {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected threshold %d not found in %v", exp, thresholds)
			}
		}
	case numCPU <= 8:
		if len(thresholds) < 7 {
			t.Errorf("For %d CPUs, expected at least 7 thresholds, got %d", numCPU, len(thresholds))
		}
	case numCPU <= 16:
		if len(thresholds) < 8 {
			t.Errorf("For %d CPUs, expected at least 8 thresholds, got %d", numCPU, len(thresholds))
		}
	default:
		if len(thresholds) < 9 {
			t.Errorf("For %d CPUs, expected at least 9 thresholds, got %d", numCPU, len(thresholds))
		}
	}

	t.Logf("Generated %d parallel thresholds for %d CPUs: %v",
		len(thresholds), numCPU, thresholds)
}

func TestGenerateQuickParallelThresholds(t *testing.T) {
	t.Parallel()
	thresholds := GenerateQuickParallelThresholds()

	fullThresholds := GenerateParallelThresholds()
	if len(thresholds) > len(fullThresholds) {
		t.Error("Quick thresholds should not be longer than full thresholds")
	}

	numCPU := runtime.NumCPU()
	switch {
	case numCPU == 1:
		if len(thresholds) != 0 {
			t.Errorf("For 1 CPU, expected no candidates, got %v", thresholds)
		}
	case numCPU <= 4:
		if len(thresholds) != 3 {
			t.Errorf("For %d CPUs, expected 3 thresholds, got %d", numCPU, len(thresholds))
		}
	case numCPU <= 8:
		if len(thresholds) != 4 {
			t.Errorf("For %d CPUs, expected 4 thresholds, got %d", numCPU, len(thresholds))
		}
	default:
		if len(thresholds) != 5 {
			t.Errorf("For %d CPUs, expected 5 thresholds, got %d", numCPU, len(thresholds))
		}
	}
}

func TestEstimateOptimalParallelThreshold(t *testing.T) {
	t.Parallel()
	threshold := EstimateOptimalParallelThreshold()

	if threshold <= 0 {
		t.Errorf("Estimated parallel threshold should be positive: %d", threshold)
	}

	numCPU := runtime.NumCPU()
	if numCPU > 1 && threshold > 65536 {
		t.Errorf("Estimated parallel threshold seems too high: %d", threshold)
	}
	t.Logf("Estimated parallel threshold for %d CPUs: %d", numCPU, threshold)
}

// Benchmark threshold generation
func BenchmarkGenerateParallelThresholds(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = GenerateParallelThresholds()
	}
}
