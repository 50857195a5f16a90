package arith

import (
	"runtime"
	"strings"
	"testing"
)

func TestHasBMI2(t *testing.T) {
	t.Parallel()
	if HasBMI2() != GetCPUFeatures().BMI2 {
		t.Errorf("HasBMI2() = %v, but GetCPUFeatures().BMI2 = %v", HasBMI2(), GetCPUFeatures().BMI2)
	}
}

func TestHasADX(t *testing.T) {
	t.Parallel()
	if HasADX() != GetCPUFeatures().ADX {
		t.Errorf("HasADX() = %v, but GetCPUFeatures().ADX = %v", HasADX(), GetCPUFeatures().ADX)
	}
}

func TestCPUFeaturesString(t *testing.T) {
	t.Parallel()
	features := GetCPUFeatures()
	str := features.String()
	if !strings.HasPrefix(str, runtime.GOARCH+" [") {
		t.Errorf("CPUFeatures.String() = %q, want prefix %q", str, runtime.GOARCH)
	}
	t.Logf("CPU Features string: %s", str)

	if got := (CPUFeatures{Arch: "test"}).String(); got != "test [generic]" {
		t.Errorf("empty features String() = %q", got)
	}
	if got := (CPUFeatures{Arch: "amd64", AVX2: true, ADX: true}).String(); got != "amd64 [AVX2 ADX]" {
		t.Errorf("String() = %q", got)
	}
}
