package arith

import (
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sys/cpu"
)

// CPUFeatures describes the instruction set extensions that matter to the
// multi-precision kernels of math/big.
type CPUFeatures struct {
	Arch   string
	AVX2   bool
	AVX512 bool
	BMI2   bool
	ADX    bool
	ASIMD  bool
	// PureGo reports whether the portable kernels were selected at build time.
	PureGo bool
}

var (
	cpuFeatures     CPUFeatures
	cpuFeaturesOnce sync.Once
)

// GetCPUFeatures returns the detected CPU features. Detection runs once.
func GetCPUFeatures() CPUFeatures {
	cpuFeaturesOnce.Do(func() {
		cpuFeatures = CPUFeatures{
			Arch:   runtime.GOARCH,
			AVX2:   cpu.X86.HasAVX2,
			AVX512: cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW,
			BMI2:   cpu.X86.HasBMI2,
			ADX:    cpu.X86.HasADX,
			ASIMD:  cpu.ARM64.HasASIMD,
			PureGo: pureGo,
		}
	})
	return cpuFeatures
}

// HasBMI2 reports whether MULX is available.
func HasBMI2() bool { return GetCPUFeatures().BMI2 }

// HasADX reports whether ADCX/ADOX are available.
func HasADX() bool { return GetCPUFeatures().ADX }

// String returns a compact, human-readable summary such as
// "amd64 [AVX2 BMI2 ADX]".
func (f CPUFeatures) String() string {
	var names []string
	if f.AVX2 {
		names = append(names, "AVX2")
	}
	if f.AVX512 {
		names = append(names, "AVX512")
	}
	if f.BMI2 {
		names = append(names, "BMI2")
	}
	if f.ADX {
		names = append(names, "ADX")
	}
	if f.ASIMD {
		names = append(names, "ASIMD")
	}
	if f.PureGo {
		names = append(names, "purego")
	}
	if len(names) == 0 {
		return f.Arch + " [generic]"
	}
	return f.Arch + " [" + strings.Join(names, " ") + "]"
}
