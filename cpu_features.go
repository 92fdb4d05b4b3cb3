package lsmc

import (
	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks available CPU instruction set extensions
type CPUFeatures struct {
	HasAVX      bool
	HasAVX2     bool
	HasAVX512F  bool // Foundation
	HasAVX512DQ bool // Double/Quad precision
	HasFMA      bool
	HasSSE4     bool
}

// Global CPU feature detection
var cpuFeatures CPUFeatures

func init() {
	detectCPUFeatures()
}

// detectCPUFeatures populates the global cpuFeatures struct
func detectCPUFeatures() {
	cpuFeatures = CPUFeatures{
		HasSSE4:     cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:      cpu.X86.HasAVX,
		HasAVX2:     cpu.X86.HasAVX2,
		HasAVX512F:  cpu.X86.HasAVX512F,
		HasAVX512DQ: cpu.X86.HasAVX512DQ,
		HasFMA:      cpu.X86.HasFMA,
	}
}

// Features returns the detected CPU feature set.
func Features() CPUFeatures {
	return cpuFeatures
}

// String returns a short description of the most capable vector
// extension available, for the benchmark parameter echo.
func (f CPUFeatures) String() string {
	switch {
	case f.HasAVX512F && f.HasAVX512DQ:
		return "AVX-512"
	case f.HasAVX2 && f.HasFMA:
		return "AVX2+FMA"
	case f.HasAVX:
		return "AVX"
	case f.HasSSE4:
		return "SSE4"
	default:
		return "scalar"
	}
}
