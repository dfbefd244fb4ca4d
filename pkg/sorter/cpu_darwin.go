//go:build darwin

package sorter

import (
	"runtime"
	"syscall"
)

// detectCores returns the performance core count on Apple Silicon
func detectCores() int {
	for _, name := range []string{"hw.perflevel0.physicalcpu", "hw.physicalcpu"} {
		if n := sysctlInt(name); n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

// sysctlInt decodes the little-endian integer syscall.Sysctl returns as raw bytes
func sysctlInt(name string) int {
	raw, err := syscall.Sysctl(name)
	if err != nil || len(raw) == 0 {
		return 0
	}
	n := int(raw[0])
	if len(raw) > 1 {
		n |= int(raw[1]) << 8
	}
	return n
}
