//go:build !darwin && !linux

package sorter

import "runtime"

func detectCores() int {
	return runtime.NumCPU()
}
