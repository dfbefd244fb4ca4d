//go:build darwin

package sorter

import (
	"encoding/binary"
	"syscall"
)

// detectSystemMemory asks sysctl for hw.memsize. Available memory is not
// exposed there, so three quarters of the total is assumed.
func detectSystemMemory() (total int64, available int64) {
	raw, err := syscall.Sysctl("hw.memsize")
	if err != nil {
		return 0, 0
	}

	// Sysctl drops the trailing zero byte of the little-endian uint64
	buf := make([]byte, 8)
	copy(buf, raw)
	total = int64(binary.LittleEndian.Uint64(buf))
	return total, total * 3 / 4
}
