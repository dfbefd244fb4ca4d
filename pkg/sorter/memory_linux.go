//go:build linux

package sorter

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// detectSystemMemory reads total and available memory from /proc/meminfo
func detectSystemMemory() (total int64, available int64) {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer file.Close()

	var memFree, buffers, cached int64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}

		// values are in kB
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			total = value * KB
		case "MemAvailable":
			available = value * KB
		case "MemFree":
			memFree = value * KB
		case "Buffers":
			buffers = value * KB
		case "Cached":
			cached = value * KB
		}
	}

	// Kernels before 3.14 have no MemAvailable
	if total > 0 && available == 0 {
		available = memFree + buffers + cached
	}
	return total, available
}
