//go:build linux

package sorter

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// detectCores prefers performance cores on hybrid CPUs
func detectCores() int {
	if perf := detectPerfCoresLinux(); perf > 0 {
		return perf
	}
	return runtime.NumCPU()
}

// detectPerfCoresLinux counts physical cores clocked near the average
// frequency. It returns 0 unless that singles out a strict subset, which is
// the signature of a P-core/E-core split.
func detectPerfCoresLinux() int {
	file, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return 0
	}
	defer file.Close()

	maxFreq := make(map[int]float64) // core id -> highest MHz seen
	coreID := -1
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "processor":
			coreID = -1
		case "core id":
			if id, err := strconv.Atoi(value); err == nil {
				coreID = id
			}
		case "cpu MHz":
			freq, err := strconv.ParseFloat(value, 64)
			if err == nil && coreID >= 0 && freq > maxFreq[coreID] {
				maxFreq[coreID] = freq
			}
		}
	}

	if len(maxFreq) <= 2 {
		return 0
	}
	var sum float64
	for _, f := range maxFreq {
		sum += f
	}
	avg := sum / float64(len(maxFreq))

	perf := 0
	for _, f := range maxFreq {
		if f >= avg*0.9 {
			perf++
		}
	}
	if perf < len(maxFreq) {
		return perf
	}
	return 0
}
