package sorter

// Size units
const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

// SystemMemory holds system memory information
type SystemMemory struct {
	Total     int64
	Available int64
}

// GetSystemMemory returns the detected memory, or 16G/12G when the platform
// gives no answer.
func GetSystemMemory() SystemMemory {
	total, available := detectSystemMemory()
	if total == 0 {
		total = 16 * GB
		available = 12 * GB
	}
	return SystemMemory{Total: total, Available: available}
}

// DefaultBufferSize is the in-memory sort buffer: min(8G, 25% of RAM)
func DefaultBufferSize() int64 {
	return min(8*GB, GetSystemMemory().Total/4)
}

// DefaultThreads is the number of extra samtools sort threads: one per
// detected core beyond the first.
func DefaultThreads() int {
	return max(detectCores()-1, 0)
}
