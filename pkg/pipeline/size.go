package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scttfrdmn/umidedup-go/pkg/sorter"
)

// Size is a byte count written as "512K", "64M" or "2G" in flags and files
type Size int64

// ParseSize parses a size string (e.g., "8G", "512M") to bytes
func ParseSize(sizeStr string) (Size, error) {
	s := strings.ToUpper(strings.TrimSpace(sizeStr))
	s = strings.TrimSuffix(s, "B")

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = sorter.KB
	case strings.HasSuffix(s, "M"):
		multiplier = sorter.MB
	case strings.HasSuffix(s, "G"):
		multiplier = sorter.GB
	}
	if multiplier > 1 {
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid size: %q", sizeStr)
	}
	return Size(value * multiplier), nil
}

// String formats the size with the largest unit that divides it
func (s Size) String() string {
	switch {
	case s == 0:
		return "0"
	case s%sorter.GB == 0:
		return fmt.Sprintf("%dG", int64(s/sorter.GB))
	case s%sorter.MB == 0:
		return fmt.Sprintf("%dM", int64(s/sorter.MB))
	case s%sorter.KB == 0:
		return fmt.Sprintf("%dK", int64(s/sorter.KB))
	}
	return strconv.FormatInt(int64(s), 10)
}

// Set implements pflag.Value
func (s *Size) Set(v string) error {
	parsed, err := ParseSize(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value
func (s *Size) Type() string {
	return "size"
}

// UnmarshalYAML accepts both "2G" and plain byte counts
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", node.Line)
	}
	return s.Set(node.Value)
}
