package dedup

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Whitelist is the set of known UMIs. It is read-only once loaded and safe
// for concurrent readers.
type Whitelist struct {
	umis map[string]struct{}
}

// NewWhitelist builds a whitelist from the given UMIs
func NewWhitelist(umis ...string) *Whitelist {
	w := &Whitelist{umis: make(map[string]struct{}, len(umis))}
	for _, umi := range umis {
		w.umis[umi] = struct{}{}
	}
	return w
}

// LoadWhitelist reads one UMI per line. Trailing whitespace is stripped and
// blank lines are ignored.
func LoadWhitelist(r io.Reader) (*Whitelist, error) {
	w := &Whitelist{umis: make(map[string]struct{})}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		umi := strings.TrimRight(scanner.Text(), " \t\r\n")
		if umi == "" {
			continue
		}
		w.umis[umi] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read UMI list: %w", err)
	}
	return w, nil
}

// Contains reports whether umi is known. Matching is exact and case-sensitive.
func (w *Whitelist) Contains(umi string) bool {
	_, ok := w.umis[umi]
	return ok
}

// Len returns the number of known UMIs
func (w *Whitelist) Len() int {
	return len(w.umis)
}
