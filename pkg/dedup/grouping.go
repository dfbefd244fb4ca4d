package dedup

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// GroupingViolation is a reference whose records are split into more than
// one contiguous run.
type GroupingViolation struct {
	Reference string
	Line      int // first line of the repeated run
	After     string
}

// GroupingReport describes how records in a SAM stream are grouped
type GroupingReport struct {
	Records    int
	Groups     int
	Violations []GroupingViolation
}

// Grouped reports whether every reference forms a single contiguous run
func (g *GroupingReport) Grouped() bool {
	return len(g.Violations) == 0
}

// CheckGrouping verifies the precondition the Window relies on: records of
// one reference are contiguous. Lines without an RNAME column are skipped.
func CheckGrouping(r io.Reader) (*GroupingReport, error) {
	report := &GroupingReport{}
	closed := make(map[string]bool)
	var current string
	started := false

	reader := bufio.NewReaderSize(r, 1<<20)
	lineNum := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read line %d: %w", lineNum+1, err)
		}
		if line != "" {
			lineNum++
			if !IsHeader(line) && strings.TrimRight(line, "\r\n") != "" {
				if ref, ok := referenceOf(line); ok {
					report.Records++
					if !started || ref != current {
						if closed[ref] {
							report.Violations = append(report.Violations, GroupingViolation{
								Reference: ref,
								Line:      lineNum,
								After:     current,
							})
						}
						if started {
							closed[current] = true
						}
						current = ref
						started = true
						report.Groups++
					}
				}
			}
		}
		if err == io.EOF {
			break
		}
	}
	return report, nil
}
