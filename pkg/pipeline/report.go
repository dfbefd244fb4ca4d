package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// PrintSummary writes the end-of-run report
func PrintSummary(w io.Writer, s *Summary) {
	heading := color.New(color.FgCyan, color.Bold).SprintFunc()
	label := color.New(color.FgHiBlack).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	c := s.Counters

	fmt.Fprintf(w, "%s\n", heading("=== Deduplication Summary ==="))
	fmt.Fprintf(w, "%s %s\n", label("Input:  "), s.Input)
	fmt.Fprintf(w, "%s %s\n", label("Sorted: "), s.Sorted)
	fmt.Fprintf(w, "%s %s\n", label("Output: "), s.Output)
	fmt.Fprintf(w, "%s %d\n", label("UMIs:   "), s.WhitelistSize)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Header lines:\t%d\n", c.Headers)
	fmt.Fprintf(w, "Total records:\t%d\n", c.Total)
	fmt.Fprintf(w, "Unique reads:\t%d\n", c.Unique)
	fmt.Fprintf(w, "Duplicates removed:\t%d\n", c.Duplicates())
	fmt.Fprintf(w, "Invalid UMIs:\t%d\n", c.InvalidUMI)
	if c.Unmapped > 0 {
		fmt.Fprintf(w, "Unmapped records:\t%d\n", c.Unmapped)
	}
	if c.Malformed > 0 {
		fmt.Fprintf(w, "%s\t%d\n", warn("Malformed records:"), c.Malformed)
	}
	if c.InvalidCigar > 0 {
		fmt.Fprintf(w, "%s\t%d\n", warn("Invalid CIGAR:"), c.InvalidCigar)
	}
	fmt.Fprintf(w, "Peak window size:\t%d\n", c.PeakWindow)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", heading("Reads retained per chromosome"))
	for _, chrom := range c.Chromosomes() {
		fmt.Fprintf(w, "%s\t%d\n", chrom.Reference, chrom.Retained)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s %s (sort %s)\n", label("Elapsed:"), formatDuration(s.Elapsed), formatDuration(s.SortElapsed))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
