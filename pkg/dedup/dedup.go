package dedup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// UnmappedPolicy decides what happens to unmapped records with a known UMI.
// They never take part in duplicate detection.
type UnmappedPolicy string

const (
	UnmappedKeep UnmappedPolicy = "keep" // write unconditionally
	UnmappedDrop UnmappedPolicy = "drop" // leave out of the output
)

// ParseUnmappedPolicy validates a policy name
func ParseUnmappedPolicy(s string) (UnmappedPolicy, error) {
	switch p := UnmappedPolicy(strings.ToLower(s)); p {
	case UnmappedKeep, UnmappedDrop:
		return p, nil
	}
	return "", fmt.Errorf("unknown unmapped policy %q (want keep or drop)", s)
}

// Options configures a Deduplicator
type Options struct {
	UMISeparators string         `yaml:"umi_separators"`
	Unmapped      UnmappedPolicy `yaml:"unmapped"`
	ProgressEvery int            `yaml:"progress_every"` // records between progress logs, 0 disables

	Logger logrus.FieldLogger `yaml:"-"`
}

// DefaultOptions returns the options used by the CLI when nothing is set
func DefaultOptions() Options {
	return Options{
		UMISeparators: DefaultUMISeparators,
		Unmapped:      UnmappedKeep,
		ProgressEvery: 1000000,
	}
}

// Deduplicator streams a reference-grouped SAM file and writes every header
// line plus the first record of each duplicate group.
type Deduplicator struct {
	whitelist *Whitelist
	opts      Options
	log       logrus.FieldLogger
}

// NewDeduplicator creates a deduplicator that accepts only UMIs in whitelist
func NewDeduplicator(whitelist *Whitelist, opts Options) *Deduplicator {
	if opts.UMISeparators == "" {
		opts.UMISeparators = DefaultUMISeparators
	}
	if opts.Unmapped == "" {
		opts.Unmapped = UnmappedKeep
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Deduplicator{
		whitelist: whitelist,
		opts:      opts,
		log:       log,
	}
}

// run is the state of one pass over the input
type run struct {
	window   *Window
	counters *RunCounters
	writer   *bufio.Writer
	start    time.Time
}

// Run reads r to the end and writes retained lines to w. Lines are copied
// byte for byte. Any read or write error aborts the run.
func (d *Deduplicator) Run(r io.Reader, w io.Writer) (*RunCounters, error) {
	reader := bufio.NewReaderSize(r, 1<<20)
	st := &run{
		window:   NewWindow(),
		counters: newRunCounters(),
		writer:   bufio.NewWriterSize(w, 1<<20),
		start:    time.Now(),
	}
	counters := st.counters

	lineNum := 0
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return counters, fmt.Errorf("failed to read input at line %d: %w", lineNum+1, readErr)
		}
		if line != "" {
			lineNum++
			if err := d.process(st, line, lineNum); err != nil {
				return counters, err
			}
		}
		if readErr == io.EOF {
			break
		}
	}

	if err := st.writer.Flush(); err != nil {
		return counters, fmt.Errorf("failed to flush output: %w", err)
	}
	counters.PeakWindow = st.window.Peak()

	d.log.WithFields(logrus.Fields{
		"records":   counters.Total,
		"unique":    counters.Unique,
		"resets":    st.window.Resets(),
		"peak_keys": st.window.Peak(),
		"elapsed":   time.Since(st.start).Round(time.Millisecond),
	}).Debug("deduplication pass finished")

	return counters, nil
}

func (d *Deduplicator) process(st *run, line string, lineNum int) error {
	if strings.TrimRight(line, "\r\n") == "" {
		return nil
	}

	counters := st.counters
	if IsHeader(line) {
		counters.Headers++
		return writeLine(st.writer, line, lineNum)
	}

	counters.Total++
	if d.opts.ProgressEvery > 0 && counters.Total%d.opts.ProgressEvery == 0 {
		d.logProgress(counters, st.start)
	}

	rec, err := ParseRecord(line, d.opts.UMISeparators)
	if err != nil {
		counters.Malformed++
		d.log.WithField("line", lineNum).Warnf("skipping record: %v", err)
		return nil
	}

	st.window.Observe(rec.Reference)
	counters.register(rec.Reference)

	if !d.whitelist.Contains(rec.UMI) {
		counters.InvalidUMI++
		return nil
	}

	if rec.IsUnmapped() {
		counters.Unmapped++
		if d.opts.Unmapped == UnmappedKeep {
			counters.keepUnmapped(rec.Reference)
			return writeLine(st.writer, line, lineNum)
		}
		return nil
	}

	pos, err := AdjustedPosition(&rec)
	if err != nil {
		var cigarErr *InvalidCigarError
		if errors.As(err, &cigarErr) {
			counters.InvalidCigar++
			d.log.WithField("line", lineNum).Warnf("skipping record: %v", err)
			return nil
		}
		return err
	}

	if st.window.Admit(NewDedupKey(&rec, pos)) == Drop {
		return nil
	}
	counters.retain(rec.Reference)
	return writeLine(st.writer, line, lineNum)
}

func (d *Deduplicator) logProgress(counters *RunCounters, start time.Time) {
	elapsed := time.Since(start)
	d.log.WithFields(logrus.Fields{
		"records":      counters.Total,
		"unique":       counters.Unique,
		"invalid_umis": counters.InvalidUMI,
		"rate":         fmt.Sprintf("%.1fK/s", float64(counters.Total)/elapsed.Seconds()/1000),
	}).Info("progress")
}

func writeLine(w *bufio.Writer, line string, lineNum int) error {
	if _, err := w.WriteString(line); err != nil {
		return fmt.Errorf("failed to write line %d: %w", lineNum, err)
	}
	return nil
}
