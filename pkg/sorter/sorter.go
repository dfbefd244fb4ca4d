// Package sorter groups SAM records by reference before deduplication.
package sorter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Sorter writes a copy of input to output with records grouped by reference
// (coordinate order). Headers are kept.
type Sorter interface {
	Sort(ctx context.Context, input, output string) error
}

// Sorter names accepted by New
const (
	NameSamtools = "samtools"
	NameNative   = "native"
)

// Names lists the sorters New can build
var Names = []string{NameSamtools, NameNative}

// Config selects and configures a sorter
type Config struct {
	Name string

	// samtools
	SamtoolsPath string
	Threads      int
	Stderr       io.Writer

	// native
	BufferSize int64
	TempDir    string

	Logger logrus.FieldLogger
}

// New creates the sorter named by cfg.Name
func New(cfg Config) (Sorter, error) {
	switch strings.ToLower(cfg.Name) {
	case NameSamtools, "":
		return &Samtools{
			Path:    cfg.SamtoolsPath,
			Threads: cfg.Threads,
			TempDir: cfg.TempDir,
			Stderr:  cfg.Stderr,
		}, nil
	case NameNative:
		return &Native{
			BufferSize: cfg.BufferSize,
			TempDir:    cfg.TempDir,
			Logger:     cfg.Logger,
		}, nil
	}
	return nil, fmt.Errorf("unknown sorter %q (want %s)", cfg.Name, strings.Join(Names, " or "))
}

// SortError reports a failed external sort
type SortError struct {
	Command  string
	ExitCode int // -1 when the process did not exit normally
	Stderr   string
	Err      error
}

func (e *SortError) Error() string {
	msg := fmt.Sprintf("sort command %q failed", e.Command)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" with exit status %d", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SortError) Unwrap() error {
	return e.Err
}
