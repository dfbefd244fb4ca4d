// Package pipeline runs a full deduplication: stage, sort, stream, publish.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/scttfrdmn/umidedup-go/pkg/dedup"
	"github.com/scttfrdmn/umidedup-go/pkg/sorter"
	"github.com/scttfrdmn/umidedup-go/pkg/storage"
)

// MinSortBuffer is the smallest accepted native sort buffer
const MinSortBuffer = 1 * sorter.MB

// Config holds everything one run needs
type Config struct {
	// Paths; all required. Input, Output and Whitelist may be s3:// URIs
	// and may end in .zst.
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Sorted    string `yaml:"sorted"`
	Whitelist string `yaml:"umis"`

	// Sorting
	Sorter          string `yaml:"sorter"` // samtools or native
	SamtoolsPath    string `yaml:"samtools"`
	SamtoolsThreads int    `yaml:"threads"`
	SortBuffer      Size   `yaml:"sort_buffer"`
	TempDir         string `yaml:"temp_dir"`

	// S3
	Region string `yaml:"region"`

	ShowProgress bool `yaml:"progress"`

	Dedup dedup.Options `yaml:"dedup"`

	Logger logrus.FieldLogger `yaml:"-"`
}

// NewConfig creates a Config with defaults
func NewConfig() *Config {
	return &Config{
		Sorter:          sorter.NameSamtools,
		SamtoolsPath:    "samtools",
		SamtoolsThreads: sorter.DefaultThreads(),
		SortBuffer:      Size(sorter.DefaultBufferSize()),
		TempDir:         os.TempDir(),
		Dedup:           dedup.DefaultOptions(),
	}
}

// LoadFile overlays settings from a YAML file. Keys absent from the file
// keep their current values; unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration and normalizes names
func (c *Config) Validate() error {
	for _, required := range []struct{ name, value string }{
		{"input", c.Input},
		{"output", c.Output},
		{"sorted", c.Sorted},
		{"umis", c.Whitelist},
	} {
		if strings.TrimSpace(required.value) == "" {
			return fmt.Errorf("missing required setting %q", required.name)
		}
	}

	if samePath(c.Input, c.Output) {
		return fmt.Errorf("output %s would overwrite the input", c.Output)
	}
	if samePath(c.Sorted, c.Input) || samePath(c.Sorted, c.Output) {
		return fmt.Errorf("sorted file %s must differ from input and output", c.Sorted)
	}
	if storage.IsS3URI(c.Sorted) {
		return fmt.Errorf("sorted file must be a local path, got %s", c.Sorted)
	}

	c.Sorter = strings.ToLower(c.Sorter)
	if !slices.Contains(sorter.Names, c.Sorter) {
		return fmt.Errorf("unknown sorter %q (want %s)", c.Sorter, strings.Join(sorter.Names, " or "))
	}
	if c.SamtoolsThreads < 0 {
		return fmt.Errorf("threads must not be negative")
	}
	if c.SortBuffer < MinSortBuffer {
		return fmt.Errorf("sort buffer %s is below the %s minimum", c.SortBuffer, Size(MinSortBuffer))
	}

	policy, err := dedup.ParseUnmappedPolicy(string(c.Dedup.Unmapped))
	if err != nil {
		return err
	}
	c.Dedup.Unmapped = policy
	if c.Dedup.UMISeparators == "" {
		return fmt.Errorf("UMI separators must not be empty")
	}
	if c.Dedup.ProgressEvery < 0 {
		return fmt.Errorf("progress interval must not be negative")
	}
	return nil
}

func samePath(a, b string) bool {
	if storage.IsS3URI(a) || storage.IsS3URI(b) {
		return a == b
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// SorterConfig derives the sorter settings
func (c *Config) SorterConfig() sorter.Config {
	return sorter.Config{
		Name:         c.Sorter,
		SamtoolsPath: c.SamtoolsPath,
		Threads:      c.SamtoolsThreads,
		Stderr:       os.Stderr,
		BufferSize:   int64(c.SortBuffer),
		TempDir:      c.TempDir,
		Logger:       c.logger(),
	}
}

func (c *Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

// Fields returns the settings worth logging at startup
func (c *Config) Fields() logrus.Fields {
	return logrus.Fields{
		"input":       c.Input,
		"output":      c.Output,
		"sorted":      c.Sorted,
		"umis":        c.Whitelist,
		"sorter":      c.Sorter,
		"sort_buffer": c.SortBuffer.String(),
		"unmapped":    c.Dedup.Unmapped,
	}
}
