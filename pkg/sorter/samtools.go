package sorter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Samtools sorts with an external `samtools sort` process
type Samtools struct {
	Path    string // executable, "samtools" on PATH when empty
	Threads int    // extra sort threads passed as -@, 0 for none
	TempDir string // directory for samtools temporary files
	Stderr  io.Writer
}

func (s *Samtools) command() string {
	if s.Path == "" {
		return "samtools"
	}
	return s.Path
}

// Args returns the samtools arguments used to sort input into output.
// tmpPrefix is passed as -T when set.
func (s *Samtools) Args(input, output, tmpPrefix string) []string {
	args := []string{"sort", "-O", "SAM"}
	if s.Threads > 0 {
		args = append(args, "-@", strconv.Itoa(s.Threads))
	}
	if tmpPrefix != "" {
		args = append(args, "-T", tmpPrefix)
	}
	return append(args, "-o", output, input)
}

// runDir creates a private directory under TempDir for one sort's temporary
// files, so runs sharing TempDir never see each other's chunks.
func (s *Samtools) runDir() (string, func(), error) {
	if s.TempDir == "" {
		return "", func() {}, nil
	}
	dir, err := os.MkdirTemp(s.TempDir, "umidedup-sort-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create sort temp dir: %w", err)
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

// Sort blocks until samtools exits. A failed run removes any partial output.
func (s *Samtools) Sort(ctx context.Context, input, output string) error {
	dir, cleanup, err := s.runDir()
	if err != nil {
		return err
	}
	defer cleanup()

	var prefix string
	if dir != "" {
		prefix = filepath.Join(dir, "chunk")
	}
	args := s.Args(input, output, prefix)
	cmd := exec.CommandContext(ctx, s.command(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if s.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, s.Stderr)
	}

	if err := cmd.Run(); err != nil {
		os.Remove(output)

		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &SortError{
			Command:  s.command() + " " + strings.Join(args, " "),
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return nil
}
