package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/umidedup-go/pkg/dedup"
	"github.com/scttfrdmn/umidedup-go/pkg/sorter"
)

// copySorter stands in for samtools with already grouped fixtures
type copySorter struct {
	calls int
	err   error
}

func (c *copySorter) Sort(_ context.Context, input, output string) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	return os.WriteFile(output, data, 0644)
}

func samLine(name string, flag int, ref string, pos int, cigar string) string {
	return strings.Join([]string{
		name, strconv.Itoa(flag), ref, strconv.Itoa(pos), "60", cigar, "*", "0", "0", "ACGTACGTAC", "IIIIIIIIII",
	}, "\t") + "\n"
}

const header = "@HD\tVN:1.6\tSO:coordinate\n@SQ\tSN:1\tLN:1000\n@SQ\tSN:2\tLN:1000\n"

type fixture struct {
	dir string
	cfg *Config
}

func newFixture(t *testing.T, input string) *fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	logger, _ := test.NewNullLogger()
	cfg := NewConfig()
	cfg.Input = write("in.sam", input)
	cfg.Whitelist = write("umis.txt", "AACGCCAT\nAAGGTACG\n")
	cfg.Sorted = filepath.Join(dir, "sorted.sam")
	cfg.Output = filepath.Join(dir, "out.sam")
	cfg.TempDir = dir
	cfg.Logger = logger
	return &fixture{dir: dir, cfg: cfg}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunRemovesDuplicates(t *testing.T) {
	keep1 := samLine("r1_AACGCCAT", 0, "1", 100, "10M")
	dup := samLine("r2_AACGCCAT", 0, "1", 103, "3S7M")
	bad := samLine("r3_TTTTTTTT", 0, "1", 200, "10M")
	keep2 := samLine("r4_AAGGTACG", 16, "2", 100, "10M")
	f := newFixture(t, header+keep1+dup+bad+keep2)

	s := &copySorter{}
	summary, err := Run(context.Background(), f.cfg, s)
	require.NoError(t, err)
	assert.Equal(t, 1, s.calls)

	assert.Equal(t, header+keep1+keep2, readFile(t, f.cfg.Output))
	assert.Equal(t, 2, summary.WhitelistSize)
	c := summary.Counters
	assert.Equal(t, 4, c.Total)
	assert.Equal(t, 2, c.Unique)
	assert.Equal(t, 1, c.Duplicates())
	assert.Equal(t, 1, c.InvalidUMI)
	assert.Equal(t, []dedup.ChromosomeCount{{Reference: "1", Retained: 1}, {Reference: "2", Retained: 1}}, c.Chromosomes())
}

func TestRunNativeSorter(t *testing.T) {
	// Unsorted: the duplicate on chromosome 1 is separated by a chromosome 2 read.
	a := samLine("r1_AACGCCAT", 0, "1", 100, "10M")
	b := samLine("r2_AACGCCAT", 0, "2", 100, "10M")
	c := samLine("r3_AACGCCAT", 0, "1", 100, "10M")
	f := newFixture(t, header+a+b+c)
	f.cfg.Sorter = sorter.NameNative

	s, err := sorter.New(f.cfg.SorterConfig())
	require.NoError(t, err)
	summary, err := Run(context.Background(), f.cfg, s)
	require.NoError(t, err)

	assert.Equal(t, header+a+b, readFile(t, f.cfg.Output))
	assert.Equal(t, 1, summary.Counters.Duplicates())
	assert.FileExists(t, f.cfg.Sorted)
}

func TestRunSortFailureLeavesNoOutput(t *testing.T) {
	f := newFixture(t, header+samLine("r1_AACGCCAT", 0, "1", 100, "10M"))
	sortErr := &sorter.SortError{Command: "samtools sort", ExitCode: 1, Stderr: "truncated"}

	_, err := Run(context.Background(), f.cfg, &copySorter{err: sortErr})
	require.Error(t, err)

	var got *sorter.SortError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 1, got.ExitCode)
	assert.NoFileExists(t, f.cfg.Output)

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "no temporary output is left")
	}
}

func TestRunMissingWhitelist(t *testing.T) {
	f := newFixture(t, header)
	f.cfg.Whitelist = filepath.Join(f.dir, "missing.txt")

	s := &copySorter{}
	_, err := Run(context.Background(), f.cfg, s)
	require.Error(t, err)
	assert.Equal(t, 0, s.calls, "nothing is sorted when the UMI list is unreadable")
}

func TestRunInvalidConfig(t *testing.T) {
	f := newFixture(t, header)
	f.cfg.Output = f.cfg.Input

	s := &copySorter{}
	_, err := Run(context.Background(), f.cfg, s)
	assert.ErrorContains(t, err, "overwrite the input")
	assert.Equal(t, 0, s.calls)
}

func TestRunCompressedPaths(t *testing.T) {
	rec := samLine("r1_AACGCCAT", 0, "1", 100, "10M")
	f := newFixture(t, "")

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	packed := enc.EncodeAll([]byte(header+rec+rec), nil)
	enc.Close()
	f.cfg.Input = filepath.Join(f.dir, "in.sam.zst")
	require.NoError(t, os.WriteFile(f.cfg.Input, packed, 0644))
	f.cfg.Output = filepath.Join(f.dir, "out.sam.zst")

	_, err = Run(context.Background(), f.cfg, &copySorter{})
	require.NoError(t, err)

	out, err := os.Open(f.cfg.Output)
	require.NoError(t, err)
	defer out.Close()
	dec, err := zstd.NewReader(out)
	require.NoError(t, err)
	defer dec.Close()
	data, err := io.ReadAll(dec)
	require.NoError(t, err)
	assert.Equal(t, header+rec, string(data))

	assert.Equal(t, header+rec+rec, readFile(t, f.cfg.Sorted), "the sorter sees a decompressed copy")
}
