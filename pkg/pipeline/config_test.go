package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/umidedup-go/pkg/dedup"
	"github.com/scttfrdmn/umidedup-go/pkg/sorter"
)

func validConfig() *Config {
	cfg := NewConfig()
	cfg.Input = "in.sam"
	cfg.Output = "out.sam"
	cfg.Sorted = "sorted.sam"
	cfg.Whitelist = "umis.txt"
	return cfg
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, sorter.NameSamtools, cfg.Sorter)
	assert.Equal(t, "samtools", cfg.SamtoolsPath)
	assert.LessOrEqual(t, int64(cfg.SortBuffer), int64(8*sorter.GB))
	assert.GreaterOrEqual(t, cfg.SortBuffer, Size(MinSortBuffer))
	assert.Equal(t, dedup.DefaultOptions(), cfg.Dedup)
	assert.Error(t, cfg.Validate(), "paths have no defaults")
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing input", func(c *Config) { c.Input = "" }, `"input"`},
		{"missing output", func(c *Config) { c.Output = " " }, `"output"`},
		{"missing sorted", func(c *Config) { c.Sorted = "" }, `"sorted"`},
		{"missing umis", func(c *Config) { c.Whitelist = "" }, `"umis"`},
		{"output is input", func(c *Config) { c.Output = "./in.sam" }, "overwrite the input"},
		{"sorted is output", func(c *Config) { c.Sorted = "out.sam" }, "must differ"},
		{"remote sorted", func(c *Config) { c.Sorted = "s3://b/sorted.sam" }, "local path"},
		{"unknown sorter", func(c *Config) { c.Sorter = "picard" }, "unknown sorter"},
		{"negative threads", func(c *Config) { c.SamtoolsThreads = -1 }, "threads"},
		{"tiny buffer", func(c *Config) { c.SortBuffer = 512 * sorter.KB }, "below the 1M minimum"},
		{"unknown policy", func(c *Config) { c.Dedup.Unmapped = "rescue" }, "unmapped policy"},
		{"no separators", func(c *Config) { c.Dedup.UMISeparators = "" }, "separators"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg := validConfig()
	cfg.Sorter = "NATIVE"
	cfg.Dedup.Unmapped = "Drop"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, sorter.NameNative, cfg.Sorter)
	assert.Equal(t, dedup.UnmappedDrop, cfg.Dedup.Unmapped)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "umidedup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input: s3://runs/42/aligned.sam.zst
output: out.sam
sorted: /scratch/sorted.sam
umis: umis.txt
sorter: native
sort_buffer: 2G
dedup:
  unmapped: drop
  umi_separators: ":"
`), 0644))

	cfg := NewConfig()
	cfg.SamtoolsPath = "/opt/samtools"
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "s3://runs/42/aligned.sam.zst", cfg.Input)
	assert.Equal(t, "/scratch/sorted.sam", cfg.Sorted)
	assert.Equal(t, "native", cfg.Sorter)
	assert.Equal(t, Size(2*sorter.GB), cfg.SortBuffer)
	assert.Equal(t, dedup.UnmappedDrop, cfg.Dedup.Unmapped)
	assert.Equal(t, ":", cfg.Dedup.UMISeparators)
	assert.Equal(t, 1000000, cfg.Dedup.ProgressEvery, "keys absent from the file keep their value")
	assert.Equal(t, "/opt/samtools", cfg.SamtoolsPath)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	assert.Error(t, cfg.LoadFile(filepath.Join(dir, "missing.yaml")))

	typo := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(typo, []byte("imput: in.sam\n"), 0644))
	assert.Error(t, cfg.LoadFile(typo), "unknown keys are rejected")

	badSize := filepath.Join(dir, "size.yaml")
	require.NoError(t, os.WriteFile(badSize, []byte("sort_buffer: lots\n"), 0644))
	assert.Error(t, cfg.LoadFile(badSize))

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.NoError(t, cfg.LoadFile(empty))
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want Size
	}{
		{"1024", 1024},
		{"512K", 512 * sorter.KB},
		{"64m", 64 * sorter.MB},
		{"8G", 8 * sorter.GB},
		{" 2GB ", 2 * sorter.GB},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "G", "1.5G", "-1M", "12T"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestSizeString(t *testing.T) {
	assert.Equal(t, "8G", Size(8*sorter.GB).String())
	assert.Equal(t, "1536M", Size(1536*sorter.MB).String())
	assert.Equal(t, "4K", Size(4096).String())
	assert.Equal(t, "1000", Size(1000).String())
	assert.Equal(t, "0", Size(0).String())
}
