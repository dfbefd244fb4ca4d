package sorter

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpillRoundTrip(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{Rank: 0, Pos: 10, Seq: 0, Line: "a\n"},
		{Rank: 0, Pos: 20, Seq: 3, Line: "b\r\n"},
		{Rank: unmappedRank, Pos: 0, Seq: 1, Line: "c\n"},
	}

	sw, err := NewSpillWriter(dir, 7)
	require.NoError(t, err)
	for i := range entries {
		require.NoError(t, sw.Write(&entries[i]))
	}
	spill, err := sw.Close()
	require.NoError(t, err)
	assert.Equal(t, 3, spill.Entries)
	assert.Positive(t, spill.SizeBytes)
	assert.Contains(t, spill.Path, "spill-0007")

	sr, err := NewSpillReader(spill.Path)
	require.NoError(t, err)
	defer sr.Close()

	for _, want := range entries {
		got, err := sr.Next()
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	}
	_, err = sr.Next()
	assert.Equal(t, io.EOF, err)
}

func TestKWayMergeIsStable(t *testing.T) {
	a := &memorySource{entries: []Entry{
		{Rank: 0, Pos: 5, Seq: 0, Line: "a0"},
		{Rank: 0, Pos: 5, Seq: 4, Line: "a4"},
		{Rank: 1, Pos: 1, Seq: 1, Line: "a1"},
	}}
	b := &memorySource{entries: []Entry{
		{Rank: 0, Pos: 5, Seq: 2, Line: "b2"},
		{Rank: 0, Pos: 9, Seq: 3, Line: "b3"},
	}}
	empty := &memorySource{}

	var got []string
	err := kWayMerge([]source{a, empty, b}, func(e *Entry) error {
		got = append(got, e.Line)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a0", "b2", "a4", "b3", "a1"}, got)
}

func TestKWayMergeStopsOnEmitError(t *testing.T) {
	src := &memorySource{entries: []Entry{{Line: "x"}, {Line: "y"}}}
	err := kWayMerge([]source{src}, func(*Entry) error { return io.ErrShortWrite })
	assert.ErrorIs(t, err, io.ErrShortWrite)
}
