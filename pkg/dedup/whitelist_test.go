package dedup

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWhitelist(t *testing.T) {
	in := "AACGCCAT\nAAGGTACG  \r\nAATTCCGG\t\n\n\nACACAGAG"
	w, err := LoadWhitelist(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 4, w.Len())
	for _, umi := range []string{"AACGCCAT", "AAGGTACG", "AATTCCGG", "ACACAGAG"} {
		assert.True(t, w.Contains(umi), umi)
	}
	assert.False(t, w.Contains(""))
	assert.False(t, w.Contains("aacgccat"), "matching is case-sensitive")
	assert.False(t, w.Contains("AACGCCA"))
	assert.False(t, w.Contains("AAGGTACG  "))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLoadWhitelistReadError(t *testing.T) {
	_, err := LoadWhitelist(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestNewWhitelist(t *testing.T) {
	w := NewWhitelist("AAA", "CCC", "AAA")
	assert.Equal(t, 2, w.Len())
	assert.True(t, w.Contains("CCC"))
	assert.False(t, w.Contains("GGG"))
}
