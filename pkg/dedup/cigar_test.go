package dedup

import (
	"errors"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCigar(t *testing.T) {
	tests := []struct {
		cigar string
		want  sam.Cigar
	}{
		{"71M", sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 71)}},
		{"5S10M", sam.Cigar{
			sam.NewCigarOp(sam.CigarSoftClipped, 5),
			sam.NewCigarOp(sam.CigarMatch, 10),
		}},
		{"2H3S4M1I2D500N3=1X2P6S", sam.Cigar{
			sam.NewCigarOp(sam.CigarHardClipped, 2),
			sam.NewCigarOp(sam.CigarSoftClipped, 3),
			sam.NewCigarOp(sam.CigarMatch, 4),
			sam.NewCigarOp(sam.CigarInsertion, 1),
			sam.NewCigarOp(sam.CigarDeletion, 2),
			sam.NewCigarOp(sam.CigarSkipped, 500),
			sam.NewCigarOp(sam.CigarEqual, 3),
			sam.NewCigarOp(sam.CigarMismatch, 1),
			sam.NewCigarOp(sam.CigarPadded, 2),
			sam.NewCigarOp(sam.CigarSoftClipped, 6),
		}},
	}

	for _, test := range tests {
		got, err := ParseCigar(test.cigar)
		require.NoError(t, err, test.cigar)
		assert.Equal(t, test.want, got, test.cigar)
		assert.Equal(t, test.cigar, got.String())
	}
}

func TestParseCigarInvalid(t *testing.T) {
	for _, cigar := range []string{
		"",
		"*",
		"M",
		"10",
		"10M5",
		"10Q",
		"10M-5S",
		"5S10MM",
		"1B10M",
		"99999999999M",
		"10m",
	} {
		_, err := ParseCigar(cigar)
		require.Error(t, err, "cigar %q", cigar)

		var cigarErr *InvalidCigarError
		require.True(t, errors.As(err, &cigarErr), "cigar %q: got %T", cigar, err)
		assert.Equal(t, cigar, cigarErr.Cigar)
	}
}

func TestFivePrimePosition(t *testing.T) {
	tests := []struct {
		cigar  string
		pos    int
		strand Strand
		want   int
	}{
		// Forward reads
		{"10M", 100, Forward, 100},
		{"5S10M", 100, Forward, 95},
		{"10M5S", 100, Forward, 100},
		{"3H5S10M", 100, Forward, 95},
		{"3H10M", 100, Forward, 100},
		{"2S5M100N5M3S", 100, Forward, 98},
		{"5S2I10M", 100, Forward, 95},

		// Reverse reads
		{"10M", 100, Reverse, 109},
		{"10M5S", 100, Reverse, 114},
		{"5S10M", 100, Reverse, 109},
		{"10M5S3H", 100, Reverse, 114},
		{"5M2I5M", 100, Reverse, 109},
		{"5M2D5M", 100, Reverse, 111},
		{"5M100N5M", 100, Reverse, 209},
		{"5=1X4M2S", 100, Reverse, 111},
		{"2S5M1P5M", 100, Reverse, 109},
		{"10M5H", 100, Reverse, 109},
	}

	for _, test := range tests {
		cigar, err := ParseCigar(test.cigar)
		require.NoError(t, err, test.cigar)
		assert.Equal(t, test.want, FivePrimePosition(test.pos, cigar, test.strand),
			"%s at %d on %s strand", test.cigar, test.pos, test.strand)
	}
}

func TestAdjustedPosition(t *testing.T) {
	rec, err := ParseRecord(samLine("r_AAA", 16, "1", 100, "10M5S"), DefaultUMISeparators)
	require.NoError(t, err)
	pos, err := AdjustedPosition(&rec)
	require.NoError(t, err)
	assert.Equal(t, 114, pos)

	rec.Cigar = "10Z"
	_, err = AdjustedPosition(&rec)
	var cigarErr *InvalidCigarError
	assert.True(t, errors.As(err, &cigarErr))
}
