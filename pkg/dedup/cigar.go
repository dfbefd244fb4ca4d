package dedup

import (
	"fmt"
	"strconv"

	"github.com/biogo/hts/sam"
)

// maxCigarOpLen is the largest length a biogo CigarOp can encode
const maxCigarOpLen = 1<<28 - 1

var cigarOpTypes = map[byte]sam.CigarOpType{
	'M': sam.CigarMatch,
	'I': sam.CigarInsertion,
	'D': sam.CigarDeletion,
	'N': sam.CigarSkipped,
	'S': sam.CigarSoftClipped,
	'H': sam.CigarHardClipped,
	'P': sam.CigarPadded,
	'=': sam.CigarEqual,
	'X': sam.CigarMismatch,
}

// ParseCigar parses a CIGAR string strictly. Every operation must carry an
// explicit decimal length and one of MIDNSHP=X. An absent CIGAR ("" or "*")
// is an error because a mapped record needs one.
func ParseCigar(s string) (sam.Cigar, error) {
	if s == "" || s == "*" {
		return nil, &InvalidCigarError{Cigar: s, Reason: "missing CIGAR"}
	}

	var cigar sam.Cigar
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if i == start {
			return nil, &InvalidCigarError{Cigar: s, Reason: fmt.Sprintf("operation %q at offset %d has no length", c, i)}
		}
		op, ok := cigarOpTypes[c]
		if !ok {
			return nil, &InvalidCigarError{Cigar: s, Reason: fmt.Sprintf("unknown operation %q at offset %d", c, i)}
		}
		n, err := strconv.Atoi(s[start:i])
		if err != nil || n > maxCigarOpLen {
			return nil, &InvalidCigarError{Cigar: s, Reason: fmt.Sprintf("invalid length %q", s[start:i])}
		}
		cigar = append(cigar, sam.NewCigarOp(op, n))
		start = i + 1
	}
	if start != len(s) {
		return nil, &InvalidCigarError{Cigar: s, Reason: fmt.Sprintf("trailing length %q without operation", s[start:])}
	}
	return cigar, nil
}

// FivePrimePosition returns the 1-based reference coordinate of the 5' end
// of the sequenced fragment, undoing soft clipping. For forward reads that
// is the leftmost position minus the leading soft clip. For reverse reads
// it is the rightmost reference base plus the trailing soft clip.
func FivePrimePosition(pos int, cigar sam.Cigar, strand Strand) int {
	if strand == Forward {
		return pos - leadingSoftClip(cigar)
	}
	ref, _ := cigar.Lengths()
	return pos + ref + trailingSoftClip(cigar) - 1
}

// AdjustedPosition parses the record's CIGAR and returns its 5' position.
func AdjustedPosition(rec *AlignmentRecord) (int, error) {
	cigar, err := ParseCigar(rec.Cigar)
	if err != nil {
		return 0, err
	}
	return FivePrimePosition(rec.Pos, cigar, rec.Strand), nil
}

func leadingSoftClip(cigar sam.Cigar) int {
	for _, co := range cigar {
		switch co.Type() {
		case sam.CigarHardClipped:
			continue
		case sam.CigarSoftClipped:
			return co.Len()
		}
		break
	}
	return 0
}

func trailingSoftClip(cigar sam.Cigar) int {
	for i := len(cigar) - 1; i >= 0; i-- {
		switch cigar[i].Type() {
		case sam.CigarHardClipped:
			continue
		case sam.CigarSoftClipped:
			return cigar[i].Len()
		}
		break
	}
	return 0
}
