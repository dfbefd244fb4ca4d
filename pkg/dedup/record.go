package dedup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
)

// MinFields is the number of mandatory SAM columns
const MinFields = 11

// HeaderPrefix marks SAM header lines
const HeaderPrefix = "@"

// DefaultUMISeparators are the bytes that may precede the UMI in a read name
const DefaultUMISeparators = ":_"

// Strand is the orientation of an alignment relative to the reference
type Strand uint8

const (
	Forward Strand = iota
	Reverse
)

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// AlignmentRecord holds the fields of one SAM line used for deduplication.
// Line is the original text including its terminator and is written back
// untouched.
type AlignmentRecord struct {
	UMI       string
	Flags     sam.Flags
	Reference string
	Pos       int // 1-based leftmost mapped position
	Cigar     string
	Strand    Strand
	Line      string
}

// IsUnmapped reports whether the record has no usable alignment
func (r *AlignmentRecord) IsUnmapped() bool {
	return r.Flags&sam.Unmapped != 0 || r.Reference == "*"
}

// IsHeader reports whether line is a SAM header line
func IsHeader(line string) bool {
	return strings.HasPrefix(line, HeaderPrefix)
}

// ParseRecord parses one non-header SAM line. separators lists the bytes
// that may precede the UMI in QNAME; the UMI is whatever follows the last
// of them.
func ParseRecord(line string, separators string) (AlignmentRecord, error) {
	text := strings.TrimRight(line, "\r\n")
	fields := strings.Split(text, "\t")
	if len(fields) < MinFields {
		return AlignmentRecord{}, &MalformedRecordError{
			Fields: len(fields),
			Reason: fmt.Sprintf("expected at least %d fields", MinFields),
		}
	}

	flag, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return AlignmentRecord{}, &MalformedRecordError{
			Fields: len(fields),
			Reason: fmt.Sprintf("invalid FLAG %q", fields[1]),
		}
	}

	pos, err := strconv.Atoi(fields[3])
	if err != nil {
		return AlignmentRecord{}, &MalformedRecordError{
			Fields: len(fields),
			Reason: fmt.Sprintf("invalid POS %q", fields[3]),
		}
	}

	rec := AlignmentRecord{
		UMI:       extractUMI(fields[0], separators),
		Flags:     sam.Flags(flag),
		Reference: fields[2],
		Pos:       pos,
		Cigar:     fields[5],
		Strand:    Forward,
		Line:      line,
	}
	if rec.Flags&sam.Reverse != 0 {
		rec.Strand = Reverse
	}
	return rec, nil
}

func extractUMI(name string, separators string) string {
	if separators == "" {
		separators = DefaultUMISeparators
	}
	return name[strings.LastIndexAny(name, separators)+1:]
}

// referenceOf returns the RNAME column of a record line without a full parse
func referenceOf(line string) (string, bool) {
	first := strings.IndexByte(line, '\t')
	if first < 0 {
		return "", false
	}
	rest := line[first+1:]
	second := strings.IndexByte(rest, '\t')
	if second < 0 {
		return "", false
	}
	rest = rest[second+1:]
	third := strings.IndexByte(rest, '\t')
	if third < 0 {
		return "", false
	}
	return rest[:third], true
}
