package dedup

import "fmt"

// MalformedRecordError reports an alignment line that lacks the fields the
// deduplicator extracts.
type MalformedRecordError struct {
	Fields int    // Number of tab-separated fields found
	Reason string // What was wrong
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record (%d fields): %s", e.Fields, e.Reason)
}

// InvalidCigarError reports a CIGAR string that cannot be parsed.
// Callers skip the record; it is never fatal.
type InvalidCigarError struct {
	Cigar  string
	Reason string
}

func (e *InvalidCigarError) Error() string {
	return fmt.Sprintf("invalid CIGAR %q: %s", e.Cigar, e.Reason)
}
