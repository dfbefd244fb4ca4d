package dedup

import "fmt"

// DedupKey identifies a group of PCR duplicates. Two records with equal keys
// come from the same original molecule; the first one seen is kept.
type DedupKey struct {
	UMI       string
	Reference string
	Position  int // 5' position after clip adjustment
	Strand    Strand
}

// NewDedupKey builds the key for a mapped record at its adjusted position
func NewDedupKey(rec *AlignmentRecord, position int) DedupKey {
	return DedupKey{
		UMI:       rec.UMI,
		Reference: rec.Reference,
		Position:  position,
		Strand:    rec.Strand,
	}
}

func (k DedupKey) String() string {
	return fmt.Sprintf("(%s,%s,%d,%s)", k.UMI, k.Reference, k.Position, k.Strand)
}
