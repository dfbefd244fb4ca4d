package dedup

// ChromosomeCount is the number of records written for one reference.
// Kept unmapped records count under their RNAME, usually "*".
type ChromosomeCount struct {
	Reference string
	Retained  int
}

// RunCounters accumulates the outcome of a deduplication run
type RunCounters struct {
	Headers      int
	Total        int // non-header records read
	InvalidUMI   int
	Unique       int
	Malformed    int
	InvalidCigar int
	Unmapped     int // kept or dropped per UnmappedPolicy
	PeakWindow   int // largest per-reference key set held

	order    []string
	retained map[string]int
}

func newRunCounters() *RunCounters {
	return &RunCounters{retained: make(map[string]int)}
}

// Duplicates returns the number of records removed as PCR duplicates. It is
// derived from the other counters rather than counted.
func (c *RunCounters) Duplicates() int {
	return c.Total - c.InvalidUMI - c.Unique - c.Malformed - c.InvalidCigar - c.Unmapped
}

// Chromosomes returns retained counts for every reference seen, in stream order
func (c *RunCounters) Chromosomes() []ChromosomeCount {
	out := make([]ChromosomeCount, 0, len(c.order))
	for _, ref := range c.order {
		out = append(out, ChromosomeCount{Reference: ref, Retained: c.retained[ref]})
	}
	return out
}

// Retained returns the number of records written for reference
func (c *RunCounters) Retained(reference string) int {
	return c.retained[reference]
}

func (c *RunCounters) register(reference string) {
	if c.retained == nil {
		c.retained = make(map[string]int)
	}
	if _, ok := c.retained[reference]; !ok {
		c.retained[reference] = 0
		c.order = append(c.order, reference)
	}
}

// keepUnmapped records an unmapped record written under UnmappedKeep. It
// adds to the reference total but not to Unique.
func (c *RunCounters) keepUnmapped(reference string) {
	c.register(reference)
	c.retained[reference]++
}

func (c *RunCounters) retain(reference string) {
	c.register(reference)
	c.Unique++
	c.retained[reference]++
}
