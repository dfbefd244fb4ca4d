package dedup

// Decision is the outcome of admitting a key into a Window
type Decision uint8

const (
	Retain Decision = iota // first occurrence, write the record
	Drop                   // duplicate of a retained record
)

func (d Decision) String() string {
	if d == Drop {
		return "drop"
	}
	return "retain"
}

// Window holds the duplicate keys seen on the reference currently being
// streamed. Moving to a different reference discards every key, so memory is
// bounded by the distinct reads of one reference.
//
// Records must arrive grouped by reference. A reference that reappears after
// another one starts from an empty set again, and duplicates split across the
// two groups are not detected.
type Window struct {
	reference string
	active    bool
	seen      map[DedupKey]struct{}
	peak      int
	resets    int
}

// NewWindow returns an idle window
func NewWindow() *Window {
	return &Window{seen: make(map[DedupKey]struct{})}
}

// Observe moves the window to reference. It reports whether this was a
// transition, in which case the seen-set was cleared.
func (w *Window) Observe(reference string) bool {
	if w.active && w.reference == reference {
		return false
	}
	if w.active {
		w.resets++
	}
	w.reference = reference
	w.active = true
	w.seen = make(map[DedupKey]struct{})
	return true
}

// Admit records key and reports whether its record should be kept
func (w *Window) Admit(key DedupKey) Decision {
	w.Observe(key.Reference)
	if _, dup := w.seen[key]; dup {
		return Drop
	}
	w.seen[key] = struct{}{}
	if len(w.seen) > w.peak {
		w.peak = len(w.seen)
	}
	return Retain
}

// Reference returns the active reference and whether the window is active
func (w *Window) Reference() (string, bool) {
	return w.reference, w.active
}

// Len returns the number of keys held for the active reference
func (w *Window) Len() int { return len(w.seen) }

// Peak returns the largest number of keys held at once
func (w *Window) Peak() int { return w.peak }

// Resets returns how many reference transitions cleared the window
func (w *Window) Resets() int { return w.resets }
