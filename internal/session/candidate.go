package session

// Provenance records where the current candidate came from.
type Provenance int

const (
	Generated Provenance = iota
	Edited
)

// Label is the heading shown above a candidate with this provenance.
func (p Provenance) Label() string {
	if p == Edited {
		return "Edited program:"
	}
	return "Generated program:"
}

// Candidate is a script under consideration for execution.
type Candidate struct {
	Text       string
	Provenance Provenance
}

// History is the append-only list of candidate texts shown so far.
type History struct {
	entries []string
}

func (h *History) Append(text string) {
	h.entries = append(h.entries, text)
}

// Contains reports whether text exactly equals any earlier entry.
func (h *History) Contains(text string) bool {
	for _, e := range h.entries {
		if e == text {
			return true
		}
	}
	return false
}

func (h *History) Len() int {
	return len(h.entries)
}
