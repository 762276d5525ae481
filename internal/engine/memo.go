package engine

// maxMemoEntries bounds a single run's memo; lookups past the bound still
// hit existing entries but nothing new is stored.
const maxMemoEntries = 1 << 16

// memo caches transition results keyed by the raw window bytes. The window
// includes the center cell, so the key covers (window, center). A memo
// belongs to exactly one Evolve call.
type memo struct {
	entries      map[string]uint8
	hits, misses int
}

func newMemo() *memo {
	return &memo{entries: make(map[string]uint8)}
}

func (m *memo) get(window []uint8) (uint8, bool) {
	v, ok := m.entries[string(window)]
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	return v, ok
}

func (m *memo) put(window []uint8, v uint8) {
	if len(m.entries) >= maxMemoEntries {
		return
	}
	m.entries[string(window)] = v
}
