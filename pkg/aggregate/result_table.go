package aggregate

import "github.com/ib-77/seqflow/pkg/processor"

// Entry is one successful result.
type Entry struct {
	Key     string
	Payload processor.Payload
}

// ResultTable holds one entry per successful key, in the order results
// arrived.
type ResultTable struct {
	entries []Entry
	index   map[string]int
}

func NewResultTable() *ResultTable {
	return &ResultTable{index: make(map[string]int)}
}

// Add records a success for key. A second success for the same key is
// refused and reported by returning false.
func (t *ResultTable) Add(key string, p processor.Payload) bool {
	if _, dup := t.index[key]; dup {
		return false
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: key, Payload: p})
	return true
}

// Lookup returns the payload recorded for key.
func (t *ResultTable) Lookup(key string) (processor.Payload, bool) {
	i, ok := t.index[key]
	if !ok {
		return nil, false
	}
	return t.entries[i].Payload, true
}

func (t *ResultTable) Len() int { return len(t.entries) }

func (t *ResultTable) Entries() []Entry {
	cp := make([]Entry, len(t.entries))
	copy(cp, t.entries)
	return cp
}
