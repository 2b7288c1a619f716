package table

import (
	"fmt"
)

// Table is an ordered sequence of records sharing a header.
type Table struct {
	header []string
	rows   []Record
}

func New(header ...string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{header: h}
}

func (t *Table) Header() []string {
	h := make([]string, len(t.header))
	copy(h, t.header)
	return h
}

func (t *Table) HasColumn(name string) bool {
	for _, h := range t.header {
		if h == name {
			return true
		}
	}
	return false
}

// AddColumns appends columns not yet in the header.
func (t *Table) AddColumns(names ...string) {
	for _, n := range names {
		if !t.HasColumn(n) {
			t.header = append(t.header, n)
		}
	}
}

func (t *Table) Append(r Record) {
	t.rows = append(t.rows, r)
}

func (t *Table) Rows() []Record {
	return t.rows
}

func (t *Table) Len() int { return len(t.rows) }

// RequireField checks that name is a header column.
func (t *Table) RequireField(name string) error {
	if !t.HasColumn(name) {
		return fmt.Errorf("column %q: %w", name, ErrKeyFieldMissing)
	}
	return nil
}

// Column returns the values of one column in row order; rows without the
// field yield Absent.
func (t *Table) Column(name string) []Value {
	vals := make([]Value, 0, len(t.rows))
	for _, r := range t.rows {
		v, ok := r.Get(name)
		if !ok {
			v = Absent()
		}
		vals = append(vals, v)
	}
	return vals
}

// DuplicateKeys lists, in first-seen order, every key that appears on more
// than one row.
func DuplicateKeys(t *Table, keyField string) []string {
	seen := make(map[string]int, t.Len())
	var dups []string
	for _, v := range t.Column(keyField) {
		if v.IsAbsent() {
			continue
		}
		k := v.String()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}
