package table

import "strings"

// ListSeparator joins list values inside a single delimited cell.
const ListSeparator = ";"

type kind uint8

const (
	kindScalar kind = iota
	kindList
	kindAbsent
)

// Value is one cell: a scalar, a list of scalars, or the explicit absence
// marker used for result columns with no result.
type Value struct {
	kind  kind
	text  string
	items []string
}

func Scalar(s string) Value {
	return Value{kind: kindScalar, text: s}
}

func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: kindList, items: cp}
}

func Absent() Value {
	return Value{kind: kindAbsent}
}

func (v Value) IsAbsent() bool { return v.kind == kindAbsent }

func (v Value) IsList() bool { return v.kind == kindList }

// Items returns the list elements, or the scalar as a one-element list.
func (v Value) Items() []string {
	switch v.kind {
	case kindList:
		cp := make([]string, len(v.items))
		copy(cp, v.items)
		return cp
	case kindScalar:
		return []string{v.text}
	}
	return nil
}

// String renders the cell as written to delimited output. Absent renders
// as the empty string.
func (v Value) String() string {
	switch v.kind {
	case kindList:
		return strings.Join(v.items, ListSeparator)
	case kindScalar:
		return v.text
	}
	return ""
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == kindList {
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if v.items[i] != o.items[i] {
				return false
			}
		}
		return true
	}
	return v.text == o.text
}
