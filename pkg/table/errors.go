package table

import "errors"

var (
	// ErrKeyFieldMissing indicates a header or record without the key field
	ErrKeyFieldMissing = errors.New("key field missing")

	// ErrEmptyHeader indicates input with no header line
	ErrEmptyHeader = errors.New("input has no header")

	// ErrDuplicateColumn indicates a header naming the same column twice
	ErrDuplicateColumn = errors.New("duplicate column")
)
