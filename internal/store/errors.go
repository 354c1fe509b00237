package store

import "errors"

var (
	// ErrNotFound is returned when a program or node is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a program id is reused for a different
	// circuit.
	ErrConflict = errors.New("program id already stored with a different content hash")
)
