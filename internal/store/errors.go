package store

import "errors"

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStatus is returned when a status value is outside the
	// enumerated request lifecycle states.
	ErrInvalidStatus = errors.New("invalid status value")
)
