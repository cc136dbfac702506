package gallery

import "errors"

// Common errors returned by the gallery.
var (
	// ErrNotFound is returned when no entry matches.
	ErrNotFound = errors.New("gallery entry not found")

	// ErrInvalidID is returned when an ID is not a UUID.
	ErrInvalidID = errors.New("invalid entry ID")

	// ErrEmptyPath is returned when an entry has no path.
	ErrEmptyPath = errors.New("entry path cannot be empty")

	// ErrInvalidEntry is returned for a nil entry.
	ErrInvalidEntry = errors.New("invalid entry")
)
