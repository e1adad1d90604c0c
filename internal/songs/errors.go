package songs

import "errors"

var (
	// ErrDuplicate is returned when adding a song whose video id already
	// exists. The existing record is left unmodified.
	ErrDuplicate = errors.New("song already exists")

	// ErrNotFound is returned for lookups and updates against an unknown
	// video id.
	ErrNotFound = errors.New("song not found")
)
