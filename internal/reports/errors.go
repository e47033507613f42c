package reports

import "errors"

var (
	// ErrUnavailable means the backing store could not be reached.
	ErrUnavailable = errors.New("report store unavailable")
	// ErrInvalidID means the identifier is not a well-formed report key.
	ErrInvalidID = errors.New("invalid report id")
	// ErrNotFound means no live report exists for the identifier, including expired ones.
	ErrNotFound = errors.New("report not found")
)
