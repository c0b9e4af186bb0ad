package batch

import "errors"

var (
	// ErrRoundTrip is returned when an engine does not reproduce its input.
	ErrRoundTrip = errors.New("round trip mismatch")
	// ErrNotRun marks files that were never verified because the run was
	// cancelled first.
	ErrNotRun = errors.New("not verified")
	// ErrNoInput is returned when the given paths contain no message files.
	ErrNoInput = errors.New("no message files found")
)
