package apperror

import "errors"

// Sentinel errors for the failure taxonomy surfaced to callers. Services
// wrap these with fmt.Errorf("...: %w", ...) and the HTTP boundary maps
// them to status codes. Anything not wrapping one of these is treated as
// an internal failure.
var (
	// ErrNotFound covers both an absent entity and an entity owned by
	// someone else. The two cases are indistinguishable on purpose.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a duplicate (recording, chunk order) upload.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState signals an operation not valid for the current
	// recording status, e.g. streaming a non-completed recording.
	ErrInvalidState = errors.New("invalid state")

	ErrBadInput     = errors.New("bad input")
	ErrUnauthorized = errors.New("unauthorized")
)
