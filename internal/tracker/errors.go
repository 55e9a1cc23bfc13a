package tracker

import "errors"

// Sentinel errors surfaced to the boundary layer. Callers match them with
// errors.Is; anything else is an internal persistence failure.
var (
	// ErrValidation indicates a required field was missing from the input
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates the addressed listing does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a create race was lost; the call may be retried
	ErrConflict = errors.New("conflict")
)
