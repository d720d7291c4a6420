package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// so repositories and the orchestrator can translate them into user-facing
// failures:
// - ErrNotFound: no row with the requested id
// - ErrConflict: a write violated a constraint (dangling reference, bad check)
// - ErrInvalidState: record is in the wrong state for the requested change
// - ErrUnavailable: backing store cannot be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
