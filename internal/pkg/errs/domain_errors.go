package errs

import "errors"

// Closed failure set for the availability/hold engine. Every public operation
// fails with exactly one of these sentinels; handlers map them to HTTP
// statuses and nothing falls through to a generic unknown state.
var (
	// ErrValidation covers malformed input: inverted intervals, unknown
	// weekdays, bad override payloads. The caller can correct and retry.
	ErrValidation = errors.New("validation error")

	// ErrConflict means the slot was taken between query and acquisition.
	// Expected and frequent; surfaced as "please pick another time".
	ErrConflict = errors.New("slot conflict")

	// ErrExpired means the hold lapsed before promotion. The caller must
	// restart from availability search.
	ErrExpired = errors.New("hold expired")

	// ErrNotFound covers unknown resource, bookable type, or hold ids.
	ErrNotFound = errors.New("not found")

	// ErrStore is a backing-store failure. Read paths retry it a bounded
	// number of times; the atomic create/promote paths surface it
	// immediately to avoid double-booking from ambiguous retries.
	ErrStore = errors.New("store failure")
)
