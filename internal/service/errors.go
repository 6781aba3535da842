package service

import "errors"

// Error taxonomy for the workflow core. Handlers map these to HTTP statuses;
// none of them is retried anywhere in this package. Storage faults pass
// through unwrapped by any of these sentinels and are treated as fatal to the
// triggering call.
var (
	// ErrValidation covers malformed input and role mismatches not tied to
	// ownership (non-factory creating evidence, empty item list).
	ErrValidation = errors.New("validation failed")

	// ErrPermission covers ownership and actor mismatches by parties the
	// resource already names (wrong factory fulfilling an item).
	ErrPermission = errors.New("permission denied")

	// ErrNotFound covers missing records and records deliberately hidden from
	// the actor. Buyers probing resources they cannot see get this rather
	// than ErrPermission so existence never leaks.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers re-fulfilling a terminal item, duplicate version
	// numbers and cancelling a non-cancellable request. Callers must re-fetch
	// state before trying again.
	ErrConflict = errors.New("conflict")
)
