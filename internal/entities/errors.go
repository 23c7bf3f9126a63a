package entities

import "errors"

var (
	// ErrOutOfStock is returned when a reservation asks for more units
	// than the ticket class has available. User-visible, not retryable.
	ErrOutOfStock = errors.New("insufficient availability")

	// ErrConflict is returned after a version-guarded write lost against
	// a concurrent writer and the bounded retries were exhausted.
	ErrConflict = errors.New("optimistic concurrency conflict")

	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned on an attempted status change out
	// of a terminal state. Idempotent paths (re-confirm) swallow it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidAuthCode covers both a missing and an expired show auth code.
	ErrInvalidAuthCode = errors.New("invalid auth code")
)
