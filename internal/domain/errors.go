package domain

import "errors"

// Sentinel errors shared across the service and repository layers. Callers
// match them with errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrValidation marks rejected input: missing fields, bad formats,
	// unusable join codes.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState marks an operation attempted against a member whose
	// lifecycle state does not allow it.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrCapacityExhausted is returned when a seat acquisition finds no
	// remaining capacity of the requested type.
	ErrCapacityExhausted = errors.New("seat capacity exhausted")

	// ErrNotFound covers missing records, including records that exist but
	// belong to a different organization.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed is returned when an approval or rejection races a
	// concurrent reviewer and loses.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrUnauthorized marks an actor lacking the capability an operation
	// requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict marks an optimistic-concurrency collision. Transactions
	// failing with it are retried with backoff before surfacing.
	ErrConflict = errors.New("concurrent modification conflict")
)
