package fulfillment

import "errors"

var (
	// ErrNotFound indicates an entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition indicates an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrActiveEntryExists signals the document already has an entry in a
	// non-terminal state; a document waits in at most one line at a time.
	ErrActiveEntryExists = errors.New("document already has an active queue entry")

	// ErrCredentialNotConfigured is an expected state: no vault entry for
	// the target platform. It is reported, never retried automatically.
	ErrCredentialNotConfigured = errors.New("credential not configured")
)
