package documents

import "errors"

var (
	// ErrNotFound indicates an entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateContent signals the storage-level unique constraint on
	// (tenant, hash) fired. The registry resolves it by folding into the
	// existing document; it is never surfaced as a user error.
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrInvalidTransition indicates an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)
