package contentstore

import "errors"

var (
	// ErrStorageUnavailable indicates the backing bucket or directory is not
	// reachable. Every operation fails fast with this error instead of
	// silently no-opping.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound indicates no object exists at the given path.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidInput indicates a malformed path or reference.
	ErrInvalidInput = errors.New("invalid input")
)
