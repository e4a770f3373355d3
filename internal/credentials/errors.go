package credentials

import "errors"

var (
	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCipher indicates the vault key is missing or ciphertext is damaged.
	ErrCipher = errors.New("vault cipher failure")
)
