package credentials

import (
	"time"

	"compliance-backend/internal/platform"
)

// State tracks whether a credential is usable on its portal.
type State string

const (
	StateReady   State = "ready"
	StatePending State = "pending"
	StateInvalid State = "invalid"
)

// DefaultAlias is used when the caller saves a credential without naming it.
const DefaultAlias = "default"

// Credential is one vaulted portal login. Password holds ciphertext at rest;
// the service decrypts only at the moment of use.
type Credential struct {
	ID              string
	TenantID        string
	Platform        platform.Type
	Alias           string
	Username        string
	Password        string
	State           State
	LastValidatedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
