package sessions

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates an entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionClosed signals the session already ended.
	ErrSessionClosed = errors.New("session already closed")
)

// Repo defines persistence for upload sessions.
type Repo interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, sessionID string) (Session, error)
	Update(ctx context.Context, session Session) error
	ListForOperator(ctx context.Context, operatorID string) ([]Session, error)
}
