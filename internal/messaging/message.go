package messaging

import (
	"context"
	"encoding/json"
	"time"
)

// Priority orders outbound messages for the delivery layer.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Message is one outbound notification to a client contact.
type Message struct {
	ID         string
	TenantID   string
	Recipients []string
	Title      string
	Body       string
	Priority   Priority
	CreatedAt  time.Time
}

// Repo defines persistence for outbound messages.
type Repo interface {
	Create(ctx context.Context, msg Message) error
	ListForTenant(ctx context.Context, tenantID string) ([]Message, error)
}

// Envelope is the payload handed to the delivery queue.
type Envelope struct {
	MessageID  string   `json:"messageId"`
	TenantID   string   `json:"tenantId"`
	Recipients []string `json:"recipients"`
	Priority   string   `json:"priority"`
	EnqueuedAt string   `json:"enqueuedAt"`
}

// EncodeEnvelope returns the JSON representation of an envelope.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// DecodeEnvelope parses a JSON payload into an Envelope.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Dispatcher hands a created message to the delivery layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, env Envelope) error
}
