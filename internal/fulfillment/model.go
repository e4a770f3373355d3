package fulfillment

import (
	"time"

	"compliance-backend/internal/platform"
)

// Status is the lifecycle state of a queue entry.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusUploaded   Status = "uploaded"
	StatusError      Status = "error"
)

var statusTransitions = map[Status][]Status{
	StatusQueued:     {StatusInProgress},
	StatusInProgress: {StatusUploaded, StatusError},
	// error entries may be manually retried
	StatusError:    {StatusQueued},
	StatusUploaded: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == StatusUploaded
}

// Priority orders entries within the queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityNormal: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank returns the ordering weight of p; higher sorts first.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Entry is one document awaiting manual upload to an external portal.
type Entry struct {
	ID             string
	TenantID       string
	ClientID       string
	ProjectID      string
	DocumentID     string
	Status         Status
	Priority       Priority
	Note           string
	LastError      string
	RetryCount     int
	TargetPlatform platform.Type
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
