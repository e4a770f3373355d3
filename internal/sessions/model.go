package sessions

import "time"

// Status is the lifecycle state of an upload session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Session groups one operator's batch of manual-upload work. It is advisory
// bookkeeping: queue correctness never depends on a session being open.
type Session struct {
	ID             string
	OperatorID     string
	Status         Status
	ProcessedCount int
	UploadedCount  int
	ErrorCount     int
	Notes          string
	StartedAt      time.Time
	EndedAt        *time.Time
}
