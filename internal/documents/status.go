package documents

// Status is the lifecycle state of a stored document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusUploaded   Status = "uploaded"
	StatusValidated  Status = "validated"
	StatusError      Status = "error"
	StatusCorrupted  Status = "corrupted"
)

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusError, StatusCorrupted},
	StatusProcessing: {StatusUploaded, StatusError, StatusCorrupted},
	StatusUploaded:   {StatusValidated, StatusCorrupted},
	StatusValidated:  {StatusCorrupted},
	StatusError:      {StatusPending, StatusProcessing, StatusCorrupted},
	// corrupted exits only through the recovery workflow, which resets to
	// pending with replaced content.
	StatusCorrupted: {StatusPending},
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
