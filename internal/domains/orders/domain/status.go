package domain

// Status enumerates order progression.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// ParseStatus returns the status matching raw, or false for unknown values.
func ParseStatus(raw string) (Status, bool) {
	status := Status(raw)
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return status, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no transition leaves the status.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether from -> to is an allowed edge. Self transitions are never allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
