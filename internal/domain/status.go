package domain

import "fmt"

// Status is the kitchen order lifecycle state. The set is closed; every
// boundary (ingestion, control surface) goes through ParseStatus instead of
// comparing raw strings.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every valid value, in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}
}

// ParseStatus validates a raw status value from the wire.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
}

func (s Status) String() string { return string(s) }
