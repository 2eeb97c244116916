package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidStatus is returned for values outside the appointment status set.
var ErrInvalidStatus = errors.New("invalid appointment status")

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusAccepted, StatusRejected}

// ParseStatus validates s against the known statuses.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAccepted, StatusRejected:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
