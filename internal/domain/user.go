// Package domain contains core domain types for the admin console.
package domain

import (
	"strings"
	"time"
)

// Operator is the signed-in administrator.
type Operator struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// DisplayName returns "First Last", trimmed when a part is missing.
func (o *Operator) DisplayName() string {
	if o == nil {
		return ""
	}
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// Transition is a confirmed appointment status change.
type Transition struct {
	ID          string    `json:"id"`
	RecordKey   string    `json:"record_key"`
	From        Status    `json:"from,omitempty"`
	To          Status    `json:"to"`
	Message     string    `json:"message"`
	OperatorID  string    `json:"operator_id,omitempty"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
