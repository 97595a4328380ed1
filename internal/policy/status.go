package policy

import (
	"fmt"
	"strings"
)

// SessionStatus is the closed set of states a therapy session can be in.
// scheduled, approved and confirmed all mean "booked and still happening";
// the rest are terminal.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusApproved  SessionStatus = "approved"
	StatusConfirmed SessionStatus = "confirmed"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
	StatusDeclined  SessionStatus = "declined"
	StatusNoShow    SessionStatus = "no_show"
)

func ParseStatus(raw string) (SessionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "scheduled":
		return StatusScheduled, nil
	case "approved":
		return StatusApproved, nil
	case "confirmed":
		return StatusConfirmed, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	case "declined":
		return StatusDeclined, nil
	case "no_show", "noshow":
		return StatusNoShow, nil
	default:
		return "", fmt.Errorf("%w: unknown session status %q", ErrInvalidInput, raw)
	}
}

// IsActive reports whether the session is still booked.
func (s SessionStatus) IsActive() bool {
	switch s {
	case StatusScheduled, StatusApproved, StatusConfirmed:
		return true
	}
	return false
}

// IsTerminal reports whether no further status transition is possible.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusDeclined, StatusNoShow:
		return true
	}
	return false
}

func (s SessionStatus) Valid() bool {
	return s.IsActive() || s.IsTerminal()
}
