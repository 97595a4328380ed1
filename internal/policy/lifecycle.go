package policy

import (
	"fmt"
	"time"
)

// Phase is the single lifecycle bucket a session falls into at a given instant.
// It is always derived from (scheduledAt, duration, status, now) and never stored.
type Phase string

const (
	PhaseUpcoming              Phase = "upcoming"
	PhaseOngoing               Phase = "ongoing"
	PhaseAwaitingDocumentation Phase = "awaiting_documentation"
	PhaseDocumented            Phase = "documented"
	PhaseClosed                Phase = "closed"
)

type Classification struct {
	Phase              Phase `json:"phase"`
	IsPast             bool  `json:"is_past"`
	IsOngoing          bool  `json:"is_ongoing"`
	IsCompletedByTime  bool  `json:"is_completed_by_time"`
	NeedsDocumentation bool  `json:"needs_documentation"`
}

// Classify derives a session's lifecycle phase at the given instant.
//
// The session window is [scheduledAt, scheduledAt + duration]. At the exact
// instant now == window end the session still counts as ongoing; only after
// the end does it become completed-by-time. A session whose window has fully
// elapsed while its status is still active was never documented by the
// therapist and is flagged NeedsDocumentation.
func Classify(
	scheduledAt time.Time,
	durationMinutes int,
	status SessionStatus,
	now time.Time,
) (Classification, error) {
	if scheduledAt.IsZero() || now.IsZero() {
		return Classification{}, fmt.Errorf("%w: zero instant", ErrInvalidTimestamp)
	}
	if durationMinutes <= 0 {
		return Classification{}, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidInput, durationMinutes)
	}
	if !status.Valid() {
		return Classification{}, fmt.Errorf("%w: unknown session status %q", ErrInvalidInput, status)
	}

	sessionEnd := scheduledAt.Add(time.Duration(durationMinutes) * time.Minute)

	c := Classification{
		IsPast:            !scheduledAt.After(now),
		IsCompletedByTime: now.After(sessionEnd),
	}
	c.IsOngoing = c.IsPast && !c.IsCompletedByTime
	c.NeedsDocumentation = c.IsCompletedByTime && status.IsActive()

	switch {
	case status == StatusCompleted:
		c.Phase = PhaseDocumented
	case status.IsTerminal():
		c.Phase = PhaseClosed
	case c.IsOngoing:
		c.Phase = PhaseOngoing
	case c.IsCompletedByTime:
		c.Phase = PhaseAwaitingDocumentation
	default:
		c.Phase = PhaseUpcoming
	}

	return c, nil
}

// ActionSet lists the operator actions valid for a session in a given phase.
type ActionSet struct {
	CanReschedule  bool `json:"can_reschedule"`
	CanCancel      bool `json:"can_cancel"`
	CanDocument    bool `json:"can_document"`
	CanJoin        bool `json:"can_join"`
	CanViewDetails bool `json:"can_view_details"`
}

func Actions(c Classification) ActionSet {
	switch c.Phase {
	case PhaseUpcoming:
		return ActionSet{CanReschedule: true, CanCancel: true}
	case PhaseOngoing:
		return ActionSet{CanDocument: true, CanJoin: true}
	case PhaseAwaitingDocumentation:
		return ActionSet{CanDocument: true}
	case PhaseDocumented:
		return ActionSet{CanViewDetails: true}
	default:
		return ActionSet{}
	}
}
