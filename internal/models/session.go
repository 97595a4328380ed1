package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/policy"
)

type Session struct {
	ID              int64                `json:"id"`
	ParentID        int64                `json:"parent_id"`
	ChildID         int64                `json:"child_id"`
	TherapistID     int64                `json:"therapist_id"`
	ScheduledAt     time.Time            `json:"scheduled_at"`
	DurationMinutes int                  `json:"duration_minutes"`
	Status          policy.SessionStatus `json:"status"`
	RateAtBooking   decimal.Decimal      `json:"rate_at_booking"`
	Notes           *string              `json:"notes"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type Payment struct {
	ID             int64               `json:"id"`
	SessionID      int64               `json:"session_id"`
	ParentID       int64               `json:"parent_id"`
	TherapistID    int64               `json:"therapist_id"`
	Amount         decimal.Decimal     `json:"amount"`
	Status         string              `json:"status"`
	RefundedAmount decimal.NullDecimal `json:"refunded_amount"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Cancellation is the audit record of a committed cancellation: the applied
// quote snapshot plus the policy version it was computed under, so the number
// stays reproducible after the policy configuration changes.
type Cancellation struct {
	ID               int64           `json:"id"`
	SessionID        int64           `json:"session_id"`
	CancelledBy      int64           `json:"cancelled_by"`
	IdempotencyKey   uuid.UUID       `json:"idempotency_key"`
	Reason           *string         `json:"reason"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	RefundPercentage int64           `json:"refund_percentage"`
	PolicyVersion    int             `json:"policy_version"`
	CreatedAt        time.Time       `json:"created_at"`
}

// SessionDetail is a session enriched with its derived lifecycle state and
// payment. Lifecycle and actions are recomputed per request, never persisted.
type SessionDetail struct {
	Session
	Lifecycle policy.Classification `json:"lifecycle"`
	Actions   policy.ActionSet      `json:"actions"`
	Payment   *Payment              `json:"payment,omitempty"`
}
