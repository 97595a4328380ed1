package policy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RefundPolicy is the versioned tier configuration for cancellation refunds.
// Values come from configuration, not code, so a policy change does not
// require a deploy and historical quotes stay reproducible by version.
type RefundPolicy struct {
	Version              int
	FullRefundHours      int
	PartialRefundPercent int64
}

// DefaultRefundPolicy: full refund 24h or more before the session, half
// inside the 24h window, nothing once the session has started.
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{
		Version:              1,
		FullRefundHours:      24,
		PartialRefundPercent: 50,
	}
}

func (p RefundPolicy) Validate() error {
	if p.Version <= 0 {
		return fmt.Errorf("%w: refund policy version must be positive", ErrInvalidInput)
	}
	if p.FullRefundHours <= 0 {
		return fmt.Errorf("%w: full refund window must be positive", ErrInvalidInput)
	}
	if p.PartialRefundPercent < 0 || p.PartialRefundPercent > 100 {
		return fmt.Errorf("%w: partial refund percent must be within [0, 100]", ErrInvalidInput)
	}
	return nil
}

// RefundQuote is an advisory, ephemeral computation. It becomes binding only
// when the server-side recomputation at commit time matches it exactly.
type RefundQuote struct {
	OriginalAmount     decimal.Decimal `json:"original_amount"`
	RefundAmount       decimal.Decimal `json:"refund_amount"`
	RefundPercentage   int64           `json:"refund_percentage"`
	HoursBeforeSession float64         `json:"hours_before_session"`
	CanRefund          bool            `json:"can_refund"`
	PolicyVersion      int             `json:"policy_version"`
}

// Quote computes the refund owed for cancelling at the given instant.
// The refund amount is rounded half-up to the currency's minor unit.
func (p RefundPolicy) Quote(
	originalAmount decimal.Decimal,
	scheduledAt time.Time,
	now time.Time,
) (RefundQuote, error) {
	if err := p.Validate(); err != nil {
		return RefundQuote{}, err
	}
	if originalAmount.IsNegative() {
		return RefundQuote{}, fmt.Errorf("%w: original amount must not be negative", ErrInvalidInput)
	}
	if scheduledAt.IsZero() || now.IsZero() {
		return RefundQuote{}, fmt.Errorf("%w: zero instant", ErrInvalidTimestamp)
	}

	hoursBefore := scheduledAt.Sub(now).Hours()

	var percentage int64
	canRefund := false
	switch {
	case hoursBefore >= float64(p.FullRefundHours):
		percentage = 100
		canRefund = true
	case hoursBefore >= 0:
		percentage = p.PartialRefundPercent
		canRefund = true
	default:
		percentage = 0
	}

	refund := originalAmount.
		Mul(decimal.NewFromInt(percentage)).
		Div(decimal.NewFromInt(100)).
		Round(2)

	return RefundQuote{
		OriginalAmount:     originalAmount.Round(2),
		RefundAmount:       refund,
		RefundPercentage:   percentage,
		HoursBeforeSession: hoursBefore,
		CanRefund:          canRefund,
		PolicyVersion:      p.Version,
	}, nil
}

// Matches reports whether two quotes agree on everything that matters for a
// cancellation commit. A client-supplied refund amount is never trusted; the
// server recomputes and rejects the commit unless the amounts agree exactly.
func (q RefundQuote) Matches(other RefundQuote) bool {
	return q.PolicyVersion == other.PolicyVersion &&
		q.RefundPercentage == other.RefundPercentage &&
		q.CanRefund == other.CanRefund &&
		q.RefundAmount.Equal(other.RefundAmount) &&
		q.OriginalAmount.Equal(other.OriginalAmount)
}
