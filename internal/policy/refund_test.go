package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestQuoteFullRefundOutsideWindow(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	scheduledAt := now.Add(30 * time.Hour)

	quote, err := DefaultRefundPolicy().Quote(decimal.NewFromInt(3000), scheduledAt, now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.RefundPercentage != 100 {
		t.Fatalf("expected 100%%, got %d", quote.RefundPercentage)
	}
	if !quote.CanRefund {
		t.Fatalf("expected refundable quote")
	}
	if !quote.RefundAmount.Equal(decimal.RequireFromString("3000.00")) {
		t.Fatalf("expected refund 3000.00, got %s", quote.RefundAmount)
	}
}

func TestQuotePartialRefundInsideWindow(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	scheduledAt := now.Add(5 * time.Hour)
	p := DefaultRefundPolicy()

	quote, err := p.Quote(decimal.NewFromInt(3000), scheduledAt, now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.RefundPercentage != p.PartialRefundPercent {
		t.Fatalf("expected partial tier %d%%, got %d", p.PartialRefundPercent, quote.RefundPercentage)
	}
	if !quote.CanRefund {
		t.Fatalf("expected refundable quote inside the window")
	}
	if !quote.RefundAmount.Equal(decimal.RequireFromString("1500.00")) {
		t.Fatalf("expected refund 1500.00, got %s", quote.RefundAmount)
	}
}

func TestQuoteNoRefundOnceSessionStarted(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	scheduledAt := now.Add(-1 * time.Hour)

	quote, err := DefaultRefundPolicy().Quote(decimal.NewFromInt(3000), scheduledAt, now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.RefundPercentage != 0 || quote.CanRefund {
		t.Fatalf("expected no refund for started session, got %+v", quote)
	}
	if !quote.RefundAmount.IsZero() {
		t.Fatalf("expected zero refund, got %s", quote.RefundAmount)
	}
	if quote.HoursBeforeSession >= 0 {
		t.Fatalf("expected negative hours before session, got %f", quote.HoursBeforeSession)
	}
}

func TestQuoteRefundAmountIsMonotonicInHoursBefore(t *testing.T) {
	p := DefaultRefundPolicy()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("1234.56")

	previous := decimal.NewFromInt(-1)
	for hours := -48; hours <= 72; hours++ {
		quote, err := p.Quote(amount, now.Add(time.Duration(hours)*time.Hour), now)
		if err != nil {
			t.Fatalf("Quote at %dh: %v", hours, err)
		}
		if quote.RefundAmount.LessThan(previous) {
			t.Fatalf("refund decreased at %dh: %s < %s", hours, quote.RefundAmount, previous)
		}
		previous = quote.RefundAmount
	}
}

func TestQuoteRoundsHalfUpToMinorUnit(t *testing.T) {
	p := RefundPolicy{Version: 1, FullRefundHours: 24, PartialRefundPercent: 50}
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	// 33.33 * 50% = 16.665, which must round up to 16.67.
	quote, err := p.Quote(decimal.RequireFromString("33.33"), now.Add(2*time.Hour), now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !quote.RefundAmount.Equal(decimal.RequireFromString("16.67")) {
		t.Fatalf("expected 16.67, got %s", quote.RefundAmount)
	}
}

func TestQuoteExactWindowBoundaryGetsFullRefund(t *testing.T) {
	p := DefaultRefundPolicy()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	quote, err := p.Quote(decimal.NewFromInt(100), now.Add(24*time.Hour), now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.RefundPercentage != 100 {
		t.Fatalf("expected full refund at exactly 24h, got %d%%", quote.RefundPercentage)
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	p := DefaultRefundPolicy()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	scheduledAt := now.Add(7 * time.Hour)
	amount := decimal.RequireFromString("250.75")

	first, err := p.Quote(amount, scheduledAt, now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	second, err := p.Quote(amount, scheduledAt, now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !first.Matches(second) {
		t.Fatalf("identical inputs produced different quotes: %+v vs %+v", first, second)
	}
}

func TestQuoteRejectsNegativeAmount(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	_, err := DefaultRefundPolicy().Quote(decimal.NewFromInt(-1), now.Add(time.Hour), now)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQuoteRejectsZeroInstants(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	if _, err := DefaultRefundPolicy().Quote(decimal.NewFromInt(10), time.Time{}, now); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp for zero scheduledAt, got %v", err)
	}
	if _, err := DefaultRefundPolicy().Quote(decimal.NewFromInt(10), now, time.Time{}); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp for zero now, got %v", err)
	}
}

func TestQuoteRejectsMalformedPolicy(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	bad := RefundPolicy{Version: 1, FullRefundHours: 24, PartialRefundPercent: 120}

	_, err := bad.Quote(decimal.NewFromInt(10), now.Add(time.Hour), now)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad percent, got %v", err)
	}
}

func TestQuoteMatchesDetectsTampering(t *testing.T) {
	p := DefaultRefundPolicy()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	quote, err := p.Quote(decimal.NewFromInt(3000), now.Add(5*time.Hour), now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	tampered := quote
	tampered.RefundAmount = quote.RefundAmount.Add(decimal.RequireFromString("0.01"))
	if quote.Matches(tampered) {
		t.Fatalf("expected mismatch for altered refund amount")
	}

	staleVersion := quote
	staleVersion.PolicyVersion = quote.PolicyVersion + 1
	if quote.Matches(staleVersion) {
		t.Fatalf("expected mismatch for different policy version")
	}
}
