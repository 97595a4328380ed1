package policy

import (
	"errors"
	"testing"
	"time"
)

func TestParseScheduledAtKeepsExplicitOffset(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	ts, err := ParseScheduledAt("2026-03-15T09:00:00Z", tehran)
	if err != nil {
		t.Fatalf("ParseScheduledAt: %v", err)
	}
	if !ts.Equal(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected UTC instant preserved, got %s", ts)
	}
}

func TestParseScheduledAtInterpretsZonelessInClinicTimezone(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	ts, err := ParseScheduledAt("2026-03-15T09:00:00", tehran)
	if err != nil {
		t.Fatalf("ParseScheduledAt: %v", err)
	}
	want := time.Date(2026, 3, 15, 9, 0, 0, 0, tehran)
	if !ts.Equal(want) {
		t.Fatalf("expected %s, got %s", want, ts)
	}
	if ts.Location() != tehran {
		t.Fatalf("expected clinic timezone, got %s", ts.Location())
	}
}

func TestParseScheduledAtAcceptsMinutePrecision(t *testing.T) {
	ts, err := ParseScheduledAt("2026-03-15T09:30", time.UTC)
	if err != nil {
		t.Fatalf("ParseScheduledAt: %v", err)
	}
	if !ts.Equal(time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant %s", ts)
	}
}

func TestParseScheduledAtDefaultsNilLocationToUTC(t *testing.T) {
	ts, err := ParseScheduledAt("2026-03-15 09:00:00", nil)
	if err != nil {
		t.Fatalf("ParseScheduledAt: %v", err)
	}
	if !ts.Equal(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant %s", ts)
	}
}

func TestParseScheduledAtRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "  ", "next tuesday", "2026-13-45T99:00:00"} {
		if _, err := ParseScheduledAt(raw, time.UTC); !errors.Is(err, ErrInvalidTimestamp) {
			t.Fatalf("expected ErrInvalidTimestamp for %q, got %v", raw, err)
		}
	}
}

func TestParseStatusRoundTrip(t *testing.T) {
	for _, status := range []SessionStatus{
		StatusScheduled, StatusApproved, StatusConfirmed,
		StatusCompleted, StatusCancelled, StatusDeclined, StatusNoShow,
	} {
		parsed, err := ParseStatus(string(status))
		if err != nil {
			t.Fatalf("ParseStatus(%s): %v", status, err)
		}
		if parsed != status {
			t.Fatalf("expected %s, got %s", status, parsed)
		}
	}

	if _, err := ParseStatus("archived"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}

	if parsed, err := ParseStatus(" Canceled "); err != nil || parsed != StatusCancelled {
		t.Fatalf("expected normalized cancelled, got %s (%v)", parsed, err)
	}
}
