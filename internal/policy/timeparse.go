package policy

import (
	"fmt"
	"strings"
	"time"
)

var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseScheduledAt normalizes an API timestamp once, at the boundary.
// Values carrying an explicit offset are parsed as RFC3339; values without a
// zone marker are interpreted in the clinic's timezone. Business logic never
// re-parses or strips markers from the string again.
func ParseScheduledAt(raw string, clinicTZ *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalidTimestamp)
	}
	if clinicTZ == nil {
		clinicTZ = time.UTC
	}

	if ts, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return ts, nil
	}
	for _, layout := range zonelessLayouts {
		if ts, err := time.ParseInLocation(layout, trimmed, clinicTZ); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}
