package policy

import "github.com/shopspring/decimal"

type RescheduleReason string

const (
	RescheduleOK                RescheduleReason = "ok"
	RescheduleRateChanged       RescheduleReason = "rate_changed"
	RescheduleNotEligibleStatus RescheduleReason = "not_eligible_status"
)

type RescheduleEligibility struct {
	CanReschedule bool             `json:"can_reschedule"`
	Reason        RescheduleReason `json:"reason"`
	OriginalRate  *decimal.Decimal `json:"original_rate,omitempty"`
	CurrentRate   *decimal.Decimal `json:"current_rate,omitempty"`
}

// CheckReschedule gates a date/time change on status and rate stability.
// A session booked at a stale rate must not be silently rebooked under the
// old price; the parent has to cancel and book fresh at the current rate.
func CheckReschedule(
	rateAtBooking decimal.Decimal,
	currentRate decimal.Decimal,
	status SessionStatus,
) RescheduleEligibility {
	if !status.IsActive() {
		return RescheduleEligibility{Reason: RescheduleNotEligibleStatus}
	}
	if !currentRate.Equal(rateAtBooking) {
		original := rateAtBooking
		current := currentRate
		return RescheduleEligibility{
			Reason:       RescheduleRateChanged,
			OriginalRate: &original,
			CurrentRate:  &current,
		}
	}
	return RescheduleEligibility{CanReschedule: true, Reason: RescheduleOK}
}
