package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ParentProfile struct {
	ID                 int64               `json:"id"`
	UserID             int64               `json:"user_id"`
	FullName           *string             `json:"full_name"`
	Phone              *string             `json:"phone"`
	MaxHourlyRate      decimal.NullDecimal `json:"max_hourly_rate"`
	OnboardingComplete bool                `json:"onboarding_complete"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}
