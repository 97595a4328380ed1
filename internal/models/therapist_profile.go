package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TherapistProfile struct {
	ID                 int64               `json:"id"`
	UserID             int64               `json:"user_id"`
	FullName           *string             `json:"full_name"`
	Bio                *string             `json:"bio"`
	Specializations    *[]string           `json:"specializations"`
	Certifications     *[]string           `json:"certifications"`
	ExperienceYears    *int                `json:"experience_years"`
	HourlyRate         decimal.NullDecimal `json:"hourly_rate"`
	Rating             *float64            `json:"rating"`
	TotalPatients      *int                `json:"total_patients"`
	IsVerified         *bool               `json:"is_verified"`
	OnboardingComplete bool                `json:"onboarding_complete"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type TherapistWithScore struct {
	TherapistProfile
	MatchScore int `json:"match_score"`
}

type TherapistListResponse struct {
	ID              string   `json:"id"`
	FullName        string   `json:"full_name"`
	Specializations []string `json:"specializations"`
	ExperienceYears int      `json:"experience_years"`
	HourlyRate      string   `json:"hourly_rate"`
	Rating          float64  `json:"rating"`
	TotalPatients   int      `json:"total_patients"`
	MatchScore      int      `json:"match_score,omitempty"`
}

type TherapistDetailResponse struct {
	TherapistListResponse
	Bio                string   `json:"bio"`
	Certifications     []string `json:"certifications"`
	IsVerified         bool     `json:"is_verified"`
	AvailableSlots     []string `json:"available_slots"`
	OnboardingComplete bool     `json:"onboarding_complete"`
}
