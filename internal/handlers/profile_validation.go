package handlers

import (
	"strings"
)

func validateParentOnboardingRequest(req parentOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if strings.TrimSpace(req.Phone) == "" {
		return "phone is required"
	}
	if req.MaxHourlyRate != nil && *req.MaxHourlyRate <= 0 {
		return "max_hourly_rate must be greater than 0"
	}
	return ""
}

func validateTherapistOnboardingRequest(req therapistOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if strings.TrimSpace(req.Bio) == "" {
		return "bio is required"
	}
	if len(req.Specializations) == 0 {
		return "specializations must contain at least one item"
	}
	for _, specialization := range req.Specializations {
		if strings.TrimSpace(specialization) == "" {
			return "specializations must not contain empty values"
		}
	}
	if len(req.Certifications) == 0 {
		return "certifications must contain at least one item"
	}
	for _, certification := range req.Certifications {
		if strings.TrimSpace(certification) == "" {
			return "certifications must not contain empty values"
		}
	}
	if req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if req.HourlyRate <= 0 {
		return "hourly_rate must be greater than 0"
	}
	return ""
}

func validateParentProfileUpdateRequest(req updateParentProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Phone != nil && strings.TrimSpace(*req.Phone) == "" {
		return "phone must not be empty"
	}
	if req.MaxHourlyRate != nil && *req.MaxHourlyRate <= 0 {
		return "max_hourly_rate must be greater than 0"
	}
	return ""
}

func validateTherapistProfileUpdateRequest(req updateTherapistProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		return "bio must not be empty"
	}
	if req.Specializations != nil {
		for _, specialization := range *req.Specializations {
			if strings.TrimSpace(specialization) == "" {
				return "specializations must not contain empty values"
			}
		}
	}
	if req.Certifications != nil {
		for _, certification := range *req.Certifications {
			if strings.TrimSpace(certification) == "" {
				return "certifications must not contain empty values"
			}
		}
	}
	if req.ExperienceYears != nil && *req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if req.HourlyRate != nil && *req.HourlyRate <= 0 {
		return "hourly_rate must be greater than 0"
	}
	return ""
}
