package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
	"github.com/arman-rs/ClinicAppBack/internal/services"
)

type stubParentProfileRepo struct {
	profile         *models.ParentProfile
	err             error
	lastUserID      int64
	lastOnboarding  repository.ParentOnboardingInput
	lastUpdateInput repository.UpdateParentProfileInput
}

func (s *stubParentProfileRepo) UpdateOnboarding(_ context.Context, userID int64, req repository.ParentOnboardingInput) (*models.ParentProfile, error) {
	s.lastUserID = userID
	s.lastOnboarding = req
	return s.profile, s.err
}

func (s *stubParentProfileRepo) UpdatePartial(_ context.Context, userID int64, req repository.UpdateParentProfileInput) (*models.ParentProfile, error) {
	s.lastUserID = userID
	s.lastUpdateInput = req
	return s.profile, s.err
}

func (s *stubParentProfileRepo) GetByUserID(_ context.Context, userID int64) (*models.ParentProfile, error) {
	s.lastUserID = userID
	return s.profile, s.err
}

type stubTherapistProfileRepo struct {
	profile         *models.TherapistProfile
	err             error
	lastUserID      int64
	lastOnboarding  repository.TherapistOnboardingInput
	lastUpdateInput repository.UpdateTherapistProfileInput
}

func (s *stubTherapistProfileRepo) UpdateOnboarding(_ context.Context, userID int64, req repository.TherapistOnboardingInput) (*models.TherapistProfile, error) {
	s.lastUserID = userID
	s.lastOnboarding = req
	return s.profile, s.err
}

func (s *stubTherapistProfileRepo) UpdatePartial(_ context.Context, userID int64, req repository.UpdateTherapistProfileInput) (*models.TherapistProfile, error) {
	s.lastUserID = userID
	s.lastUpdateInput = req
	return s.profile, s.err
}

func (s *stubTherapistProfileRepo) GetByUserID(_ context.Context, userID int64) (*models.TherapistProfile, error) {
	s.lastUserID = userID
	return s.profile, s.err
}

func onboardedParentProfile(userID int64) *models.ParentProfile {
	fullName := "Jamie Lee"
	phone := "+15550000000"
	return &models.ParentProfile{
		ID:                 1,
		UserID:             userID,
		FullName:           &fullName,
		Phone:              &phone,
		MaxHourlyRate:      decimal.NewNullDecimal(decimal.NewFromInt(150)),
		OnboardingComplete: true,
	}
}

func onboardedTherapistProfile(userID int64) *models.TherapistProfile {
	fullName := "Dr. Sarah Miller"
	bio := "ADHD coaching for school-age children."
	specializations := []string{"adhd"}
	certifications := []string{"BCBA"}
	experience := 6
	return &models.TherapistProfile{
		ID:                 2,
		UserID:             userID,
		FullName:           &fullName,
		Bio:                &bio,
		Specializations:    &specializations,
		Certifications:     &certifications,
		ExperienceYears:    &experience,
		HourlyRate:         decimal.NewNullDecimal(decimal.NewFromInt(120)),
		OnboardingComplete: true,
	}
}

func newProfileTestApp(role, userID string, register func(app *fiber.App)) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	register(app)
	return app
}

func TestParentOnboardingForwardsRateAsDecimal(t *testing.T) {
	parentRepo := &stubParentProfileRepo{profile: onboardedParentProfile(42)}
	handler := NewOnboardingHandler(parentRepo, &stubTherapistProfileRepo{})
	app := newProfileTestApp("parent", "42", func(app *fiber.App) {
		app.Post("/api/v1/parents/onboarding", handler.ParentOnboarding)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parents/onboarding", strings.NewReader(`{
		"full_name": "Jamie Lee",
		"phone": "+15550000000",
		"max_hourly_rate": 150
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if parentRepo.lastUserID != 42 {
		t.Fatalf("expected user 42, got %d", parentRepo.lastUserID)
	}
	if parentRepo.lastOnboarding.MaxHourlyRate == nil || !parentRepo.lastOnboarding.MaxHourlyRate.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected forwarded rate: %v", parentRepo.lastOnboarding.MaxHourlyRate)
	}

	var body struct {
		OnboardingComplete bool `json:"onboarding_complete"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.OnboardingComplete {
		t.Fatal("expected onboarding_complete true")
	}
}

func TestParentOnboardingRequiresPhone(t *testing.T) {
	handler := NewOnboardingHandler(&stubParentProfileRepo{}, &stubTherapistProfileRepo{})
	app := newProfileTestApp("parent", "42", func(app *fiber.App) {
		app.Post("/api/v1/parents/onboarding", handler.ParentOnboarding)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parents/onboarding", strings.NewReader(`{
		"full_name": "Jamie Lee"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTherapistOnboardingRejectsNonPositiveRate(t *testing.T) {
	handler := NewOnboardingHandler(&stubParentProfileRepo{}, &stubTherapistProfileRepo{})
	app := newProfileTestApp("therapist", "7", func(app *fiber.App) {
		app.Post("/api/v1/therapists/onboarding", handler.TherapistOnboarding)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/therapists/onboarding", strings.NewReader(`{
		"full_name": "Dr. Sarah Miller",
		"bio": "ADHD coaching",
		"specializations": ["adhd"],
		"certifications": ["BCBA"],
		"experience_years": 6,
		"hourly_rate": 0
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTherapistOnboardingForwardsProfileFields(t *testing.T) {
	therapistRepo := &stubTherapistProfileRepo{profile: onboardedTherapistProfile(7)}
	handler := NewOnboardingHandler(&stubParentProfileRepo{}, therapistRepo)
	app := newProfileTestApp("therapist", "7", func(app *fiber.App) {
		app.Post("/api/v1/therapists/onboarding", handler.TherapistOnboarding)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/therapists/onboarding", strings.NewReader(`{
		"full_name": "Dr. Sarah Miller",
		"bio": "ADHD coaching for school-age children.",
		"specializations": ["adhd", "executive_function"],
		"certifications": ["BCBA"],
		"experience_years": 6,
		"hourly_rate": 120.5
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(therapistRepo.lastOnboarding.Specializations) != 2 {
		t.Fatalf("unexpected specializations: %v", therapistRepo.lastOnboarding.Specializations)
	}
	if !therapistRepo.lastOnboarding.HourlyRate.Equal(decimal.NewFromFloat(120.5)) {
		t.Fatalf("unexpected rate: %s", therapistRepo.lastOnboarding.HourlyRate)
	}
}

func TestOnboardingEnforcesRoleSeparation(t *testing.T) {
	handler := NewOnboardingHandler(&stubParentProfileRepo{}, &stubTherapistProfileRepo{})
	app := newProfileTestApp("therapist", "7", func(app *fiber.App) {
		app.Post("/api/v1/parents/onboarding", handler.ParentOnboarding)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parents/onboarding", strings.NewReader(`{
		"full_name": "Jamie Lee",
		"phone": "+15550000000"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestUpdateParentProfileForwardsPartialFields(t *testing.T) {
	parentRepo := &stubParentProfileRepo{profile: onboardedParentProfile(42)}
	profileService := services.NewProfileService(parentRepo, &stubTherapistProfileRepo{})
	handler := NewProfileHandler(profileService, parentRepo, &stubTherapistProfileRepo{})
	app := newProfileTestApp("parent", "42", func(app *fiber.App) {
		app.Put("/api/v1/parents/profile", handler.UpdateParentProfile)
	})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/parents/profile", strings.NewReader(`{
		"max_hourly_rate": 95.5
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if parentRepo.lastUpdateInput.FullName != nil {
		t.Fatalf("expected full_name untouched, got %v", *parentRepo.lastUpdateInput.FullName)
	}
	if parentRepo.lastUpdateInput.MaxHourlyRate == nil || !parentRepo.lastUpdateInput.MaxHourlyRate.Equal(decimal.NewFromFloat(95.5)) {
		t.Fatalf("unexpected forwarded rate: %v", parentRepo.lastUpdateInput.MaxHourlyRate)
	}
}

func TestUpdateTherapistProfileRejectsEmptyName(t *testing.T) {
	therapistRepo := &stubTherapistProfileRepo{}
	profileService := services.NewProfileService(&stubParentProfileRepo{}, therapistRepo)
	handler := NewProfileHandler(profileService, &stubParentProfileRepo{}, therapistRepo)
	app := newProfileTestApp("therapist", "7", func(app *fiber.App) {
		app.Put("/api/v1/therapists/profile", handler.UpdateTherapistProfile)
	})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/therapists/profile", strings.NewReader(`{
		"full_name": "   "
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetParentProfileReturnsProfile(t *testing.T) {
	parentRepo := &stubParentProfileRepo{profile: onboardedParentProfile(42)}
	profileService := services.NewProfileService(parentRepo, &stubTherapistProfileRepo{})
	handler := NewProfileHandler(profileService, parentRepo, &stubTherapistProfileRepo{})
	app := newProfileTestApp("parent", "42", func(app *fiber.App) {
		app.Get("/api/v1/parents/profile", handler.GetParentProfile)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parents/profile", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Profile            models.ParentProfile `json:"profile"`
		OnboardingComplete bool                 `json:"onboarding_complete"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Profile.UserID != 42 || !body.OnboardingComplete {
		t.Fatalf("unexpected profile payload: %+v", body)
	}
}
