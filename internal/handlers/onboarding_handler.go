package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
)

type parentOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.ParentOnboardingInput) (*models.ParentProfile, error)
}

type therapistOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.TherapistOnboardingInput) (*models.TherapistProfile, error)
}

type OnboardingHandler struct {
	parentProfileRepo    parentOnboardingProfileStore
	therapistProfileRepo therapistOnboardingProfileStore
}

func NewOnboardingHandler(parentProfileRepo parentOnboardingProfileStore, therapistProfileRepo therapistOnboardingProfileStore) *OnboardingHandler {
	return &OnboardingHandler{
		parentProfileRepo:    parentProfileRepo,
		therapistProfileRepo: therapistProfileRepo,
	}
}

type parentOnboardingRequest struct {
	FullName      string   `json:"full_name"`
	Phone         string   `json:"phone"`
	MaxHourlyRate *float64 `json:"max_hourly_rate"`
}

type therapistOnboardingRequest struct {
	FullName        string   `json:"full_name"`
	Bio             string   `json:"bio"`
	Specializations []string `json:"specializations"`
	Certifications  []string `json:"certifications"`
	ExperienceYears int      `json:"experience_years"`
	HourlyRate      float64  `json:"hourly_rate"`
}

func (h *OnboardingHandler) ParentOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "parent" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req parentOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateParentOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.parentProfileRepo.UpdateOnboarding(c.Context(), userID, repository.ParentOnboardingInput{
		FullName:      req.FullName,
		Phone:         req.Phone,
		MaxHourlyRate: decimalFromFloat(req.MaxHourlyRate),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *OnboardingHandler) TherapistOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "therapist" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req therapistOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateTherapistOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.therapistProfileRepo.UpdateOnboarding(c.Context(), userID, repository.TherapistOnboardingInput{
		FullName:        req.FullName,
		Bio:             req.Bio,
		Specializations: req.Specializations,
		Certifications:  req.Certifications,
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      decimal.NewFromFloat(req.HourlyRate),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}
