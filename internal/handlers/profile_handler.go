package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
	"github.com/arman-rs/ClinicAppBack/internal/services"
)

type ProfileHandler struct {
	profileService       *services.ProfileService
	parentProfileRepo    parentProfileStore
	therapistProfileRepo therapistProfileStore
}

type parentProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.ParentProfile, error)
}

type therapistProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.TherapistProfile, error)
}

func NewProfileHandler(
	profileService *services.ProfileService,
	parentProfileRepo parentProfileStore,
	therapistProfileRepo therapistProfileStore,
) *ProfileHandler {
	return &ProfileHandler{
		profileService:       profileService,
		parentProfileRepo:    parentProfileRepo,
		therapistProfileRepo: therapistProfileRepo,
	}
}

type updateParentProfileRequest struct {
	FullName      *string  `json:"full_name"`
	Phone         *string  `json:"phone"`
	MaxHourlyRate *float64 `json:"max_hourly_rate"`
}

type updateTherapistProfileRequest struct {
	FullName        *string   `json:"full_name"`
	Bio             *string   `json:"bio"`
	Specializations *[]string `json:"specializations"`
	Certifications  *[]string `json:"certifications"`
	ExperienceYears *int      `json:"experience_years"`
	HourlyRate      *float64  `json:"hourly_rate"`
}

func (h *ProfileHandler) UpdateParentProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "parent" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateParentProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateParentProfileUpdateRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.profileService.UpdateParentProfile(c.Context(), userID, repository.UpdateParentProfileInput{
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

func (h *ProfileHandler) UpdateTherapistProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "therapist" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateTherapistProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateTherapistProfileUpdateRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.profileService.UpdateTherapistProfile(c.Context(), userID, repository.UpdateTherapistProfileInput{
		FullName:        req.FullName,
		Bio:             req.Bio,
		Specializations: req.Specializations,
		Certifications:  req.Certifications,
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      decimalFromFloat(req.HourlyRate),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) GetParentProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "parent" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.parentProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) GetTherapistProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "therapist" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.therapistProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func decimalFromFloat(value *float64) *decimal.Decimal {
	if value == nil {
		return nil
	}
	d := decimal.NewFromFloat(*value)
	return &d
}

func parseProfileUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}
