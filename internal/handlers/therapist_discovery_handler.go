package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
	"github.com/arman-rs/ClinicAppBack/internal/services"
)

type therapistDiscoveryRepository interface {
	List(ctx context.Context, filter repository.TherapistListFilter) ([]models.TherapistProfile, int, error)
	GetByUserID(ctx context.Context, userID int64) (*models.TherapistProfile, error)
	GetAvailableSlotsPreview(ctx context.Context, therapistID int64, limit int) ([]string, error)
}

type parentDiscoveryRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.ParentProfile, error)
}

type childDiscoveryRepository interface {
	GetByID(ctx context.Context, childID int64) (*models.Child, error)
}

type therapistMatchmaker interface {
	GetMatchedTherapists(ctx context.Context, parentProfile *models.ParentProfile, child *models.Child, limit int) ([]models.TherapistWithScore, error)
}

type TherapistDiscoveryHandler struct {
	therapistRepo     therapistDiscoveryRepository
	parentProfileRepo parentDiscoveryRepository
	childRepo         childDiscoveryRepository
	matchingService   therapistMatchmaker
}

func NewTherapistDiscoveryHandler(
	therapistRepo therapistDiscoveryRepository,
	parentProfileRepo parentDiscoveryRepository,
	childRepo childDiscoveryRepository,
	matchingService therapistMatchmaker,
) *TherapistDiscoveryHandler {
	return &TherapistDiscoveryHandler{
		therapistRepo:     therapistRepo,
		parentProfileRepo: parentProfileRepo,
		childRepo:         childRepo,
		matchingService:   matchingService,
	}
}

func (h *TherapistDiscoveryHandler) ListTherapists(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	minRating, err := parseNonNegativeFloat(c.Query("min_rating"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_rating must be a valid non-negative number"})
	}
	maxPrice, err := parseNonNegativeFloat(c.Query("max_price"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_price must be a valid non-negative number"})
	}
	experience, err := parseNonNegativeInt(c.Query("experience"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "experience must be a valid non-negative integer"})
	}

	therapists, total, err := h.therapistRepo.List(c.Context(), repository.TherapistListFilter{
		Specialization: strings.TrimSpace(c.Query("specialization")),
		MinRating:      minRating,
		MaxPrice:       maxPrice,
		Experience:     experience,
		Offset:         (page - 1) * limit,
		Limit:          limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch therapists"})
	}

	response := make([]models.TherapistListResponse, 0, len(therapists))
	for _, therapist := range therapists {
		response = append(response, buildTherapistListResponse(therapist, 0))
	}

	return c.JSON(fiber.Map{
		"therapists": response,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

// GetRecommendedTherapists ranks therapists against one of the parent's
// children, chosen with the child_id query parameter.
func (h *TherapistDiscoveryHandler) GetRecommendedTherapists(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "parent" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	parentID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	childID, err := strconv.ParseInt(c.Query("child_id"), 10, 64)
	if err != nil || childID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "child_id must be a positive integer"})
	}

	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	parentProfile, err := h.parentProfileRepo.GetByUserID(c.Context(), parentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch parent profile"})
	}

	child, err := h.childRepo.GetByID(c.Context(), childID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Child not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch child"})
	}
	if child.ParentID != parentID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	therapists, err := h.matchingService.GetMatchedTherapists(c.Context(), parentProfile, child, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recommended therapists"})
	}

	response := make([]models.TherapistListResponse, 0, len(therapists))
	for _, therapist := range therapists {
		response = append(response, buildTherapistListResponse(therapist.TherapistProfile, therapist.MatchScore))
	}

	return c.JSON(fiber.Map{"therapists": response})
}

func (h *TherapistDiscoveryHandler) GetTherapistDetail(c *fiber.Ctx) error {
	therapistID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || therapistID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid therapist id"})
	}

	therapist, err := h.therapistRepo.GetByUserID(c.Context(), therapistID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Therapist not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch therapist"})
	}

	slots, err := h.therapistRepo.GetAvailableSlotsPreview(c.Context(), therapistID, 3)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch therapist availability"})
	}

	return c.JSON(fiber.Map{
		"therapist": buildTherapistDetailResponse(*therapist, slots),
	})
}

func buildTherapistListResponse(therapist models.TherapistProfile, matchScore int) models.TherapistListResponse {
	hourlyRate := "0.00"
	if therapist.HourlyRate.Valid {
		hourlyRate = therapist.HourlyRate.Decimal.StringFixed(2)
	}

	response := models.TherapistListResponse{
		ID:              strconv.FormatInt(therapist.UserID, 10),
		FullName:        stringValue(therapist.FullName),
		Specializations: stringSliceValue(therapist.Specializations),
		ExperienceYears: intValueResponse(therapist.ExperienceYears),
		HourlyRate:      hourlyRate,
		Rating:          floatValueResponse(therapist.Rating),
		TotalPatients:   intValueResponse(therapist.TotalPatients),
	}
	if matchScore > 0 {
		response.MatchScore = matchScore
	}
	return response
}

func buildTherapistDetailResponse(therapist models.TherapistProfile, slots []string) models.TherapistDetailResponse {
	return models.TherapistDetailResponse{
		TherapistListResponse: buildTherapistListResponse(therapist, 0),
		Bio:                   stringValue(therapist.Bio),
		Certifications:        stringSliceValue(therapist.Certifications),
		IsVerified:            boolValue(therapist.IsVerified),
		AvailableSlots:        slots,
		OnboardingComplete:    therapist.OnboardingComplete,
	}
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseNonNegativeInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errInvalidNumber
	}
	return value, nil
}

func parseNonNegativeFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, errInvalidNumber
	}
	return value, nil
}

var errInvalidNumber = errors.New("invalid number")

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func stringSliceValue(value *[]string) []string {
	if value == nil {
		return []string{}
	}
	return *value
}

func floatValueResponse(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValueResponse(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func boolValue(value *bool) bool {
	if value == nil {
		return false
	}
	return *value
}

var _ services.TherapistMatcher = (*repository.TherapistProfileRepository)(nil)
