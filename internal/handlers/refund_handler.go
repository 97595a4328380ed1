package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/policy"
	"github.com/arman-rs/ClinicAppBack/internal/services"
)

// RefundHandler exposes the quote/commit pair for cancellations and the
// rate-gated reschedule endpoints.
type RefundHandler struct {
	service  refundApplicationService
	clinicTZ *time.Location
}

type refundApplicationService interface {
	QuoteCancellation(ctx context.Context, actorID int64, role string, sessionID int64) (*policy.RefundQuote, error)
	CancelSession(ctx context.Context, actorID int64, role string, sessionID int64, input services.CancelSessionInput) (*services.CancellationResult, error)
	CheckRescheduleEligibility(ctx context.Context, actorID int64, role string, sessionID int64) (*policy.RescheduleEligibility, error)
	RescheduleSession(ctx context.Context, actorID int64, role string, sessionID int64, input services.RescheduleSessionInput) (*models.Session, error)
}

func NewRefundHandler(service *services.RefundService, clinicTZ *time.Location) *RefundHandler {
	return &RefundHandler{service: service, clinicTZ: clinicTZ}
}

type cancelSessionRequest struct {
	Quote          policy.RefundQuote `json:"quote"`
	Reason         *string            `json:"reason"`
	IdempotencyKey string             `json:"idempotency_key"`
}

type rescheduleSessionRequest struct {
	NewScheduledAt    string     `json:"new_scheduled_at"`
	ExpectedUpdatedAt *time.Time `json:"expected_updated_at"`
	Reason            *string    `json:"reason"`
}

func (h *RefundHandler) GetRefundQuote(c *fiber.Ctx) error {
	actorID, role, sessionID, err := sessionRequestIdentity(c)
	if err != nil {
		return nil
	}

	quote, err := h.service.QuoteCancellation(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"quote": quote})
}

func (h *RefundHandler) CancelSession(c *fiber.Ctx) error {
	actorID, role, sessionID, err := sessionRequestIdentity(c)
	if err != nil {
		return nil
	}

	var req cancelSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	key, err := uuid.Parse(strings.TrimSpace(req.IdempotencyKey))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "idempotency_key must be a valid UUID"})
	}
	if req.Reason != nil && strings.TrimSpace(*req.Reason) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reason must not be empty"})
	}

	result, err := h.service.CancelSession(c.Context(), actorID, role, sessionID, services.CancelSessionInput{
		ClientQuote:    req.Quote,
		Reason:         req.Reason,
		IdempotencyKey: key,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{
		"session":      result.Session,
		"cancellation": result.Cancellation,
		"replayed":     result.Replayed,
	})
}

func (h *RefundHandler) GetRescheduleEligibility(c *fiber.Ctx) error {
	actorID, role, sessionID, err := sessionRequestIdentity(c)
	if err != nil {
		return nil
	}

	eligibility, err := h.service.CheckRescheduleEligibility(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"eligibility": eligibility})
}

func (h *RefundHandler) RescheduleSession(c *fiber.Ctx) error {
	actorID, role, sessionID, err := sessionRequestIdentity(c)
	if err != nil {
		return nil
	}

	var req rescheduleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	newScheduledAt, err := policy.ParseScheduledAt(req.NewScheduledAt, h.clinicTZ)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "new_scheduled_at must be a valid timestamp"})
	}

	input := services.RescheduleSessionInput{
		NewScheduledAt: newScheduledAt,
		Reason:         req.Reason,
	}
	if req.ExpectedUpdatedAt != nil {
		input.ExpectedUpdatedAt = *req.ExpectedUpdatedAt
	}

	session, err := h.service.RescheduleSession(c.Context(), actorID, role, sessionID, input)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

var errIdentityRejected = fiber.NewError(fiber.StatusForbidden, "identity rejected")

// sessionRequestIdentity validates the authenticated actor and the :id
// parameter; on failure the response is already written and the returned
// error only tells the caller to stop.
func sessionRequestIdentity(c *fiber.Ctx) (int64, string, int64, error) {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "parent" && role != "therapist") {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, "", 0, errIdentityRejected
	}

	actorID, err := parseProfileUserID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return 0, "", 0, errIdentityRejected
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
		return 0, "", 0, errIdentityRejected
	}

	return actorID, role, sessionID, nil
}
