package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/policy"
	"github.com/arman-rs/ClinicAppBack/internal/services"
)

type stubRefundService struct {
	quoteResult       *policy.RefundQuote
	quoteErr          error
	cancelResult      *services.CancellationResult
	cancelErr         error
	eligibilityResult *policy.RescheduleEligibility
	eligibilityErr    error
	rescheduleResult  *models.Session
	rescheduleErr     error
	lastActorID       int64
	lastRole          string
	lastSessionID     int64
	lastCancelInput   services.CancelSessionInput
	lastReschedule    services.RescheduleSessionInput
}

func (s *stubRefundService) QuoteCancellation(_ context.Context, actorID int64, role string, sessionID int64) (*policy.RefundQuote, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	return s.quoteResult, s.quoteErr
}

func (s *stubRefundService) CancelSession(_ context.Context, actorID int64, role string, sessionID int64, input services.CancelSessionInput) (*services.CancellationResult, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	s.lastCancelInput = input
	return s.cancelResult, s.cancelErr
}

func (s *stubRefundService) CheckRescheduleEligibility(_ context.Context, actorID int64, role string, sessionID int64) (*policy.RescheduleEligibility, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	return s.eligibilityResult, s.eligibilityErr
}

func (s *stubRefundService) RescheduleSession(_ context.Context, actorID int64, role string, sessionID int64, input services.RescheduleSessionInput) (*models.Session, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	s.lastReschedule = input
	return s.rescheduleResult, s.rescheduleErr
}

func newRefundTestApp(handler *RefundHandler, role, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/v1/sessions/:id/refund-quote", handler.GetRefundQuote)
	app.Post("/api/v1/sessions/:id/cancel", handler.CancelSession)
	app.Get("/api/v1/sessions/:id/reschedule-eligibility", handler.GetRescheduleEligibility)
	app.Post("/api/v1/sessions/:id/reschedule", handler.RescheduleSession)
	return app
}

func TestGetRefundQuoteReturnsQuote(t *testing.T) {
	service := &stubRefundService{
		quoteResult: &policy.RefundQuote{
			OriginalAmount:     decimal.NewFromInt(120),
			RefundAmount:       decimal.NewFromInt(60),
			RefundPercentage:   50,
			HoursBeforeSession: 5.5,
			CanRefund:          true,
			PolicyVersion:      1,
		},
	}
	handler := &RefundHandler{service: service}
	app := newRefundTestApp(handler, "parent", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/17/refund-quote", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 17 || service.lastActorID != 42 {
		t.Fatalf("unexpected forwarded identity: session %d actor %d", service.lastSessionID, service.lastActorID)
	}

	var body struct {
		Quote policy.RefundQuote `json:"quote"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Quote.RefundPercentage != 50 || !body.Quote.RefundAmount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected quote: %+v", body.Quote)
	}
}

func TestCancelSessionForwardsQuoteAndIdempotencyKey(t *testing.T) {
	service := &stubRefundService{
		cancelResult: &services.CancellationResult{
			Session: models.Session{ID: 17, Status: policy.StatusCancelled},
			Cancellation: models.Cancellation{
				ID:               4,
				SessionID:        17,
				RefundAmount:     decimal.NewFromInt(60),
				RefundPercentage: 50,
				PolicyVersion:    1,
			},
		},
	}
	handler := &RefundHandler{service: service}
	app := newRefundTestApp(handler, "parent", "42")

	key := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/17/cancel", strings.NewReader(`{
		"quote": {
			"original_amount": "120",
			"refund_amount": "60",
			"refund_percentage": 50,
			"hours_before_session": 5.5,
			"can_refund": true,
			"policy_version": 1
		},
		"reason": "family emergency",
		"idempotency_key": "`+key.String()+`"
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
	if service.lastCancelInput.IdempotencyKey != key {
		t.Fatalf("expected key %s, got %s", key, service.lastCancelInput.IdempotencyKey)
	}
	if !service.lastCancelInput.ClientQuote.RefundAmount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected forwarded quote: %+v", service.lastCancelInput.ClientQuote)
	}
	if service.lastCancelInput.Reason == nil || *service.lastCancelInput.Reason != "family emergency" {
		t.Fatalf("expected forwarded reason, got %v", service.lastCancelInput.Reason)
	}
}

func TestCancelSessionRejectsMalformedIdempotencyKey(t *testing.T) {
	service := &stubRefundService{}
	handler := &RefundHandler{service: service}
	app := newRefundTestApp(handler, "parent", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/17/cancel", strings.NewReader(`{
		"quote": {"refund_percentage": 50},
		"idempotency_key": "not-a-uuid"
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

func TestCancelSessionMapsQuoteMismatchToConflict(t *testing.T) {
	service := &stubRefundService{cancelErr: services.ErrQuoteMismatch}
	handler := &RefundHandler{service: service}
	app := newRefundTestApp(handler, "parent", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/17/cancel", strings.NewReader(`{
		"quote": {"refund_percentage": 100},
		"idempotency_key": "`+uuid.NewString()+`"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestGetRescheduleEligibilityReportsRateGate(t *testing.T) {
	original := decimal.NewFromInt(90)
	current := decimal.NewFromInt(110)
	service := &stubRefundService{
		eligibilityResult: &policy.RescheduleEligibility{
			Reason:       policy.RescheduleRateChanged,
			OriginalRate: &original,
			CurrentRate:  &current,
		},
	}
	handler := &RefundHandler{service: service}
	app := newRefundTestApp(handler, "parent", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/17/reschedule-eligibility", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Eligibility policy.RescheduleEligibility `json:"eligibility"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Eligibility.CanReschedule || body.Eligibility.Reason != policy.RescheduleRateChanged {
		t.Fatalf("unexpected eligibility: %+v", body.Eligibility)
	}
}

func TestRescheduleSessionForwardsVersionToken(t *testing.T) {
	updatedAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	service := &stubRefundService{
		rescheduleResult: &models.Session{ID: 17, Status: policy.StatusConfirmed},
	}
	handler := &RefundHandler{service: service}
	app := newRefundTestApp(handler, "parent", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/17/reschedule", strings.NewReader(`{
		"new_scheduled_at": "2026-04-20T15:00:00Z",
		"expected_updated_at": "2026-04-01T10:00:00Z"
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
	if !service.lastReschedule.ExpectedUpdatedAt.Equal(updatedAt) {
		t.Fatalf("expected version token %v, got %v", updatedAt, service.lastReschedule.ExpectedUpdatedAt)
	}
	want := time.Date(2026, 4, 20, 15, 0, 0, 0, time.UTC)
	if !service.lastReschedule.NewScheduledAt.Equal(want) {
		t.Fatalf("expected new time %v, got %v", want, service.lastReschedule.NewScheduledAt)
	}
}

func TestRescheduleSessionMapsConcurrentModificationToConflict(t *testing.T) {
	service := &stubRefundService{rescheduleErr: services.ErrConcurrentModification}
	handler := &RefundHandler{service: service}
	app := newRefundTestApp(handler, "parent", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/17/reschedule", strings.NewReader(`{
		"new_scheduled_at": "2026-04-20T15:00:00Z"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRefundEndpointsRejectUnknownRole(t *testing.T) {
	service := &stubRefundService{}
	handler := &RefundHandler{service: service}
	app := newRefundTestApp(handler, "admin", "1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/17/refund-quote", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
