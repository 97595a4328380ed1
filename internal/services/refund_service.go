package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/policy"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
)

// RefundService owns the money-sensitive half of the session lifecycle:
// quoting refunds, committing parent cancellations and moving sessions to a
// new time. Every commit revalidates the state it read under a row lock.
type RefundService struct {
	db                   *pgxpool.Pool
	sessionRepo          *repository.SessionRepository
	paymentRepo          *repository.PaymentRepository
	cancellationRepo     *repository.CancellationRepository
	therapistProfileRepo therapistProfileReader
	policy               policy.RefundPolicy
	now                  func() time.Time
}

func NewRefundService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	paymentRepo *repository.PaymentRepository,
	cancellationRepo *repository.CancellationRepository,
	therapistProfileRepo therapistProfileReader,
	refundPolicy policy.RefundPolicy,
) *RefundService {
	return &RefundService{
		db:                   db,
		sessionRepo:          sessionRepo,
		paymentRepo:          paymentRepo,
		cancellationRepo:     cancellationRepo,
		therapistProfileRepo: therapistProfileRepo,
		policy:               refundPolicy,
		now:                  func() time.Time { return time.Now().UTC() },
	}
}

// QuoteCancellation computes the refund the parent would receive if they
// cancelled right now. The quote is advisory; CancelSession recomputes it
// server-side and rejects the commit when the two disagree.
func (s *RefundService) QuoteCancellation(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*policy.RefundQuote, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	if !session.Status.IsActive() {
		return nil, ErrNotEligible
	}

	amount, err := s.refundBase(ctx, session)
	if err != nil {
		return nil, err
	}

	quote, err := s.policy.Quote(amount, session.ScheduledAt, s.now())
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

type CancelSessionInput struct {
	ClientQuote    policy.RefundQuote
	Reason         *string
	IdempotencyKey uuid.UUID
}

type CancellationResult struct {
	Session      models.Session      `json:"session"`
	Cancellation models.Cancellation `json:"cancellation"`
	Replayed     bool                `json:"replayed"`
}

// CancelSession commits a parent cancellation. The flow is:
// idempotency-key replay check, row lock, eligibility, server-side quote,
// quote agreement, optimistic status flip, refund application, audit record.
func (s *RefundService) CancelSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	input CancelSessionInput,
) (*CancellationResult, error) {
	if role != "parent" {
		return nil, ErrForbidden
	}
	if input.IdempotencyKey == uuid.Nil {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)
	txCancellationRepo := repository.NewCancellationRepository(tx)

	prior, err := txCancellationRepo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		// A retry with the same key returns the original outcome. The same
		// key pointing at a different session is a client bug.
		if prior.SessionID != sessionID {
			return nil, ErrInvalidInput
		}
		session, err := txSessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &CancellationResult{
			Session:      *session,
			Cancellation: *prior,
			Replayed:     true,
		}, nil
	}

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.ParentID != actorID {
		return nil, ErrForbidden
	}

	classification, err := policy.Classify(
		session.ScheduledAt, session.DurationMinutes, session.Status, s.now(),
	)
	if err != nil {
		return nil, err
	}
	if classification.Phase != policy.PhaseUpcoming {
		return nil, ErrNotEligible
	}

	amount, err := refundBaseTx(ctx, txPaymentRepo, session)
	if err != nil {
		return nil, err
	}

	serverQuote, err := s.policy.Quote(amount, session.ScheduledAt, s.now())
	if err != nil {
		return nil, err
	}
	if !serverQuote.Matches(input.ClientQuote) {
		return nil, ErrQuoteMismatch
	}

	updated, err := txSessionRepo.UpdateStatusIfCurrent(
		ctx, sessionID, string(session.Status), string(policy.StatusCancelled),
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}

	if err := s.settleRefund(ctx, txPaymentRepo, sessionID, serverQuote); err != nil {
		return nil, err
	}

	cancellation, err := txCancellationRepo.Create(ctx, repository.CreateCancellationInput{
		SessionID:        sessionID,
		CancelledBy:      actorID,
		IdempotencyKey:   input.IdempotencyKey,
		Reason:           input.Reason,
		RefundAmount:     serverQuote.RefundAmount,
		RefundPercentage: serverQuote.RefundPercentage,
		PolicyVersion:    serverQuote.PolicyVersion,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &CancellationResult{
		Session:      *updated,
		Cancellation: *cancellation,
	}, nil
}

func (s *RefundService) settleRefund(
	ctx context.Context,
	txPaymentRepo *repository.PaymentRepository,
	sessionID int64,
	quote policy.RefundQuote,
) error {
	payment, err := txPaymentRepo.GetBySessionIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	switch payment.Status {
	case "placeholder":
		_, err = txPaymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, "placeholder", "voided")
		return err
	case "paid":
		nextStatus := "refunded"
		if quote.RefundPercentage == 0 {
			nextStatus = "forfeited"
		} else if quote.RefundPercentage < 100 {
			nextStatus = "partially_refunded"
		}
		_, err = txPaymentRepo.ApplyRefund(ctx, payment.ID, "paid", nextStatus, quote.RefundAmount)
		return err
	default:
		return nil
	}
}

// refundBase picks what the refund percentage applies to: the captured
// payment amount when one exists, otherwise the rate-derived session price.
func (s *RefundService) refundBase(
	ctx context.Context,
	session *models.Session,
) (decimal.Decimal, error) {
	payment, err := s.paymentRepo.GetBySessionID(ctx, session.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sessionPrice(session), nil
		}
		return decimal.Zero, err
	}
	return payment.Amount, nil
}

func refundBaseTx(
	ctx context.Context,
	txPaymentRepo *repository.PaymentRepository,
	session *models.Session,
) (decimal.Decimal, error) {
	payment, err := txPaymentRepo.GetBySessionID(ctx, session.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sessionPrice(session), nil
		}
		return decimal.Zero, err
	}
	return payment.Amount, nil
}

func sessionPrice(session *models.Session) decimal.Decimal {
	return session.RateAtBooking.
		Mul(decimal.NewFromInt(int64(session.DurationMinutes))).
		Div(decimal.NewFromInt(60)).
		Round(2)
}

// CheckRescheduleEligibility reports whether the session can move to a new
// time, against the therapist's current live rate.
func (s *RefundService) CheckRescheduleEligibility(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*policy.RescheduleEligibility, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	currentRate, err := s.currentTherapistRate(ctx, session.TherapistID)
	if err != nil {
		return nil, err
	}

	eligibility := policy.CheckReschedule(session.RateAtBooking, currentRate, session.Status)
	return &eligibility, nil
}

type RescheduleSessionInput struct {
	NewScheduledAt    time.Time
	ExpectedUpdatedAt time.Time
	Reason            *string
}

func (s *RefundService) RescheduleSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	input RescheduleSessionInput,
) (*models.Session, error) {
	if input.NewScheduledAt.IsZero() {
		return nil, ErrInvalidInput
	}
	if !input.NewScheduledAt.After(s.now()) {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	currentRate, err := s.currentTherapistRate(ctx, session.TherapistID)
	if err != nil {
		return nil, err
	}
	eligibility := policy.CheckReschedule(session.RateAtBooking, currentRate, session.Status)
	if !eligibility.CanReschedule {
		return nil, ErrNotEligible
	}

	hasConflict, err := txSessionRepo.HasConflictExcludingSession(
		ctx,
		session.TherapistID,
		input.NewScheduledAt.UTC(),
		session.DurationMinutes,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	// The caller sends back the updated_at it last saw; a mismatch means
	// someone else touched the session since.
	if !input.ExpectedUpdatedAt.IsZero() && !input.ExpectedUpdatedAt.Equal(session.UpdatedAt) {
		return nil, ErrConcurrentModification
	}

	updated, err := txSessionRepo.RescheduleIfUnchanged(
		ctx, sessionID, session.UpdatedAt, input.NewScheduledAt.UTC(),
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *RefundService) currentTherapistRate(
	ctx context.Context,
	therapistID int64,
) (decimal.Decimal, error) {
	profile, err := s.therapistProfileRepo.GetByUserID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrTherapistNotFound
		}
		return decimal.Zero, err
	}
	if !profile.HourlyRate.Valid {
		return decimal.Zero, ErrTherapistNotFound
	}
	return profile.HourlyRate.Decimal, nil
}
