package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/policy"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrTherapistNotFound      = errors.New("therapist not found")
	ErrChildNotFound          = errors.New("child not found")
	ErrQuoteMismatch          = errors.New("refund quote mismatch")
	ErrConcurrentModification = errors.New("session was modified concurrently")
	ErrNotEligible            = errors.New("not eligible")
)

type therapistProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.TherapistProfile, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type childReader interface {
	GetByID(ctx context.Context, childID int64) (*models.Child, error)
}

type SessionService struct {
	db                   *pgxpool.Pool
	sessionRepo          *repository.SessionRepository
	paymentRepo          *repository.PaymentRepository
	userRepo             userReader
	childRepo            childReader
	therapistProfileRepo therapistProfileReader
	now                  func() time.Time
}

func NewSessionService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	paymentRepo *repository.PaymentRepository,
	userRepo userReader,
	childRepo childReader,
	therapistProfileRepo therapistProfileReader,
) *SessionService {
	return &SessionService{
		db:                   db,
		sessionRepo:          sessionRepo,
		paymentRepo:          paymentRepo,
		userRepo:             userRepo,
		childRepo:            childRepo,
		therapistProfileRepo: therapistProfileRepo,
		now:                  func() time.Time { return time.Now().UTC() },
	}
}

type BookSessionInput struct {
	ChildID         int64
	TherapistID     int64
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           *string
}

func (s *SessionService) BookSession(
	ctx context.Context,
	parentID int64,
	input BookSessionInput,
) (*models.SessionDetail, error) {
	if input.ChildID <= 0 || input.TherapistID <= 0 || input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if input.ScheduledAt.Before(s.now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}
	if parentID == input.TherapistID {
		return nil, ErrInvalidInput
	}

	child, err := s.childRepo.GetByID(ctx, input.ChildID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChildNotFound
		}
		return nil, err
	}
	if child.ParentID != parentID {
		return nil, ErrForbidden
	}

	therapist, err := s.userRepo.GetByID(ctx, input.TherapistID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	if therapist.Role != "therapist" {
		return nil, ErrInvalidInput
	}

	profile, err := s.therapistProfileRepo.GetByUserID(ctx, input.TherapistID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	if !profile.OnboardingComplete || !profile.HourlyRate.Valid ||
		!profile.HourlyRate.Decimal.IsPositive() {
		return nil, ErrInvalidInput
	}

	// The rate is frozen into the session at booking time; the reschedule
	// gate later compares it against the therapist's then-current rate.
	rateAtBooking := profile.HourlyRate.Decimal
	amount := rateAtBooking.
		Mul(decimal.NewFromInt(int64(input.DurationMinutes))).
		Div(decimal.NewFromInt(60)).
		Round(2)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.TherapistID); err != nil {
		return nil, err
	}

	hasConflict, err := txSessionRepo.HasConflict(
		ctx,
		input.TherapistID,
		input.ScheduledAt.UTC(),
		input.DurationMinutes,
	)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		ParentID:        parentID,
		ChildID:         input.ChildID,
		TherapistID:     input.TherapistID,
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		RateAtBooking:   rateAtBooking,
		Notes:           input.Notes,
	})
	if err != nil {
		return nil, err
	}

	payment, err := txPaymentRepo.Create(ctx, repository.CreatePaymentInput{
		SessionID:   session.ID,
		ParentID:    parentID,
		TherapistID: input.TherapistID,
		Amount:      amount,
		Status:      "placeholder",
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.buildDetail(*session, payment)
}

func (s *SessionService) CheckAvailability(
	ctx context.Context,
	therapistID int64,
	requestedTime time.Time,
	durationMins int,
) (bool, error) {
	hasConflict, err := s.sessionRepo.HasConflict(ctx, therapistID, requestedTime.UTC(), durationMins)
	if err != nil {
		return false, err
	}
	return !hasConflict, nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID int64,
	role string,
	filter repository.SessionListFilter,
) ([]models.SessionDetail, error) {
	sessions, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		ActorID:            actorID,
		Role:               role,
		Status:             filter.Status,
		Timeframe:          filter.Timeframe,
		NeedsDocumentation: filter.NeedsDocumentation,
	})
	if err != nil {
		return nil, err
	}

	sessionIDs := make([]int64, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}

	paymentsBySession, err := s.paymentRepo.ListBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.SessionDetail, 0, len(sessions))
	for _, session := range sessions {
		var payment *models.Payment
		if p, ok := paymentsBySession[session.ID]; ok {
			paymentCopy := p
			payment = &paymentCopy
		}
		detail, err := s.buildDetail(session, payment)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}

	return details, nil
}

func (s *SessionService) GetSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	var payment *models.Payment
	p, err := s.paymentRepo.GetBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		payment = p
	}
	return s.buildDetail(*session, payment)
}

// UpdateStatus handles the therapist-side transitions: approve, decline,
// document (complete) and no-show. Parent cancellations never come through
// here; they go through the refund commit path so the quote check applies.
func (s *SessionService) UpdateStatus(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	requestedStatus string,
	notes *string,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	nextStatus, err := normalizeRequestedStatus(requestedStatus)
	if err != nil {
		return nil, err
	}
	if err := s.validateStatusTransition(role, session, nextStatus); err != nil {
		return nil, err
	}

	var updated *models.Session
	if nextStatus == policy.StatusCompleted {
		updated, err = s.sessionRepo.UpdateNotesAndStatusIfCurrent(
			ctx, sessionID, string(session.Status), string(nextStatus), notes,
		)
	} else {
		updated, err = s.sessionRepo.UpdateStatusIfCurrent(
			ctx, sessionID, string(session.Status), string(nextStatus),
		)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	return s.GetSession(ctx, actorID, role, updated.ID)
}

func (s *SessionService) PayForSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.SessionDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPaymentRepo := repository.NewPaymentRepository(tx)
	txSessionRepo := repository.NewSessionRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if role != "parent" || session.ParentID != actorID {
		return nil, ErrForbidden
	}
	payment, err := txPaymentRepo.GetBySessionIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if payment.Status == "paid" {
		return s.GetSession(ctx, actorID, role, sessionID)
	}
	if session.Status != policy.StatusScheduled && session.Status != policy.StatusApproved {
		return nil, ErrInvalidStateTransition
	}
	if !session.ScheduledAt.After(s.now()) {
		return nil, ErrInvalidStateTransition
	}

	if _, err := txPaymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, "placeholder", "paid"); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	if _, err := txSessionRepo.UpdateStatusIfCurrent(
		ctx, sessionID, string(session.Status), string(policy.StatusConfirmed),
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.GetSession(ctx, actorID, role, sessionID)
}

func (s *SessionService) buildDetail(
	session models.Session,
	payment *models.Payment,
) (*models.SessionDetail, error) {
	classification, err := policy.Classify(
		session.ScheduledAt,
		session.DurationMinutes,
		session.Status,
		s.now(),
	)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{
		Session:   session,
		Lifecycle: classification,
		Actions:   policy.Actions(classification),
		Payment:   payment,
	}, nil
}

func canAccessSession(role string, actorID int64, session *models.Session) bool {
	if role == "parent" {
		return session.ParentID == actorID
	}
	if role == "therapist" {
		return session.TherapistID == actorID
	}
	return false
}

func normalizeRequestedStatus(status string) (policy.SessionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approve", "approved":
		return policy.StatusApproved, nil
	case "decline", "declined":
		return policy.StatusDeclined, nil
	case "complete", "completed", "document", "documented":
		return policy.StatusCompleted, nil
	case "no_show", "noshow":
		return policy.StatusNoShow, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s *SessionService) validateStatusTransition(
	role string,
	session *models.Session,
	nextStatus policy.SessionStatus,
) error {
	if role != "therapist" {
		return ErrForbidden
	}
	if session.Status.IsTerminal() {
		return ErrInvalidStateTransition
	}

	switch nextStatus {
	case policy.StatusApproved:
		if session.Status != policy.StatusScheduled {
			return ErrInvalidStateTransition
		}
	case policy.StatusDeclined:
		// Declining is only possible before the booking is confirmed.
		if session.Status != policy.StatusScheduled && session.Status != policy.StatusApproved {
			return ErrInvalidStateTransition
		}
	case policy.StatusCompleted:
		classification, err := policy.Classify(
			session.ScheduledAt, session.DurationMinutes, session.Status, s.now(),
		)
		if err != nil {
			return err
		}
		if !classification.IsPast {
			return ErrInvalidStateTransition
		}
	case policy.StatusNoShow:
		if !session.ScheduledAt.Before(s.now()) {
			return ErrInvalidStateTransition
		}
	default:
		return ErrInvalidStatus
	}
	return nil
}
