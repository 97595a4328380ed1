package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
)

type CreateSessionInput struct {
	ParentID        int64
	ChildID         int64
	TherapistID     int64
	ScheduledAt     time.Time
	DurationMinutes int
	RateAtBooking   decimal.Decimal
	Notes           *string
}

type SessionListFilter struct {
	ActorID            int64
	Role               string
	Status             string
	Timeframe          string
	NeedsDocumentation bool
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, parent_id, child_id, therapist_id, scheduled_at, duration_min,
	status, rate_at_booking, notes, created_at, updated_at`

func scanSession(row interface{ Scan(dest ...any) error }) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.ParentID,
		&session.ChildID,
		&session.TherapistID,
		&session.ScheduledAt,
		&session.DurationMinutes,
		&session.Status,
		&session.RateAtBooking,
		&session.Notes,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		INSERT INTO sessions (parent_id, child_id, therapist_id, scheduled_at, duration_min, status, rate_at_booking, notes)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', $6, $7)
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.ParentID,
		input.ChildID,
		input.TherapistID,
		input.ScheduledAt,
		input.DurationMinutes,
		input.RateAtBooking,
		input.Notes,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE id = $1
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(
	ctx context.Context,
	sessionID int64,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.Session, error) {
	actorColumn := "parent_id"
	if filter.Role == "therapist" {
		actorColumn = "therapist_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) > NOW()",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) <= NOW()",
		)
	}

	if filter.NeedsDocumentation {
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) < NOW()",
			"status IN ('scheduled', 'approved', 'confirmed')",
		)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY scheduled_at ASC, id ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// UpdateStatusIfCurrent performs an optimistic status transition: the update
// applies only if the session still carries currentStatus, otherwise it
// reports pgx.ErrNoRows and the caller treats it as a concurrent modification.
func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

func (r *SessionRepository) UpdateNotesAndStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
	notes *string,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = $3, notes = COALESCE($4, notes), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus, notes))
}

// RescheduleIfUnchanged moves a session to a new time only if nothing touched
// the row since the caller read it (updated_at acts as the version column).
func (r *SessionRepository) RescheduleIfUnchanged(
	ctx context.Context,
	sessionID int64,
	expectedUpdatedAt time.Time,
	newScheduledAt time.Time,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET scheduled_at = $3, updated_at = NOW()
		WHERE id = $1 AND updated_at = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, expectedUpdatedAt, newScheduledAt))
}

func (r *SessionRepository) HasConflict(
	ctx context.Context,
	therapistID int64,
	requestedTime time.Time,
	durationMinutes int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE therapist_id = $1
			  AND status NOT IN ('cancelled', 'declined')
			  AND scheduled_at < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, therapistID, requestedTime, durationMinutes).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

func (r *SessionRepository) HasConflictExcludingSession(
	ctx context.Context,
	therapistID int64,
	requestedTime time.Time,
	durationMinutes int,
	excludedSessionID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE therapist_id = $1
			  AND id <> $4
			  AND status NOT IN ('cancelled', 'declined')
			  AND scheduled_at < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, therapistID, requestedTime, durationMinutes, excludedSessionID).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}
