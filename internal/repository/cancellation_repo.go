package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
)

type CreateCancellationInput struct {
	SessionID        int64
	CancelledBy      int64
	IdempotencyKey   uuid.UUID
	Reason           *string
	RefundAmount     decimal.Decimal
	RefundPercentage int64
	PolicyVersion    int
}

type CancellationRepository struct {
	db DBTX
}

func NewCancellationRepository(db DBTX) *CancellationRepository {
	return &CancellationRepository{db: db}
}

const cancellationColumns = `id, session_id, cancelled_by, idempotency_key, reason,
	refund_amount, refund_percentage, policy_version, created_at`

func scanCancellation(row interface{ Scan(dest ...any) error }) (*models.Cancellation, error) {
	var cancellation models.Cancellation
	err := row.Scan(
		&cancellation.ID,
		&cancellation.SessionID,
		&cancellation.CancelledBy,
		&cancellation.IdempotencyKey,
		&cancellation.Reason,
		&cancellation.RefundAmount,
		&cancellation.RefundPercentage,
		&cancellation.PolicyVersion,
		&cancellation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cancellation, nil
}

func (r *CancellationRepository) Create(
	ctx context.Context,
	input CreateCancellationInput,
) (*models.Cancellation, error) {
	query := `
		INSERT INTO cancellations (session_id, cancelled_by, idempotency_key, reason, refund_amount, refund_percentage, policy_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + cancellationColumns

	return scanCancellation(r.db.QueryRow(
		ctx, query,
		input.SessionID,
		input.CancelledBy,
		input.IdempotencyKey,
		input.Reason,
		input.RefundAmount,
		input.RefundPercentage,
		input.PolicyVersion,
	))
}

func (r *CancellationRepository) GetByIdempotencyKey(
	ctx context.Context,
	key uuid.UUID,
) (*models.Cancellation, error) {
	query := `
		SELECT ` + cancellationColumns + `
		FROM cancellations
		WHERE idempotency_key = $1
	`
	return scanCancellation(r.db.QueryRow(ctx, query, key))
}

func (r *CancellationRepository) GetBySessionID(
	ctx context.Context,
	sessionID int64,
) (*models.Cancellation, error) {
	query := `
		SELECT ` + cancellationColumns + `
		FROM cancellations
		WHERE session_id = $1
		ORDER BY id DESC
		LIMIT 1
	`
	return scanCancellation(r.db.QueryRow(ctx, query, sessionID))
}
