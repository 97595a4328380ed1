package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
)

type CreatePaymentInput struct {
	SessionID   int64
	ParentID    int64
	TherapistID int64
	Amount      decimal.Decimal
	Status      string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, session_id, parent_id, therapist_id, amount, status, refunded_amount, created_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.SessionID,
		&payment.ParentID,
		&payment.TherapistID,
		&payment.Amount,
		&payment.Status,
		&payment.RefundedAmount,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (session_id, parent_id, therapist_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + paymentColumns

	return scanPayment(r.db.QueryRow(
		ctx, query,
		input.SessionID, input.ParentID, input.TherapistID, input.Amount, input.Status,
	))
}

func (r *PaymentRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE session_id = $1
		ORDER BY id DESC
		LIMIT 1
	`
	return scanPayment(r.db.QueryRow(ctx, query, sessionID))
}

func (r *PaymentRepository) GetBySessionIDForUpdate(ctx context.Context, sessionID int64) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE session_id = $1
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE
	`
	return scanPayment(r.db.QueryRow(ctx, query, sessionID))
}

func (r *PaymentRepository) ListBySessionIDs(ctx context.Context, sessionIDs []int64) (map[int64]models.Payment, error) {
	payments := make(map[int64]models.Payment, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT DISTINCT ON (session_id) ` + paymentColumns + `
		FROM payments
		WHERE session_id = ANY($1)
		ORDER BY session_id, id DESC
	`

	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments[payment.SessionID] = *payment
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *PaymentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	paymentID int64,
	currentStatus string,
	nextStatus string,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING ` + paymentColumns

	return scanPayment(r.db.QueryRow(ctx, query, paymentID, currentStatus, nextStatus))
}

// ApplyRefund records the refunded amount alongside the status flip so the
// payment row always tells how much actually went back.
func (r *PaymentRepository) ApplyRefund(
	ctx context.Context,
	paymentID int64,
	currentStatus string,
	nextStatus string,
	refundedAmount decimal.Decimal,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $3, refunded_amount = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + paymentColumns

	return scanPayment(r.db.QueryRow(ctx, query, paymentID, currentStatus, nextStatus, refundedAmount))
}
