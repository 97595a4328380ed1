package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
)

type ParentProfileRepository struct {
	db DBTX
}

func NewParentProfileRepository(db DBTX) *ParentProfileRepository {
	return &ParentProfileRepository{db: db}
}

const parentProfileColumns = `id, user_id, full_name, phone, max_hourly_rate,
	onboarding_complete, created_at, updated_at`

func scanParentProfile(row interface{ Scan(dest ...any) error }) (*models.ParentProfile, error) {
	var profile models.ParentProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.MaxHourlyRate,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ParentProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO parent_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *ParentProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.ParentProfile, error) {
	query := `
		SELECT ` + parentProfileColumns + `
		FROM parent_profiles
		WHERE user_id = $1
	`
	return scanParentProfile(r.db.QueryRow(ctx, query, userID))
}

type ParentOnboardingInput struct {
	FullName      string
	Phone         string
	MaxHourlyRate *decimal.Decimal
}

func (r *ParentProfileRepository) UpdateOnboarding(
	ctx context.Context,
	userID int64,
	req ParentOnboardingInput,
) (*models.ParentProfile, error) {
	query := `
		UPDATE parent_profiles
		SET full_name = $1,
			phone = $2,
			max_hourly_rate = $3,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $4
		RETURNING ` + parentProfileColumns

	return scanParentProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Phone,
		req.MaxHourlyRate,
		userID,
	))
}

type UpdateParentProfileInput struct {
	FullName      *string
	Phone         *string
	MaxHourlyRate *decimal.Decimal
}

func (r *ParentProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	req UpdateParentProfileInput,
) (*models.ParentProfile, error) {
	query := `
		UPDATE parent_profiles
		SET full_name = COALESCE($1, full_name),
			phone = COALESCE($2, phone),
			max_hourly_rate = COALESCE($3, max_hourly_rate),
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $4
		RETURNING ` + parentProfileColumns

	return scanParentProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Phone,
		req.MaxHourlyRate,
		userID,
	))
}
