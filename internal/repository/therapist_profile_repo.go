package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
)

type TherapistProfileRepository struct {
	db DBTX
}

func NewTherapistProfileRepository(db DBTX) *TherapistProfileRepository {
	return &TherapistProfileRepository{db: db}
}

const therapistProfileColumns = `id, user_id, full_name, bio, specializations, certifications,
	experience_years, hourly_rate, rating, total_patients, is_verified,
	onboarding_complete, created_at, updated_at`

func scanTherapistProfile(row interface{ Scan(dest ...any) error }) (*models.TherapistProfile, error) {
	var profile models.TherapistProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Bio,
		&profile.Specializations,
		&profile.Certifications,
		&profile.ExperienceYears,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.TotalPatients,
		&profile.IsVerified,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *TherapistProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO therapist_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *TherapistProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.TherapistProfile, error) {
	query := `
		SELECT ` + therapistProfileColumns + `
		FROM therapist_profiles
		WHERE user_id = $1
	`
	return scanTherapistProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *TherapistProfileRepository) ListAll(ctx context.Context) ([]models.TherapistProfile, error) {
	query := `
		SELECT ` + therapistProfileColumns + `
		FROM therapist_profiles
		WHERE onboarding_complete = TRUE
		ORDER BY rating DESC NULLS LAST, id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.TherapistProfile, 0)
	for rows.Next() {
		profile, err := scanTherapistProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

type TherapistListFilter struct {
	Specialization string
	MinRating      float64
	MaxPrice       float64
	Experience     int
	Offset         int
	Limit          int
}

func (r *TherapistProfileRepository) List(
	ctx context.Context,
	filter TherapistListFilter,
) ([]models.TherapistProfile, int, error) {
	args := []any{}
	whereParts := []string{"onboarding_complete = TRUE"}

	if spec := strings.TrimSpace(filter.Specialization); spec != "" {
		args = append(args, spec)
		whereParts = append(whereParts, fmt.Sprintf("$%d = ANY(specializations)", len(args)))
	}
	if filter.MinRating > 0 {
		args = append(args, filter.MinRating)
		whereParts = append(whereParts, fmt.Sprintf("rating >= $%d", len(args)))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		whereParts = append(whereParts, fmt.Sprintf("hourly_rate <= $%d", len(args)))
	}
	if filter.Experience > 0 {
		args = append(args, filter.Experience)
		whereParts = append(whereParts, fmt.Sprintf("experience_years >= $%d", len(args)))
	}

	where := strings.Join(whereParts, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM therapist_profiles WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM therapist_profiles
		WHERE %s
		ORDER BY rating DESC NULLS LAST, id ASC
		LIMIT $%d OFFSET $%d
	`, therapistProfileColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]models.TherapistProfile, 0)
	for rows.Next() {
		profile, err := scanTherapistProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// GetAvailableSlotsPreview returns the next few free one-hour slots inside
// clinic hours (09:00-17:00), skipping times blocked by active sessions.
func (r *TherapistProfileRepository) GetAvailableSlotsPreview(
	ctx context.Context,
	therapistID int64,
	limit int,
) ([]string, error) {
	query := `
		SELECT scheduled_at, duration_min
		FROM sessions
		WHERE therapist_id = $1
		  AND status NOT IN ('cancelled', 'declined')
		  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > NOW()
		ORDER BY scheduled_at ASC
	`

	rows, err := r.db.Query(ctx, query, therapistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type busyWindow struct {
		start time.Time
		end   time.Time
	}
	busy := make([]busyWindow, 0)
	for rows.Next() {
		var start time.Time
		var durationMin int
		if err := rows.Scan(&start, &durationMin); err != nil {
			return nil, err
		}
		busy = append(busy, busyWindow{
			start: start,
			end:   start.Add(time.Duration(durationMin) * time.Minute),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slots := make([]string, 0, limit)
	cursor := time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
	for day := 0; day < 14 && len(slots) < limit; day++ {
		for hour := 9; hour < 17 && len(slots) < limit; hour++ {
			candidate := time.Date(
				cursor.Year(), cursor.Month(), cursor.Day(),
				hour, 0, 0, 0, time.UTC,
			).AddDate(0, 0, day)
			if !candidate.After(time.Now().UTC()) {
				continue
			}

			candidateEnd := candidate.Add(time.Hour)
			conflicts := false
			for _, window := range busy {
				if candidate.Before(window.end) && candidateEnd.After(window.start) {
					conflicts = true
					break
				}
			}
			if !conflicts {
				slots = append(slots, candidate.Format(time.RFC3339))
			}
		}
	}

	return slots, nil
}

type TherapistOnboardingInput struct {
	FullName        string
	Bio             string
	Specializations []string
	Certifications  []string
	ExperienceYears int
	HourlyRate      decimal.Decimal
}

func (r *TherapistProfileRepository) UpdateOnboarding(
	ctx context.Context,
	userID int64,
	req TherapistOnboardingInput,
) (*models.TherapistProfile, error) {
	query := `
		UPDATE therapist_profiles
		SET full_name = $1,
			bio = $2,
			specializations = $3,
			certifications = $4,
			experience_years = $5,
			hourly_rate = $6,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING ` + therapistProfileColumns

	return scanTherapistProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Bio,
		req.Specializations,
		req.Certifications,
		req.ExperienceYears,
		req.HourlyRate,
		userID,
	))
}

type UpdateTherapistProfileInput struct {
	FullName        *string
	Bio             *string
	Specializations *[]string
	Certifications  *[]string
	ExperienceYears *int
	HourlyRate      *decimal.Decimal
}

func (r *TherapistProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	req UpdateTherapistProfileInput,
) (*models.TherapistProfile, error) {
	query := `
		UPDATE therapist_profiles
		SET full_name = COALESCE($1, full_name),
			bio = COALESCE($2, bio),
			specializations = COALESCE($3, specializations),
			certifications = COALESCE($4, certifications),
			experience_years = COALESCE($5, experience_years),
			hourly_rate = COALESCE($6, hourly_rate),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING ` + therapistProfileColumns

	return scanTherapistProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Bio,
		req.Specializations,
		req.Certifications,
		req.ExperienceYears,
		req.HourlyRate,
		userID,
	))
}
