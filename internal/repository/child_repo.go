package repository

import (
	"context"
	"time"

	"github.com/arman-rs/ClinicAppBack/internal/models"
)

type ChildRepository struct {
	db DBTX
}

func NewChildRepository(db DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

const childColumns = `id, parent_id, first_name, last_name, date_of_birth, concerns, created_at, updated_at`

func scanChild(row interface{ Scan(dest ...any) error }) (*models.Child, error) {
	var child models.Child
	err := row.Scan(
		&child.ID,
		&child.ParentID,
		&child.FirstName,
		&child.LastName,
		&child.DateOfBirth,
		&child.Concerns,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &child, nil
}

type CreateChildInput struct {
	ParentID    int64
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Concerns    *[]string
}

func (r *ChildRepository) Create(ctx context.Context, input CreateChildInput) (*models.Child, error) {
	query := `
		INSERT INTO children (parent_id, first_name, last_name, date_of_birth, concerns)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + childColumns

	return scanChild(r.db.QueryRow(
		ctx, query,
		input.ParentID, input.FirstName, input.LastName, input.DateOfBirth, input.Concerns,
	))
}

func (r *ChildRepository) GetByID(ctx context.Context, childID int64) (*models.Child, error) {
	query := `
		SELECT ` + childColumns + `
		FROM children
		WHERE id = $1
	`
	return scanChild(r.db.QueryRow(ctx, query, childID))
}

func (r *ChildRepository) ListByParent(ctx context.Context, parentID int64) ([]models.Child, error) {
	query := `
		SELECT ` + childColumns + `
		FROM children
		WHERE parent_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := make([]models.Child, 0)
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, *child)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return children, nil
}
