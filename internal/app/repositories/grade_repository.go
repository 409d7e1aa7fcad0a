package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
)

// GradeRepository handles database operations for grades
type GradeRepository struct {
	db *pgxpool.Pool
}

// NewGradeRepository creates a new grade repository
func NewGradeRepository(db *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{
		db: db,
	}
}

// Create inserts a grade, doing nothing when the name and section pair exists
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	query := `
		INSERT INTO grades (name, section)
		VALUES ($1, $2)
		ON CONFLICT (name, section) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`

	if err := r.db.QueryRow(ctx, query, grade.Name, grade.Section).Scan(&grade.ID); err != nil {
		return fmt.Errorf("error creating grade: %w", err)
	}

	return nil
}

// GetByID retrieves a grade by ID
func (r *GradeRepository) GetByID(ctx context.Context, id int64) (*models.Grade, error) {
	var grade models.Grade
	err := r.db.QueryRow(ctx, `SELECT id, name, section FROM grades WHERE id = $1`, id).
		Scan(&grade.ID, &grade.Name, &grade.Section)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("Grade not found")
		}
		return nil, fmt.Errorf("error retrieving grade: %w", err)
	}

	return &grade, nil
}

// GetAll retrieves all grades ordered by name and section
func (r *GradeRepository) GetAll(ctx context.Context) ([]*models.Grade, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, section FROM grades ORDER BY name, section`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grades []*models.Grade
	for rows.Next() {
		var grade models.Grade
		if err := rows.Scan(&grade.ID, &grade.Name, &grade.Section); err != nil {
			return nil, err
		}
		grades = append(grades, &grade)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return grades, nil
}
