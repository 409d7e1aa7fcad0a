package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/logger"
)

// ComplaintRepository handles database operations for complaints
type ComplaintRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewComplaintRepository creates a new ComplaintRepository
func NewComplaintRepository(db *pgxpool.Pool) *ComplaintRepository {
	return &ComplaintRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a complaint and sets its ID and timestamps
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Status == "" {
		c.Status = models.ComplaintSubmitted
	}

	sql, args, err := r.sb.Insert("complaints").
		Columns("user_id", "title", "description", "status", "administrative_response", "created_at", "updated_at").
		Values(c.UserID, c.Title, c.Description, c.Status, c.AdministrativeResponse, c.CreatedAt, c.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create complaint SQL")
		return fmt.Errorf("failed to build create complaint query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		logger.Error().Err(err).Int64("userID", c.UserID).Msg("Error executing create complaint query")
		return fmt.Errorf("error creating complaint: %w", err)
	}
	return nil
}

// GetByID retrieves a complaint by ID
func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	sql, args, err := r.sb.Select("id", "user_id", "title", "description", "status", "administrative_response", "created_at", "updated_at").
		From("complaints").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get complaint query: %w", err)
	}

	var c models.Complaint
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&c.ID, &c.UserID, &c.Title, &c.Description, &c.Status, &c.AdministrativeResponse, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("Complaint not found")
		}
		logger.Error().Err(err).Int64("complaintID", id).Msg("Error scanning complaint row")
		return nil, fmt.Errorf("error retrieving complaint: %w", err)
	}
	return &c, nil
}

// ListByUser returns a user's complaints newest first
func (r *ComplaintRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Complaint, error) {
	sql, args, err := r.sb.Select("id", "user_id", "title", "description", "status", "administrative_response", "created_at", "updated_at").
		From("complaints").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list complaints query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error listing complaints")
		return nil, fmt.Errorf("error listing complaints: %w", err)
	}
	defer rows.Close()

	var complaints []*models.Complaint
	for rows.Next() {
		var c models.Complaint
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &c.Status, &c.AdministrativeResponse, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning complaint: %w", err)
		}
		complaints = append(complaints, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return complaints, nil
}

// ListWithAuthors returns complaints joined with their authors, newest first.
// When managedBy is set only complaints from that manager's members are returned.
func (r *ComplaintRepository) ListWithAuthors(ctx context.Context, managedBy *int64) ([]*models.ComplaintWithAuthor, error) {
	q := r.sb.Select(
		"c.id", "c.user_id", "c.title", "c.description", "c.status", "c.administrative_response",
		"c.created_at", "c.updated_at", "u.username", "u.email",
	).
		From("complaints c").
		Join("users u ON u.id = c.user_id").
		OrderBy("c.created_at DESC", "c.id DESC")
	if managedBy != nil {
		q = q.Where(squirrel.Eq{"u.managed_by_id": *managedBy})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list complaints query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing complaints with authors")
		return nil, fmt.Errorf("error listing complaints: %w", err)
	}
	defer rows.Close()

	var complaints []*models.ComplaintWithAuthor
	for rows.Next() {
		var c models.ComplaintWithAuthor
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Title, &c.Description, &c.Status, &c.AdministrativeResponse,
			&c.CreatedAt, &c.UpdatedAt, &c.AuthorUsername, &c.AuthorEmail,
		); err != nil {
			return nil, fmt.Errorf("error scanning complaint: %w", err)
		}
		complaints = append(complaints, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return complaints, nil
}

// CountOpen counts complaints still submitted or in action, optionally scoped to a manager's members
func (r *ComplaintRepository) CountOpen(ctx context.Context, managedBy *int64) (int, error) {
	q := r.sb.Select("COUNT(*)").
		From("complaints c").
		Where(squirrel.Eq{"c.status": []models.ComplaintStatus{models.ComplaintSubmitted, models.ComplaintInAction}})
	if managedBy != nil {
		q = q.Join("users u ON u.id = c.user_id").Where(squirrel.Eq{"u.managed_by_id": *managedBy})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count complaints query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting complaints: %w", err)
	}
	return n, nil
}

// Update writes the status and administrative response
func (r *ComplaintRepository) Update(ctx context.Context, c *models.Complaint) error {
	c.UpdatedAt = time.Now()
	sql, args, err := r.sb.Update("complaints").
		Set("status", c.Status).
		Set("administrative_response", c.AdministrativeResponse).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update complaint query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("complaintID", c.ID).Msg("Error updating complaint")
		return fmt.Errorf("error updating complaint: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("Complaint not found")
	}
	return nil
}
