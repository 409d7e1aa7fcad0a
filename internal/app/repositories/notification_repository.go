package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/logger"
)

// NotificationRepository handles database operations for notification feeds
type NotificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a notification and sets its ID
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}

	sql, args, err := r.sb.Insert("notifications").
		Columns("user_id", "title", "message", "type", "created_at", "is_read").
		Values(n.UserID, n.Title, n.Message, n.Type, n.CreatedAt, n.IsRead).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create notification SQL")
		return fmt.Errorf("failed to build create notification query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n.ID); err != nil {
		logger.Error().Err(err).Int64("userID", n.UserID).Msg("Error executing create notification query")
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's newest notifications first. limit <= 0 returns all.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	q := r.sb.Select("id", "user_id", "title", "message", "type", "created_at", "is_read").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list notifications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error listing notifications")
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.CreatedAt, &n.IsRead); err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications of a user
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count unread query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return n, nil
}
