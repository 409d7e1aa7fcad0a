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

// PasswordResetOTPRepository manages password reset codes in the database
type PasswordResetOTPRepository struct {
	db *pgxpool.Pool
}

// NewPasswordResetOTPRepository creates a new PasswordResetOTPRepository
func NewPasswordResetOTPRepository(db *pgxpool.Pool) *PasswordResetOTPRepository {
	return &PasswordResetOTPRepository{
		db: db,
	}
}

// Upsert stores the code for a user, replacing any previous one
func (r *PasswordResetOTPRepository) Upsert(ctx context.Context, otp *models.PasswordResetOTP) error {
	query := `
		INSERT INTO password_reset_otps (user_id, otp, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET otp = EXCLUDED.otp, created_at = EXCLUDED.created_at
	`

	_, err := r.db.Exec(ctx, query, otp.UserID, otp.OTP, otp.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving password reset otp: %w", err)
	}

	return nil
}

// GetByUserID retrieves the current code of a user
func (r *PasswordResetOTPRepository) GetByUserID(ctx context.Context, userID int64) (*models.PasswordResetOTP, error) {
	query := `
		SELECT user_id, otp, created_at
		FROM password_reset_otps
		WHERE user_id = $1
	`

	var otp models.PasswordResetOTP
	err := r.db.QueryRow(ctx, query, userID).Scan(&otp.UserID, &otp.OTP, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error retrieving password reset otp: %w", err)
	}

	return &otp, nil
}

// DeleteByUserID consumes the code of a user
func (r *PasswordResetOTPRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM password_reset_otps
		WHERE user_id = $1
	`

	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("error deleting password reset otp: %w", err)
	}

	return nil
}
