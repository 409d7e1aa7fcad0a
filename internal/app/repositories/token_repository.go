package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/dberrors"
	"github.com/yigit/edutransit/internal/pkg/logger"
)

// RevokedTokenRetention is how long revoked refresh tokens are kept before cleanup
const RevokedTokenRetention = 30 * 24 * time.Hour

// TokenRepository stores refresh tokens. Only a SHA-256 digest of each token
// is persisted, so a database dump cannot be replayed against /token/refresh/.
type TokenRepository struct {
	db  *pgxpool.Pool
	sb  squirrel.StatementBuilderType
	now func() time.Time
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		db:  db,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now: time.Now,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// refreshTokenRow is the stored state of one refresh token
type refreshTokenRow struct {
	UserID    int64
	ExpiresAt time.Time
	Revoked   bool
}

// usable reports why a stored token cannot be exchanged, or nil when it can
func (t refreshTokenRow) usable(now time.Time) error {
	switch {
	case t.Revoked:
		return apperrors.ErrTokenRevoked
	case !t.ExpiresAt.After(now):
		return apperrors.ErrTokenExpired
	}
	return nil
}

// CreateToken stores a newly issued refresh token for the user
func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	sql, args, err := r.sb.Insert("refresh_tokens").
		Columns("token", "user_id", "expiry_date").
		Values(hashToken(token), userID, expiryDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "refresh_tokens_token_key") {
			logger.Warn().Int64("userID", userID).Msg("Refresh token collision")
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error storing refresh token")
		return fmt.Errorf("error creating token: %w", err)
	}
	return nil
}

// GetTokenByValue returns the owner and expiry of a live refresh token.
// Unknown, revoked and expired tokens each map to their own sentinel error.
func (r *TokenRepository) GetTokenByValue(ctx context.Context, token string) (int64, time.Time, error) {
	sql, args, err := r.sb.Select("user_id", "expiry_date", "is_revoked").
		From("refresh_tokens").
		Where(squirrel.Eq{"token": hashToken(token)}).
		ToSql()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to build get token query: %w", err)
	}

	var row refreshTokenRow
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&row.UserID, &row.ExpiresAt, &row.Revoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, time.Time{}, apperrors.ErrTokenNotFound
		}
		logger.Error().Err(err).Msg("Error reading refresh token")
		return 0, time.Time{}, fmt.Errorf("error retrieving token: %w", err)
	}

	if err := row.usable(r.now()); err != nil {
		return 0, time.Time{}, err
	}
	return row.UserID, row.ExpiresAt, nil
}

// RevokeToken marks a single refresh token as revoked
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	n, err := r.revoke(ctx, squirrel.Eq{"token": hashToken(token)})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}

// RevokeAllUserTokens revokes every live refresh token of the user, e.g. after a password reset
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	n, err := r.revoke(ctx, squirrel.Eq{"user_id": userID, "is_revoked": false})
	if err != nil {
		return err
	}
	logger.Debug().Int64("userID", userID).Int64("revoked", n).Msg("Revoked user refresh tokens")
	return nil
}

func (r *TokenRepository) revoke(ctx context.Context, where squirrel.Sqlizer) (int64, error) {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build revoke token query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error revoking refresh tokens")
		return 0, fmt.Errorf("error revoking token: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CleanupExpiredTokens deletes expired tokens and revoked tokens past their retention
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	now := r.now()
	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Or{
			squirrel.Lt{"expiry_date": now},
			squirrel.And{
				squirrel.Eq{"is_revoked": true},
				squirrel.Lt{"created_at": now.Add(-RevokedTokenRetention)},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build cleanup tokens query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error deleting expired refresh tokens")
		return 0, fmt.Errorf("error cleaning up tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
