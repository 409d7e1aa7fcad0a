package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ExpiredTokenCleaner deletes refresh tokens that can no longer be used
type ExpiredTokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// StartTokenCleanup purges expired refresh tokens every interval until ctx
// is cancelled. A non-positive interval disables the job.
func StartTokenCleanup(ctx context.Context, cleaner ExpiredTokenCleaner, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		logger.Info().Msg("Token cleanup disabled")
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CleanupTokens(ctx, cleaner, logger)
			}
		}
	}()
}

// CleanupTokens runs one purge and returns the number of deleted tokens
func CleanupTokens(ctx context.Context, cleaner ExpiredTokenCleaner, logger zerolog.Logger) int64 {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	deleted, err := cleaner.CleanupExpiredTokens(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("Error cleaning up refresh tokens")
		return 0
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("Expired refresh tokens removed")
	}
	return deleted
}
