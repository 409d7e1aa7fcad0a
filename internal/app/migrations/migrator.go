package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// advisoryLockID serialises migrations when several replicas start together
const advisoryLockID int64 = 0x65647574 // "edut"

// Migrator applies the SQL files of a directory in name order, once each
type Migrator struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *pgxpool.Pool, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// Version extracts the version prefix of a migration file ("001_init.sql" is "001")
func Version(filename string) string {
	return strings.SplitN(filepath.Base(filename), "_", 2)[0]
}

// PendingFiles lists the .sql files of dir in apply order
func PendingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// MigrateFromDirectory applies every migration of dir that is not yet recorded
func (m *Migrator) MigrateFromDirectory(ctx context.Context, dir string) error {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return err
	}

	files, err := PendingFiles(dir)
	if err != nil {
		return err
	}

	applied := 0
	for _, name := range files {
		ok, err := m.apply(ctx, filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if ok {
			applied++
		}
	}

	m.logger.Info().Int("applied", applied).Int("total", len(files)).Msg("Database migrations up to date")
	return nil
}

// apply runs one file inside a transaction holding the migration lock.
// It reports false when the version was already recorded.
func (m *Migrator) apply(ctx context.Context, path string) (bool, error) {
	version := Version(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	applied := false
	err = pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockID); err != nil {
			return fmt.Errorf("failed to take migration lock: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			m.logger.Debug().Str("version", version).Msg("Migration already applied, skipping")
			return nil
		}

		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration %s: %w", filepath.Base(path), err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		m.logger.Info().Str("file", filepath.Base(path)).Msg("Migration applied")
	}
	return applied, nil
}
