// Package seed creates the data a fresh install needs: the default classes
// and the first superuser.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/auth"
)

// DefaultSections are created for every grade from 1 to 12
var DefaultSections = []string{"A", "B"}

// UserStore is what seeding needs from the user repository
type UserStore interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// GradeStore is what seeding needs from the grade repository
type GradeStore interface {
	Create(ctx context.Context, grade *models.Grade) error
}

// Superuser describes the bootstrap account. An empty username or password skips it.
type Superuser struct {
	Username string
	Email    string
	Password string
}

// CreateDefaultData creates the default grades and the superuser if they are missing.
// Failures are collected so one bad row does not stop the rest.
func CreateDefaultData(ctx context.Context, users UserStore, grades GradeStore, su Superuser, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (grades, superuser)...")
	var finalErr error

	created := 0
	for n := 1; n <= 12; n++ {
		for _, section := range DefaultSections {
			g := &models.Grade{Name: strconv.Itoa(n), Section: section}
			if err := grades.Create(ctx, g); err != nil {
				lgr.Error().Err(err).Str("grade", g.String()).Msg("Error creating grade")
				finalErr = errors.Join(finalErr, err)
				continue
			}
			created++
		}
	}
	lgr.Info().Int("grades", created).Msg("Default grades ensured")

	if err := createSuperuser(ctx, users, su, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func createSuperuser(ctx context.Context, users UserStore, su Superuser, lgr zerolog.Logger) error {
	if su.Username == "" || su.Password == "" {
		lgr.Warn().Msg("Superuser credentials not configured, skipping creation")
		return nil
	}

	exists, err := users.UsernameExists(ctx, su.Username)
	if err != nil {
		return fmt.Errorf("error checking superuser: %w", err)
	}
	if exists {
		lgr.Info().Str("username", su.Username).Msg("Superuser already exists, skipping creation")
		return nil
	}

	hash, err := auth.HashPassword(su.Password)
	if err != nil {
		return fmt.Errorf("error hashing superuser password: %w", err)
	}

	admin := &models.User{
		Username:             su.Username,
		Email:                su.Email,
		Password:             hash,
		FirstName:            "System",
		LastName:             "Administrator",
		Role:                 models.RoleSuperuser,
		IsActive:             true,
		MorningArrivalTime:   models.DefaultMorningArrival,
		EveningDepartureTime: models.DefaultEveningDeparture,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("error creating superuser: %w", err)
	}

	lgr.Info().Int64("userID", admin.ID).Str("username", admin.Username).Msg("Default superuser created successfully")
	return nil
}
