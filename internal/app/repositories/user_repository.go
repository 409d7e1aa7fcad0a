package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/dberrors"
	"github.com/yigit/edutransit/internal/pkg/logger"
)

var userColumns = []string{
	"id", "username", "email", "password", "first_name", "last_name", "role", "is_active",
	"phone", "organization_name", "morning_arrival_time", "evening_departure_time", "push_token",
	"parent_id", "managed_by_id", "class_in_charge_id", "bus_id", "date_joined", "last_login",
}

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u                  models.User
		morning, departure pgtype.Time
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Role, &u.IsActive,
		&u.Phone, &u.OrganizationName, &morning, &departure, &u.PushToken,
		&u.ParentID, &u.ManagedByID, &u.ClassInChargeID, &u.BusID, &u.DateJoined, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	u.MorningArrivalTime = models.TimeOfDayFromPg(morning, models.DefaultMorningArrival)
	u.EveningDepartureTime = models.TimeOfDayFromPg(departure, models.DefaultEveningDeparture)
	return &u, nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by exact username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByEmail retrieves the oldest account registered with the email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where("LOWER(email) = LOWER(?)", email).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user by email SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("email", email).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// List returns users matching the filter ordered by id
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	q := r.sb.Select(userColumns...).From("users").OrderBy("id ASC")
	if filter.Role != nil {
		q = q.Where(squirrel.Eq{"role": *filter.Role})
	}
	if filter.ManagedByID != nil {
		q = q.Where(squirrel.Eq{"managed_by_id": *filter.ManagedByID})
	}
	if filter.BusID != nil {
		q = q.Where(squirrel.Eq{"bus_id": *filter.BusID})
	}
	if filter.ParentID != nil {
		q = q.Where(squirrel.Eq{"parent_id": *filter.ParentID})
	}
	if filter.ClassInChargeID != nil {
		q = q.Where(squirrel.Eq{"class_in_charge_id": *filter.ClassInChargeID})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list users SQL")
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the filter
func (r *UserRepository) Count(ctx context.Context, filter models.UserFilter) (int, error) {
	q := r.sb.Select("COUNT(*)").From("users")
	if filter.Role != nil {
		q = q.Where(squirrel.Eq{"role": *filter.Role})
	}
	if filter.ManagedByID != nil {
		q = q.Where(squirrel.Eq{"managed_by_id": *filter.ManagedByID})
	}
	if filter.BusID != nil {
		q = q.Where(squirrel.Eq{"bus_id": *filter.BusID})
	}
	if filter.ParentID != nil {
		q = q.Where(squirrel.Eq{"parent_id": *filter.ParentID})
	}
	if filter.ClassInChargeID != nil {
		q = q.Where(squirrel.Eq{"class_in_charge_id": *filter.ClassInChargeID})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count users query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		logger.Error().Err(err).Msg("Error counting users")
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}

// Create inserts a user and sets its ID and join date
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}

	sql, args, err := r.sb.Insert("users").
		Columns(
			"username", "email", "password", "first_name", "last_name", "role", "is_active",
			"phone", "organization_name", "morning_arrival_time", "evening_departure_time", "push_token",
			"parent_id", "managed_by_id", "class_in_charge_id", "bus_id", "date_joined",
		).
		Values(
			user.Username, user.Email, user.Password, user.FirstName, user.LastName, user.Role, user.IsActive,
			user.Phone, user.OrganizationName, user.MorningArrivalTime.Pg(), user.EveningDepartureTime.Pg(), user.PushToken,
			user.ParentID, user.ManagedByID, user.ClassInChargeID, user.BusID, user.DateJoined,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_username_key") {
			return apperrors.ErrUsernameAlreadyExists
		}
		logger.Error().Err(err).Str("username", user.Username).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// Update writes every mutable column of the user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Update("users").
		SetMap(map[string]interface{}{
			"username":               user.Username,
			"email":                  user.Email,
			"first_name":             user.FirstName,
			"last_name":              user.LastName,
			"is_active":              user.IsActive,
			"phone":                  user.Phone,
			"organization_name":      user.OrganizationName,
			"morning_arrival_time":   user.MorningArrivalTime.Pg(),
			"evening_departure_time": user.EveningDepartureTime.Pg(),
			"push_token":             user.PushToken,
			"parent_id":              user.ParentID,
			"managed_by_id":          user.ManagedByID,
			"class_in_charge_id":     user.ClassInChargeID,
			"bus_id":                 user.BusID,
		}).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update user SQL")
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_username_key") {
			return apperrors.ErrUsernameAlreadyExists
		}
		logger.Error().Err(err).Int64("userID", user.ID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	sql, args, err := r.sb.Update("users").
		Set("password", passwordHash).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update password query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error updating password")
		return fmt.Errorf("error updating password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("users").
		Set("last_login", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update last login query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error deleting user")
		return fmt.Errorf("error deleting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UsernameExists checks if a username is taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking username: %w", err)
	}
	return exists, nil
}
