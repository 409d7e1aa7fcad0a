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

var tripColumns = []string{"id", "bus_id", "driver_id", "trip_type", "is_active", "start_time", "end_time"}

// TripRepository handles database operations for trips
type TripRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *pgxpool.Pool) *TripRepository {
	return &TripRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanTrip(row pgx.Row) (*models.Trip, error) {
	var t models.Trip
	if err := row.Scan(&t.ID, &t.BusID, &t.DriverID, &t.TripType, &t.IsActive, &t.StartTime, &t.EndTime); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TripRepository) queryOne(ctx context.Context, q squirrel.SelectBuilder) (*models.Trip, error) {
	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building trip SQL")
		return nil, fmt.Errorf("failed to build trip query: %w", err)
	}

	trip, err := scanTrip(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Msg("Error scanning trip row")
		return nil, fmt.Errorf("error retrieving trip: %w", err)
	}
	return trip, nil
}

// GetByID retrieves a trip by ID
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	trip, err := r.queryOne(ctx, r.sb.Select(tripColumns...).From("trips").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, apperrors.NewResourceNotFoundError("Trip not found")
	}
	return trip, nil
}

// GetActiveByBus returns the most recently started active trip of a bus, or nil when there is none
func (r *TripRepository) GetActiveByBus(ctx context.Context, busID int64) (*models.Trip, error) {
	return r.queryOne(ctx, r.sb.Select(tripColumns...).
		From("trips").
		Where(squirrel.Eq{"bus_id": busID, "is_active": true}).
		OrderBy("start_time DESC", "id DESC"))
}

// LatestStartedSince returns the latest trip started at or after since with the given
// active flag, optionally scoped to one bus. Nil when there is none.
func (r *TripRepository) LatestStartedSince(ctx context.Context, busID *int64, since time.Time, active bool) (*models.Trip, error) {
	q := r.sb.Select(tripColumns...).
		From("trips").
		Where(squirrel.GtOrEq{"start_time": since}).
		Where(squirrel.Eq{"is_active": active}).
		OrderBy("start_time DESC", "id DESC")
	if busID != nil {
		q = q.Where(squirrel.Eq{"bus_id": *busID})
	}
	return r.queryOne(ctx, q)
}

// DeactivateActiveByBus closes every active trip of a bus and returns how many were closed
func (r *TripRepository) DeactivateActiveByBus(ctx context.Context, busID int64, endTime time.Time) (int64, error) {
	sql, args, err := r.sb.Update("trips").
		Set("is_active", false).
		Set("end_time", endTime).
		Where(squirrel.Eq{"bus_id": busID, "is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build deactivate trips query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("busID", busID).Msg("Error deactivating trips")
		return 0, fmt.Errorf("error deactivating trips: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// Create inserts a trip and sets its ID
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	sql, args, err := r.sb.Insert("trips").
		Columns("bus_id", "driver_id", "trip_type", "is_active", "start_time").
		Values(trip.BusID, trip.DriverID, trip.TripType, trip.IsActive, trip.StartTime).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create trip SQL")
		return fmt.Errorf("failed to build create trip query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&trip.ID); err != nil {
		logger.Error().Err(err).Int64("busID", trip.BusID).Msg("Error executing create trip query")
		return fmt.Errorf("error creating trip: %w", err)
	}
	return nil
}
