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
	"github.com/yigit/edutransit/internal/pkg/logger"
)

var busColumns = []string{
	"id", "bus_number", "destination", "number_plate", "photo_url", "latitude", "longitude",
	"last_update", "management_id", "morning_trip_end_time", "evening_trip_start_time",
}

// BusRepository handles database operations for buses
type BusRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db *pgxpool.Pool) *BusRepository {
	return &BusRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanBus(row pgx.Row) (*models.Bus, error) {
	var (
		b                     models.Bus
		morningEnd, eveningSt pgtype.Time
	)
	err := row.Scan(
		&b.ID, &b.BusNumber, &b.Destination, &b.NumberPlate, &b.PhotoURL, &b.Latitude, &b.Longitude,
		&b.LastUpdate, &b.ManagementID, &morningEnd, &eveningSt,
	)
	if err != nil {
		return nil, err
	}
	b.MorningTripEndTime = models.TimeOfDayFromPg(morningEnd, models.DefaultMorningTripEnd)
	b.EveningTripStartTime = models.TimeOfDayFromPg(eveningSt, models.DefaultEveningTripStart)
	return &b, nil
}

// GetByID retrieves a bus by ID
func (r *BusRepository) GetByID(ctx context.Context, id int64) (*models.Bus, error) {
	sql, args, err := r.sb.Select(busColumns...).From("buses").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get bus SQL")
		return nil, fmt.Errorf("failed to build get bus query: %w", err)
	}

	bus, err := scanBus(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBusNotFound
		}
		logger.Error().Err(err).Int64("busID", id).Msg("Error scanning bus row")
		return nil, fmt.Errorf("error retrieving bus: %w", err)
	}
	return bus, nil
}

// List returns all buses, or only those owned by managementID when it is set
func (r *BusRepository) List(ctx context.Context, managementID *int64) ([]*models.Bus, error) {
	q := r.sb.Select(busColumns...).From("buses").OrderBy("id ASC")
	if managementID != nil {
		q = q.Where(squirrel.Eq{"management_id": *managementID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list buses SQL")
		return nil, fmt.Errorf("failed to build list buses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list buses query")
		return nil, fmt.Errorf("error listing buses: %w", err)
	}
	defer rows.Close()

	var buses []*models.Bus
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning bus: %w", err)
		}
		buses = append(buses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buses, nil
}

// Count returns the number of buses, optionally scoped to an owner
func (r *BusRepository) Count(ctx context.Context, managementID *int64) (int, error) {
	q := r.sb.Select("COUNT(*)").From("buses")
	if managementID != nil {
		q = q.Where(squirrel.Eq{"management_id": *managementID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count buses query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting buses: %w", err)
	}
	return n, nil
}

// Create inserts a bus and sets its ID
func (r *BusRepository) Create(ctx context.Context, bus *models.Bus) error {
	sql, args, err := r.sb.Insert("buses").
		Columns("bus_number", "destination", "number_plate", "photo_url", "management_id",
			"morning_trip_end_time", "evening_trip_start_time").
		Values(bus.BusNumber, bus.Destination, bus.NumberPlate, bus.PhotoURL, bus.ManagementID,
			bus.MorningTripEndTime.Pg(), bus.EveningTripStartTime.Pg()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create bus SQL")
		return fmt.Errorf("failed to build create bus query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&bus.ID); err != nil {
		logger.Error().Err(err).Str("busNumber", bus.BusNumber).Msg("Error executing create bus query")
		return fmt.Errorf("error creating bus: %w", err)
	}
	return nil
}

// Update writes the descriptive and schedule columns of a bus
func (r *BusRepository) Update(ctx context.Context, bus *models.Bus) error {
	sql, args, err := r.sb.Update("buses").
		SetMap(map[string]interface{}{
			"bus_number":              bus.BusNumber,
			"destination":             bus.Destination,
			"number_plate":            bus.NumberPlate,
			"photo_url":               bus.PhotoURL,
			"morning_trip_end_time":   bus.MorningTripEndTime.Pg(),
			"evening_trip_start_time": bus.EveningTripStartTime.Pg(),
		}).
		Where(squirrel.Eq{"id": bus.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update bus SQL")
		return fmt.Errorf("failed to build update bus query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("busID", bus.ID).Msg("Error executing update bus query")
		return fmt.Errorf("error updating bus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrBusNotFound
	}
	return nil
}

// UpdateLocation overwrites the last known position. Nil values clear it.
func (r *BusRepository) UpdateLocation(ctx context.Context, busID int64, lat, lon *float64, at *time.Time) error {
	sql, args, err := r.sb.Update("buses").
		Set("latitude", lat).
		Set("longitude", lon).
		Set("last_update", at).
		Where(squirrel.Eq{"id": busID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update location query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("busID", busID).Msg("Error updating bus location")
		return fmt.Errorf("error updating bus location: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrBusNotFound
	}
	return nil
}

// Delete removes a bus
func (r *BusRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("buses").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete bus query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("busID", id).Msg("Error deleting bus")
		return fmt.Errorf("error deleting bus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrBusNotFound
	}
	return nil
}
