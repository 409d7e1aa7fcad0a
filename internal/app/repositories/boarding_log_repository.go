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
	"github.com/yigit/edutransit/internal/pkg/dberrors"
	"github.com/yigit/edutransit/internal/pkg/logger"
)

var boardingColumns = []string{"id", "student_id", "bus_id", "trip_id", "scan_time", "date", "latitude", "longitude"}

// BoardingLogRepository handles database operations for boarding logs
type BoardingLogRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewBoardingLogRepository creates a new BoardingLogRepository
func NewBoardingLogRepository(db *pgxpool.Pool) *BoardingLogRepository {
	return &BoardingLogRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// dateOnly strips the clock so the DATE column stores the calendar day of t as seen in t's location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func scanBoardingLog(row pgx.Row) (*models.BoardingLog, error) {
	var l models.BoardingLog
	if err := row.Scan(&l.ID, &l.StudentID, &l.BusID, &l.TripID, &l.ScanTime, &l.Date, &l.Latitude, &l.Longitude); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *BoardingLogRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*models.BoardingLog, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building boarding log SQL")
		return nil, fmt.Errorf("failed to build boarding log query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing boarding log query")
		return nil, fmt.Errorf("error listing boarding logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.BoardingLog
	for rows.Next() {
		l, err := scanBoardingLog(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning boarding log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// Create inserts a boarding log. A second log for the same student and trip
// returns apperrors.ErrResourceAlreadyExists.
func (r *BoardingLogRepository) Create(ctx context.Context, log *models.BoardingLog) error {
	sql, args, err := r.sb.Insert("boarding_logs").
		Columns("student_id", "bus_id", "trip_id", "scan_time", "date", "latitude", "longitude").
		Values(log.StudentID, log.BusID, log.TripID, log.ScanTime, dateOnly(log.Date), log.Latitude, log.Longitude).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create boarding log SQL")
		return fmt.Errorf("failed to build create boarding log query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&log.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "boarding_logs_student_trip_key") {
			return apperrors.ErrResourceAlreadyExists
		}
		logger.Error().Err(err).Int64("studentID", log.StudentID).Int64("tripID", log.TripID).Msg("Error executing create boarding log query")
		return fmt.Errorf("error creating boarding log: %w", err)
	}
	return nil
}

// GetByStudentAndTrip returns the student's log for a trip, or nil when the student has not boarded it
func (r *BoardingLogRepository) GetByStudentAndTrip(ctx context.Context, studentID, tripID int64) (*models.BoardingLog, error) {
	sql, args, err := r.sb.Select(boardingColumns...).
		From("boarding_logs").
		Where(squirrel.Eq{"student_id": studentID, "trip_id": tripID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get boarding log query: %w", err)
	}

	l, err := scanBoardingLog(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Msg("Error scanning boarding log row")
		return nil, fmt.Errorf("error retrieving boarding log: %w", err)
	}
	return l, nil
}

// ListByTrip returns all logs of a trip in scan order
func (r *BoardingLogRepository) ListByTrip(ctx context.Context, tripID int64) ([]*models.BoardingLog, error) {
	return r.list(ctx, r.sb.Select(boardingColumns...).
		From("boarding_logs").
		Where(squirrel.Eq{"trip_id": tripID}).
		OrderBy("scan_time ASC"))
}

// ListByBusAndDate returns the logs of a bus on a calendar day in scan order
func (r *BoardingLogRepository) ListByBusAndDate(ctx context.Context, busID int64, date time.Time) ([]*models.BoardingLog, error) {
	return r.list(ctx, r.sb.Select(boardingColumns...).
		From("boarding_logs").
		Where(squirrel.Eq{"bus_id": busID, "date": dateOnly(date)}).
		OrderBy("scan_time ASC"))
}

// ExistsForStudentOnDate reports whether the student boarded any trip on the day.
// A non-empty tripType limits the check to trips of that type.
func (r *BoardingLogRepository) ExistsForStudentOnDate(ctx context.Context, studentID int64, date time.Time, tripType models.TripType) (bool, error) {
	q := r.sb.Select("1").
		From("boarding_logs bl").
		Where(squirrel.Eq{"bl.student_id": studentID, "bl.date": dateOnly(date)})
	if tripType != "" {
		q = q.Join("trips t ON t.id = bl.trip_id").Where(squirrel.Eq{"t.trip_type": tripType})
	}

	inner, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build boarding exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS("+inner+")", args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error checking boarding log")
		return false, fmt.Errorf("error checking boarding log: %w", err)
	}
	return exists, nil
}
