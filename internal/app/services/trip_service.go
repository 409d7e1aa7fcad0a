package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/auth"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/metrics"
	"github.com/yigit/edutransit/internal/pkg/websocket"
)

// LocationPublisher receives every accepted bus position
type LocationPublisher interface {
	Publish(update websocket.LocationUpdate)
}

// TripService defines the trip lifecycle operations of drivers
type TripService interface {
	StartTrip(ctx context.Context, driverID int64) (*dto.StartTripResponse, error)
	EndTrip(ctx context.Context, driverID int64) error
	UpdateLocation(ctx context.Context, driverID int64, req *dto.UpdateLocationRequest) error
	BusLocation(ctx context.Context, userID, busID int64) (*dto.BusLocationResponse, error)
}

// tripServiceImpl implements the TripService interface
type tripServiceImpl struct {
	buses     BusStore
	trips     TripStore
	authz     *auth.AuthorizationService
	publisher LocationPublisher
	clock     clock.Clock
	loc       *time.Location
	logger    zerolog.Logger
}

// NewTripService creates a new trip service instance
func NewTripService(
	stores Stores,
	authz *auth.AuthorizationService,
	publisher LocationPublisher,
	clk clock.Clock,
	loc *time.Location,
	logger zerolog.Logger,
) TripService {
	return &tripServiceImpl{
		buses:     stores.Buses,
		trips:     stores.Trips,
		authz:     authz,
		publisher: publisher,
		clock:     clk,
		loc:       loc,
		logger:    logger,
	}
}

// driverBus loads the driver and their assigned bus
func (s *tripServiceImpl) driverBus(ctx context.Context, driverID int64) (*models.User, *models.Bus, error) {
	driver, err := s.authz.ValidateRole(ctx, driverID, models.RoleDriver, auth.MsgPermissionDenied)
	if err != nil {
		return nil, nil, err
	}
	bus, err := s.assignedBus(ctx, driver)
	if err != nil {
		return nil, nil, err
	}
	return driver, bus, nil
}

func (s *tripServiceImpl) assignedBus(ctx context.Context, driver *models.User) (*models.Bus, error) {
	if driver.BusID == nil {
		return nil, apperrors.ErrNoBusAssigned
	}
	return s.buses.GetByID(ctx, *driver.BusID)
}

// StartTrip closes any active trip of the driver's bus and opens a new one
// whose direction follows the bus schedule.
func (s *tripServiceImpl) StartTrip(ctx context.Context, driverID int64) (*dto.StartTripResponse, error) {
	driver, bus, err := s.driverBus(ctx, driverID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	tripType := bus.TripTypeAt(models.TimeOfDayOf(now.In(s.loc)))

	closed, err := s.trips.DeactivateActiveByBus(ctx, bus.ID, now)
	if err != nil {
		return nil, fmt.Errorf("error closing active trips: %w", err)
	}
	if closed > 0 {
		s.logger.Info().Int64("busID", bus.ID).Int64("closed", closed).Msg("Closed active trips before starting a new one")
	}

	trip := &models.Trip{
		BusID:     bus.ID,
		DriverID:  driver.ID,
		TripType:  tripType,
		IsActive:  true,
		StartTime: now,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("error creating trip: %w", err)
	}
	metrics.TripsStarted.WithLabelValues(string(tripType)).Inc()

	s.logger.Info().
		Int64("busID", bus.ID).
		Int64("tripID", trip.ID).
		Str("tripType", string(tripType)).
		Msg("Trip started")

	return &dto.StartTripResponse{
		Message:  tripType.Display() + " Trip started",
		TripID:   trip.ID,
		TripType: tripType,
	}, nil
}

// EndTrip closes every active trip of the driver's bus and clears its position
func (s *tripServiceImpl) EndTrip(ctx context.Context, driverID int64) error {
	_, bus, err := s.driverBus(ctx, driverID)
	if err != nil {
		return err
	}

	if _, err := s.trips.DeactivateActiveByBus(ctx, bus.ID, s.clock.Now()); err != nil {
		return fmt.Errorf("error closing active trips: %w", err)
	}
	if err := s.buses.UpdateLocation(ctx, bus.ID, nil, nil, nil); err != nil {
		return fmt.Errorf("error clearing bus location: %w", err)
	}
	metrics.TripsEnded.Inc()

	s.publish(bus, false, nil, nil, nil)
	s.logger.Info().Int64("busID", bus.ID).Msg("Trip ended")
	return nil
}

// UpdateLocation overwrites the position of the driver's bus during an active trip
func (s *tripServiceImpl) UpdateLocation(ctx context.Context, driverID int64, req *dto.UpdateLocationRequest) error {
	driver, err := s.authz.ValidateRole(ctx, driverID, models.RoleDriver, auth.MsgPermissionDenied)
	if err != nil {
		return err
	}
	if req.Latitude == nil || req.Longitude == nil {
		return apperrors.ErrMissingLocation
	}

	bus, err := s.assignedBus(ctx, driver)
	if err != nil {
		return err
	}

	trip, err := s.trips.GetActiveByBus(ctx, bus.ID)
	if err != nil {
		return fmt.Errorf("error getting active trip: %w", err)
	}
	if trip == nil {
		return apperrors.ErrNoActiveTrip
	}

	now := s.clock.Now()
	if err := s.buses.UpdateLocation(ctx, bus.ID, req.Latitude, req.Longitude, &now); err != nil {
		return fmt.Errorf("error updating bus location: %w", err)
	}
	metrics.LocationUpdates.Inc()

	s.publish(bus, true, req.Latitude, req.Longitude, &now)
	return nil
}

// BusLocation returns the last known position of a bus the user may track
func (s *tripServiceImpl) BusLocation(ctx context.Context, userID, busID int64) (*dto.BusLocationResponse, error) {
	_, bus, err := s.authz.ResolveBusAccess(ctx, userID, busID)
	if err != nil {
		return nil, err
	}

	trip, err := s.trips.GetActiveByBus(ctx, bus.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting active trip: %w", err)
	}

	return &dto.BusLocationResponse{
		BusID:        bus.ID,
		BusNumber:    bus.BusNumber,
		IsActiveTrip: trip != nil,
		Latitude:     bus.Latitude,
		Longitude:    bus.Longitude,
		LastUpdate:   bus.LastUpdate,
	}, nil
}

func (s *tripServiceImpl) publish(bus *models.Bus, active bool, lat, lon *float64, at *time.Time) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(websocket.LocationUpdate{
		BusID:        bus.ID,
		BusNumber:    bus.BusNumber,
		IsActiveTrip: active,
		Latitude:     lat,
		Longitude:    lon,
		LastUpdate:   at,
	})
}
