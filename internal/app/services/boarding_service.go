package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/auth"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/helpers"
	"github.com/yigit/edutransit/internal/pkg/metrics"
	"github.com/yigit/edutransit/internal/pkg/qrtoken"
)

// Boarding messages
const (
	MsgNotStudent        = "Permission denied. Not a student."
	MsgQRTokenRequired   = "QR Token is required."
	MsgInvalidBusID      = "Invalid Bus ID."
	MsgBoardNoActiveTrip = "No active trip for this bus. Driver must start trip first."
	MsgBoardingSucceeded = "Boarding successful!"
	MsgAlreadyBoarded    = "Already boarded for this trip."
)

// BoardingPolicy tunes the checks applied when a student scans a code
type BoardingPolicy struct {
	// MaxAge bounds the age of an accepted token.
	MaxAge time.Duration
	// RequireAssignedBus rejects students scanning a bus other than their own.
	RequireAssignedBus bool
}

// BoardingService issues boarding tokens and records boardings
type BoardingService interface {
	IssueToken(busID int64) string
	VerifyAndBoard(ctx context.Context, studentID int64, req *dto.BoardRequest) (*dto.BoardResponse, error)
}

// boardingServiceImpl implements the BoardingService interface
type boardingServiceImpl struct {
	buses  BusStore
	trips  TripStore
	logs   BoardingLogStore
	authz  *auth.AuthorizationService
	signer *qrtoken.Signer
	policy BoardingPolicy
	clock  clock.Clock
	loc    *time.Location
	logger zerolog.Logger
}

// NewBoardingService creates a new boarding service instance
func NewBoardingService(
	stores Stores,
	authz *auth.AuthorizationService,
	signer *qrtoken.Signer,
	policy BoardingPolicy,
	clk clock.Clock,
	loc *time.Location,
	logger zerolog.Logger,
) BoardingService {
	return &boardingServiceImpl{
		buses:  stores.Buses,
		trips:  stores.Trips,
		logs:   stores.BoardingLogs,
		authz:  authz,
		signer: signer,
		policy: policy,
		clock:  clk,
		loc:    loc,
		logger: logger,
	}
}

// IssueToken signs the bus id for display as a QR code
func (s *boardingServiceImpl) IssueToken(busID int64) string {
	return s.signer.Sign(strconv.FormatInt(busID, 10))
}

// VerifyAndBoard checks a scanned token and records the student on the bus's active trip.
// A repeated scan for the same trip is answered with the already boarded status.
func (s *boardingServiceImpl) VerifyAndBoard(ctx context.Context, studentID int64, req *dto.BoardRequest) (*dto.BoardResponse, error) {
	student, err := s.authz.ValidateRole(ctx, studentID, models.RoleStudent, MsgNotStudent)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(req.QRToken)
	if token == "" {
		return nil, apperrors.NewBadRequestError(MsgQRTokenRequired)
	}

	value, err := s.signer.Unsign(token, s.policy.MaxAge)
	if err != nil {
		if errors.Is(err, qrtoken.ErrExpired) {
			metrics.BoardingAttempts.WithLabelValues(metrics.OutcomeExpired).Inc()
			return nil, apperrors.ErrQRExpired
		}
		metrics.BoardingAttempts.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, apperrors.ErrQRInvalid
	}

	busID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, apperrors.NewResourceNotFoundError(MsgInvalidBusID)
	}
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBusNotFound) {
			return nil, apperrors.NewResourceNotFoundError(MsgInvalidBusID)
		}
		return nil, err
	}

	trip, err := s.trips.GetActiveByBus(ctx, bus.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting active trip: %w", err)
	}
	if trip == nil {
		metrics.BoardingAttempts.WithLabelValues(metrics.OutcomeNoActiveTrip).Inc()
		return nil, apperrors.Wrap(apperrors.ErrNoActiveTrip, MsgBoardNoActiveTrip)
	}

	if s.policy.RequireAssignedBus && !student.HasBus(bus.ID) {
		metrics.BoardingAttempts.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, apperrors.ErrNotAssignedBus
	}

	existing, err := s.logs.GetByStudentAndTrip(ctx, student.ID, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("error checking boarding log: %w", err)
	}
	if existing != nil {
		return s.alreadyBoarded(), nil
	}

	now := s.clock.Now()
	log := &models.BoardingLog{
		StudentID: student.ID,
		BusID:     bus.ID,
		TripID:    trip.ID,
		ScanTime:  now,
		Date:      helpers.StartOfDay(now, s.loc),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		// a concurrent scan won the insert
		if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			return s.alreadyBoarded(), nil
		}
		return nil, fmt.Errorf("error creating boarding log: %w", err)
	}
	metrics.BoardingAttempts.WithLabelValues(metrics.OutcomeBoarded).Inc()

	s.logger.Info().
		Int64("studentID", student.ID).
		Int64("busID", bus.ID).
		Int64("tripID", trip.ID).
		Msg("Student boarded")

	return &dto.BoardResponse{
		Message: MsgBoardingSucceeded,
		Bus:     bus.BusNumber,
		Time:    helpers.FormatClock(now, s.loc),
		Created: true,
	}, nil
}

func (s *boardingServiceImpl) alreadyBoarded() *dto.BoardResponse {
	metrics.BoardingAttempts.WithLabelValues(metrics.OutcomeAlreadyBoarded).Inc()
	return &dto.BoardResponse{
		Message: MsgAlreadyBoarded,
		Status:  dto.BoardingStatusAlreadyBoarded,
	}
}
