package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/auth"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
)

func TestMorningAndEveningBoardingScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	t1, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripMorning, t1.TripType)

	token := f.svc.Boarding.IssueToken(b.bus.ID)
	resp, err := f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: token})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, MsgBoardingSucceeded, resp.Message)
	assert.Equal(t, "BUS-12", resp.Bus)
	assert.Equal(t, "08:00 AM", resp.Time)

	retry, err := f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: token})
	require.NoError(t, err)
	assert.False(t, retry.Created)
	assert.Equal(t, dto.BoardingStatusAlreadyBoarded, retry.Status)
	assert.Equal(t, 1, f.db.logCount())

	f.clock.Set(f.at(16, 0))
	t2, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripEvening, t2.TripType)

	resp, err = f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, 2, f.db.logCount())

	log, err := f.db.stores().BoardingLogs.GetByStudentAndTrip(ctx, b.student.ID, t2.TripID)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, f.at(0, 0), log.Date)
}

func TestBoardingTokenRules(t *testing.T) {
	ctx := context.Background()

	t.Run("expired token", func(t *testing.T) {
		f := newFixture(t, monday)
		b := f.seedBus()
		_, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
		require.NoError(t, err)

		token := f.svc.Boarding.IssueToken(b.bus.ID)
		f.clock.Advance(testQRMaxAge + time.Second)

		_, err = f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: token})
		assert.ErrorIs(t, err, apperrors.ErrQRExpired)
		assert.Equal(t, 0, f.db.logCount())
	})

	t.Run("tampered token", func(t *testing.T) {
		f := newFixture(t, monday)
		b := f.seedBus()
		_, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
		require.NoError(t, err)

		token := f.svc.Boarding.IssueToken(b.bus.ID) + "x"
		_, err = f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: token})
		assert.ErrorIs(t, err, apperrors.ErrQRInvalid)
	})

	t.Run("no active trip", func(t *testing.T) {
		f := newFixture(t, monday)
		b := f.seedBus()

		_, err := f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
		assert.ErrorIs(t, err, apperrors.ErrNoActiveTrip)
		assert.Equal(t, MsgBoardNoActiveTrip, apperrors.Message(err, ""))
	})

	t.Run("unknown bus", func(t *testing.T) {
		f := newFixture(t, monday)
		b := f.seedBus()

		_, err := f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: f.signer.Sign("9999")})
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
		assert.Equal(t, MsgInvalidBusID, apperrors.Message(err, ""))
	})

	t.Run("empty token", func(t *testing.T) {
		f := newFixture(t, monday)
		b := f.seedBus()

		_, err := f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: "  "})
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	})
}

func TestBoardingRequiresStudent(t *testing.T) {
	f := newFixture(t, monday)
	b := f.seedBus()

	_, err := f.svc.Boarding.VerifyAndBoard(context.Background(), b.parent.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, MsgNotStudent, apperrors.Message(err, ""))
}

func TestBlockedAccountsLoseAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	_, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)

	_, err = f.svc.Management.ToggleBlock(ctx, b.manager.ID, b.student.ID)
	require.NoError(t, err)
	_, err = f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, auth.MsgAccountBlocked, apperrors.Message(err, ""))
	assert.Equal(t, 0, f.db.logCount())

	_, err = f.svc.Management.ToggleBlock(ctx, b.manager.ID, b.driver.ID)
	require.NoError(t, err)
	_, err = f.svc.Trips.StartTrip(ctx, b.driver.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, auth.MsgAccountBlocked, apperrors.Message(err, ""))

	_, err = f.svc.Management.ToggleBlock(ctx, b.manager.ID, b.student.ID)
	require.NoError(t, err)
	resp, err := f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
	require.NoError(t, err)
	assert.True(t, resp.Created)
}

func newBoardingWithPolicy(f *fixture, stores Stores, policy BoardingPolicy) BoardingService {
	return NewBoardingService(stores, auth.NewAuthorizationService(stores.Users, stores.Buses), f.signer, policy, f.clock, f.loc, zerolog.Nop())
}

func TestBoardingOnAnotherBus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	other := f.db.addBus(models.Bus{BusNumber: "BUS-40", ManagementID: &b.manager.ID})
	rider := f.db.addUser(models.User{Username: "rider", Role: models.RoleStudent, BusID: &other.ID, ManagedByID: &b.manager.ID})

	_, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)

	strict := newBoardingWithPolicy(f, f.db.stores(), BoardingPolicy{MaxAge: testQRMaxAge, RequireAssignedBus: true})
	_, err = strict.VerifyAndBoard(ctx, rider.ID, &dto.BoardRequest{QRToken: strict.IssueToken(b.bus.ID)})
	assert.ErrorIs(t, err, apperrors.ErrNotAssignedBus)
	assert.Equal(t, 0, f.db.logCount())

	resp, err := strict.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: strict.IssueToken(b.bus.ID)})
	require.NoError(t, err)
	assert.True(t, resp.Created)

	resp, err = f.svc.Boarding.VerifyAndBoard(ctx, rider.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, 2, f.db.logCount())
}

// racingLogStore sees no log on lookup but loses the insert to a concurrent scan
type racingLogStore struct {
	BoardingLogStore
}

func (racingLogStore) GetByStudentAndTrip(context.Context, int64, int64) (*models.BoardingLog, error) {
	return nil, nil
}

func (racingLogStore) Create(context.Context, *models.BoardingLog) error {
	return apperrors.ErrResourceAlreadyExists
}

func TestConcurrentScanReportsAlreadyBoarded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	_, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)

	stores := f.db.stores()
	stores.BoardingLogs = racingLogStore{BoardingLogStore: stores.BoardingLogs}
	svc := newBoardingWithPolicy(f, stores, BoardingPolicy{MaxAge: testQRMaxAge})

	resp, err := svc.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: svc.IssueToken(b.bus.ID)})
	require.NoError(t, err)
	assert.False(t, resp.Created)
	assert.Equal(t, dto.BoardingStatusAlreadyBoarded, resp.Status)
	assert.Equal(t, MsgAlreadyBoarded, resp.Message)
}
