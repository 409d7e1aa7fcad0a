package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
)

var monday = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

func TestStartTripFollowsBusSchedule(t *testing.T) {
	tests := []struct {
		name     string
		hour     int
		minute   int
		expected models.TripType
	}{
		{"early morning", 6, 30, models.TripMorning},
		{"just before boundary", 11, 59, models.TripMorning},
		{"at boundary", 12, 0, models.TripEvening},
		{"afternoon", 16, 0, models.TripEvening},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, monday)
			b := f.seedBus()
			f.clock.Set(f.at(tc.hour, tc.minute))

			resp, err := f.svc.Trips.StartTrip(context.Background(), b.driver.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resp.TripType)
			assert.Equal(t, tc.expected.Display()+" Trip started", resp.Message)
		})
	}
}

func TestStartTripClosesPreviousTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	first, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)

	f.clock.Set(f.at(16, 0))
	second, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)

	active := f.db.activeTrips(b.bus.ID)
	require.Len(t, active, 1)
	assert.Equal(t, second.TripID, active[0].ID)

	closed, err := f.db.stores().Trips.GetByID(ctx, first.TripID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
	require.NotNil(t, closed.EndTime)
	assert.Equal(t, f.at(16, 0), *closed.EndTime)
}

func TestStartTripRequiresDriverWithBus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	_, err := f.svc.Trips.StartTrip(ctx, b.student.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	idle := f.db.addUser(models.User{Username: "idle", Role: models.RoleDriver})
	_, err = f.svc.Trips.StartTrip(ctx, idle.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoBusAssigned)
}

func TestUpdateLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	req := &dto.UpdateLocationRequest{Latitude: ptr(12.97), Longitude: ptr(77.59)}

	err := f.svc.Trips.UpdateLocation(ctx, b.driver.ID, req)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveTrip)

	err = f.svc.Trips.UpdateLocation(ctx, b.driver.ID, &dto.UpdateLocationRequest{Latitude: ptr(12.97)})
	assert.ErrorIs(t, err, apperrors.ErrMissingLocation)

	_, err = f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Trips.UpdateLocation(ctx, b.driver.ID, req))

	loc, err := f.svc.Trips.BusLocation(ctx, b.parent.ID, b.bus.ID)
	require.NoError(t, err)
	assert.True(t, loc.IsActiveTrip)
	assert.Equal(t, 12.97, *loc.Latitude)
	assert.Equal(t, 77.59, *loc.Longitude)
	assert.Equal(t, f.at(8, 0), *loc.LastUpdate)

	update := f.publisher.last()
	assert.Equal(t, b.bus.ID, update.BusID)
	assert.True(t, update.IsActiveTrip)
}

func TestEndTripClearsLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	_, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Trips.UpdateLocation(ctx, b.driver.ID, &dto.UpdateLocationRequest{Latitude: ptr(1.0), Longitude: ptr(2.0)}))
	require.NoError(t, f.svc.Trips.EndTrip(ctx, b.driver.ID))

	assert.Empty(t, f.db.activeTrips(b.bus.ID))

	loc, err := f.svc.Trips.BusLocation(ctx, b.student.ID, b.bus.ID)
	require.NoError(t, err)
	assert.False(t, loc.IsActiveTrip)
	assert.Nil(t, loc.Latitude)
	assert.Nil(t, loc.LastUpdate)
	assert.False(t, f.publisher.last().IsActiveTrip)
}

func TestBusLocationDeniedToUnrelatedParent(t *testing.T) {
	f := newFixture(t, monday)
	b := f.seedBus()
	stranger := f.db.addUser(models.User{Username: "stranger", Role: models.RoleParent})

	_, err := f.svc.Trips.BusLocation(context.Background(), stranger.ID, b.bus.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
