package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
)

func TestStudentDashboardBeforeAndDuringTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	dash, err := f.svc.Dashboards.StudentDashboard(ctx, b.student.ID)
	require.NoError(t, err)
	require.NotNil(t, dash.Bus)
	assert.Equal(t, "BUS-12", dash.Bus.Number)
	assert.Equal(t, NotAvailable, dash.Bus.DriverName)
	assert.Equal(t, dto.TripStatus{Type: "Morning", Status: StatusScheduled}, dash.Trip)
	assert.Equal(t, StatusNotBoarded, dash.Boarding.Status)
	assert.Empty(t, dash.Notifications)

	_, err = f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)
	_, err = f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
	require.NoError(t, err)

	dash, err = f.svc.Dashboards.StudentDashboard(ctx, b.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dan Driver", dash.Bus.DriverName)
	assert.Equal(t, dto.TripStatus{Type: "Morning", Status: StatusOngoing}, dash.Trip)
	assert.Equal(t, StatusBoarded, dash.Boarding.Status)
}

func TestStudentDashboardBoardedEarlierToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	_, err := f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)
	_, err = f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
	require.NoError(t, err)
	require.NoError(t, f.svc.Trips.EndTrip(ctx, b.driver.ID))

	f.clock.Set(f.at(14, 0))
	dash, err := f.svc.Dashboards.StudentDashboard(ctx, b.student.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.TripStatus{Type: "Evening", Status: StatusScheduled}, dash.Trip)
	assert.Equal(t, StatusBoarded, dash.Boarding.Status)
}

func TestStudentDashboardFeedIsCapped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	for i := 0; i < DashboardFeedSize+2; i++ {
		require.NoError(t, f.db.stores().Notifications.Create(ctx, &models.Notification{
			UserID:    b.student.ID,
			Title:     fmt.Sprintf("Notice %d", i),
			Type:      models.NotificationInfo,
			CreatedAt: f.at(7, i),
		}))
	}

	dash, err := f.svc.Dashboards.StudentDashboard(ctx, b.student.ID)
	require.NoError(t, err)
	require.Len(t, dash.Notifications, DashboardFeedSize)
	assert.Equal(t, "Notice 4", dash.Notifications[0].Title)
	assert.Equal(t, "07:04 AM", dash.Notifications[0].Time)
}

func TestStudentDashboardRequiresStudent(t *testing.T) {
	f := newFixture(t, monday)
	b := f.seedBus()

	_, err := f.svc.Dashboards.StudentDashboard(context.Background(), b.driver.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, MsgNotStudentDashboard, apperrors.Message(err, ""))
}

func TestParentDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	f.db.addUser(models.User{Username: "walker", FirstName: "Wes", Role: models.RoleStudent, ParentID: &b.parent.ID})

	dash, err := f.svc.Dashboards.ParentDashboard(ctx, b.parent.ID)
	require.NoError(t, err)
	require.Len(t, dash.Children, 2)
	assert.False(t, dash.AnyBoarded)

	walker := dash.Children[1]
	assert.Equal(t, "Wes", walker.Name)
	assert.Nil(t, walker.Bus)
	assert.Equal(t, dto.TripStatus{Type: "Unknown", Status: "No Bus Assigned"}, walker.Trip)

	_, err = f.svc.Trips.StartTrip(ctx, b.driver.ID)
	require.NoError(t, err)
	_, err = f.svc.Boarding.VerifyAndBoard(ctx, b.student.ID, &dto.BoardRequest{QRToken: f.svc.Boarding.IssueToken(b.bus.ID)})
	require.NoError(t, err)

	dash, err = f.svc.Dashboards.ParentDashboard(ctx, b.parent.ID)
	require.NoError(t, err)
	assert.True(t, dash.AnyBoarded)
	assert.Equal(t, "Sam", dash.Children[0].Name)
	assert.Equal(t, StatusBoarded, dash.Children[0].Boarding.Status)
	assert.Equal(t, StatusNotBoarded, dash.Children[1].Boarding.Status)
}

func TestParentDashboardRequiresParent(t *testing.T) {
	f := newFixture(t, monday)
	b := f.seedBus()

	_, err := f.svc.Dashboards.ParentDashboard(context.Background(), b.student.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
