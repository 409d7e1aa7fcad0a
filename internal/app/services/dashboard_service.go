package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/edutransit/internal/app/auth"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/clock"
)

// Rider dashboard messages
const (
	MsgNotStudentDashboard = "Not a student"
	MsgNotParent           = "Not a parent"
)

// DashboardService defines the student and parent dashboards
type DashboardService interface {
	StudentDashboard(ctx context.Context, studentID int64) (*dto.StudentDashboardResponse, error)
	ParentDashboard(ctx context.Context, parentID int64) (*dto.ParentDashboardResponse, error)
}

// dashboardServiceImpl implements the DashboardService interface
type dashboardServiceImpl struct {
	users         UserStore
	notifications NotificationStore
	riders        riderView
	authz         *auth.AuthorizationService
	clock         clock.Clock
	loc           *time.Location
}

// NewDashboardService creates a new dashboard service instance
func NewDashboardService(stores Stores, authz *auth.AuthorizationService, clk clock.Clock, loc *time.Location) DashboardService {
	return &dashboardServiceImpl{
		users:         stores.Users,
		notifications: stores.Notifications,
		riders: riderView{
			users: stores.Users,
			trips: stores.Trips,
			logs:  stores.BoardingLogs,
			buses: stores.Buses,
			loc:   loc,
		},
		authz: authz,
		clock: clk,
		loc:   loc,
	}
}

func (s *dashboardServiceImpl) feed(ctx context.Context, userID int64) ([]dto.NotificationEntry, error) {
	ns, err := s.notifications.ListByUser(ctx, userID, DashboardFeedSize)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	return notificationEntries(ns, s.loc), nil
}

// StudentDashboard shows the student's bus, trip and boarding status
func (s *dashboardServiceImpl) StudentDashboard(ctx context.Context, studentID int64) (*dto.StudentDashboardResponse, error) {
	student, err := s.authz.ValidateRole(ctx, studentID, models.RoleStudent, MsgNotStudentDashboard)
	if err != nil {
		return nil, err
	}

	st, err := s.riders.status(ctx, student, s.clock.Now())
	if err != nil {
		return nil, err
	}

	feed, err := s.feed(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	return &dto.StudentDashboardResponse{
		Bus:           st.Bus,
		Trip:          st.Trip,
		Boarding:      st.Boarding,
		Notifications: feed,
	}, nil
}

// ParentDashboard shows each child's bus, trip and boarding status
func (s *dashboardServiceImpl) ParentDashboard(ctx context.Context, parentID int64) (*dto.ParentDashboardResponse, error) {
	parent, err := s.authz.ValidateRole(ctx, parentID, models.RoleParent, MsgNotParent)
	if err != nil {
		return nil, err
	}

	children, err := s.users.List(ctx, models.UserFilter{ParentID: &parent.ID})
	if err != nil {
		return nil, fmt.Errorf("error listing children: %w", err)
	}

	now := s.clock.Now()
	resp := &dto.ParentDashboardResponse{Children: make([]dto.ChildStatus, 0, len(children))}
	for _, child := range children {
		st, err := s.riders.status(ctx, child, now)
		if err != nil {
			return nil, err
		}
		trip := st.Trip
		if !st.HasBus {
			trip = dto.TripStatus{Type: "Unknown", Status: "No Bus Assigned"}
		}
		resp.AnyBoarded = resp.AnyBoarded || st.Boarded
		resp.Children = append(resp.Children, dto.ChildStatus{
			ID:       child.ID,
			Name:     child.DisplayName(),
			Bus:      st.Bus,
			Trip:     trip,
			Boarding: st.Boarding,
		})
	}

	resp.Notifications, err = s.feed(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
