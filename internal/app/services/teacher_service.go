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
	"github.com/yigit/edutransit/internal/pkg/helpers"
)

// Teacher messages
const (
	MsgNotTeacher       = "Not authorized as teacher"
	MsgStudentNotInClass = "Student is not in your class"
)

// TeacherService defines the teacher dashboard operations
type TeacherService interface {
	Stats(ctx context.Context, teacherID int64) (*dto.TeacherStatsResponse, error)
	Students(ctx context.Context, teacherID int64) ([]dto.TeacherStudentEntry, error)
	Alerts(ctx context.Context, teacherID int64) ([]dto.TeacherAlertEntry, error)
	UpdateStudentStatus(ctx context.Context, teacherID int64, req *dto.UpdateStudentStatusRequest) (*dto.UpdateStudentStatusResponse, error)
}

// teacherServiceImpl implements the TeacherService interface
type teacherServiceImpl struct {
	users         UserStore
	trips         TripStore
	logs          BoardingLogStore
	notifications NotificationStore
	grades        GradeStore
	buses         BusStore
	authz         *auth.AuthorizationService
	clock         clock.Clock
	loc           *time.Location
	logger        zerolog.Logger
}

// NewTeacherService creates a new teacher service instance
func NewTeacherService(stores Stores, authz *auth.AuthorizationService, clk clock.Clock, loc *time.Location, logger zerolog.Logger) TeacherService {
	return &teacherServiceImpl{
		users:         stores.Users,
		trips:         stores.Trips,
		logs:          stores.BoardingLogs,
		notifications: stores.Notifications,
		grades:        stores.Grades,
		buses:         stores.Buses,
		authz:         authz,
		clock:         clk,
		loc:           loc,
		logger:        logger,
	}
}

func (s *teacherServiceImpl) teacher(ctx context.Context, teacherID int64) (*models.User, error) {
	return s.authz.ValidateRole(ctx, teacherID, models.RoleTeacher, MsgNotTeacher)
}

func (s *teacherServiceImpl) classStudents(ctx context.Context, teacher *models.User) ([]*models.User, error) {
	role := models.RoleStudent
	students, err := s.users.List(ctx, models.UserFilter{Role: &role, ClassInChargeID: teacher.ClassInChargeID})
	if err != nil {
		return nil, fmt.Errorf("error listing class students: %w", err)
	}
	return students, nil
}

// currentTrip returns the active trip of the teacher's bus, or any trip
// active since local midnight when the teacher has no bus.
func (s *teacherServiceImpl) currentTrip(ctx context.Context, teacher *models.User, now time.Time) (*models.Trip, error) {
	if teacher.BusID != nil {
		trip, err := s.trips.GetActiveByBus(ctx, *teacher.BusID)
		if err != nil || trip != nil {
			return trip, err
		}
	}
	return s.trips.LatestStartedSince(ctx, nil, helpers.StartOfDay(now, s.loc), true)
}

// Stats summarises boarding of the teacher's class on the current trip
func (s *teacherServiceImpl) Stats(ctx context.Context, teacherID int64) (*dto.TeacherStatsResponse, error) {
	teacher, err := s.teacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	resp := &dto.TeacherStatsResponse{TripStatus: "No Active Trip", TripType: "none"}
	if teacher.ClassInChargeID == nil {
		return resp, nil
	}

	students, err := s.classStudents(ctx, teacher)
	if err != nil {
		return nil, err
	}
	resp.TotalStudents = len(students)

	now := s.clock.Now()
	trip, err := s.currentTrip(ctx, teacher, now)
	if err != nil {
		return nil, fmt.Errorf("error getting current trip: %w", err)
	}

	switch {
	case trip != nil:
		resp.TripStatus = trip.TripType.Display() + " Trip Ongoing"
		resp.TripType = string(trip.TripType)
		logs, err := s.logs.ListByTrip(ctx, trip.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing boarding logs: %w", err)
		}
		inClass := make(map[int64]bool, len(students))
		for _, st := range students {
			inClass[st.ID] = true
		}
		for _, l := range logs {
			if inClass[l.StudentID] {
				resp.Boarded++
			}
		}
	default:
		completed, err := s.trips.LatestStartedSince(ctx, teacher.BusID, helpers.StartOfDay(now, s.loc), false)
		if err != nil {
			return nil, fmt.Errorf("error getting completed trip: %w", err)
		}
		if completed != nil {
			resp.TripStatus = completed.TripType.Display() + " Trip Completed"
			resp.TripType = string(completed.TripType)
		} else {
			resp.TripStatus = StatusScheduled
			resp.TripType = string(s.predictedTripType(ctx, teacher, now))
		}
	}

	resp.PendingAlerts, err = s.notifications.CountUnread(ctx, teacher.ID)
	if err != nil {
		return nil, fmt.Errorf("error counting alerts: %w", err)
	}
	return resp, nil
}

// predictedTripType uses the teacher's bus schedule, or noon when there is no bus
func (s *teacherServiceImpl) predictedTripType(ctx context.Context, teacher *models.User, now time.Time) models.TripType {
	local := now.In(s.loc)
	if teacher.BusID != nil {
		bus, err := s.buses.GetByID(ctx, *teacher.BusID)
		if err == nil {
			return bus.TripTypeAt(models.TimeOfDayOf(local))
		}
		s.logger.Warn().Err(err).Int64("busID", *teacher.BusID).Msg("Teacher bus not found")
	}
	if local.Hour() >= 12 {
		return models.TripEvening
	}
	return models.TripMorning
}

// Students lists the teacher's class with boarding status on the current trip
func (s *teacherServiceImpl) Students(ctx context.Context, teacherID int64) ([]dto.TeacherStudentEntry, error) {
	teacher, err := s.teacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher.ClassInChargeID == nil {
		return []dto.TeacherStudentEntry{}, nil
	}

	grade, err := s.grades.GetByID(ctx, *teacher.ClassInChargeID)
	if err != nil {
		return nil, err
	}
	students, err := s.classStudents(ctx, teacher)
	if err != nil {
		return nil, err
	}

	trip, err := s.currentTrip(ctx, teacher, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("error getting current trip: %w", err)
	}
	scanTimes := map[int64]time.Time{}
	if trip != nil {
		logs, err := s.logs.ListByTrip(ctx, trip.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing boarding logs: %w", err)
		}
		for _, l := range logs {
			scanTimes[l.StudentID] = l.ScanTime
		}
	}

	entries := make([]dto.TeacherStudentEntry, 0, len(students))
	for _, st := range students {
		entry := dto.TeacherStudentEntry{
			ID:     st.ID,
			Name:   st.DisplayName(),
			Class:  grade.String(),
			Status: StatusNotBoarded,
		}
		if at, ok := scanTimes[st.ID]; ok {
			t := helpers.FormatClock(at, s.loc)
			entry.Status = StatusBoarded
			entry.Time = &t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Alerts returns the teacher's notification feed
func (s *teacherServiceImpl) Alerts(ctx context.Context, teacherID int64) ([]dto.TeacherAlertEntry, error) {
	teacher, err := s.teacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	ns, err := s.notifications.ListByUser(ctx, teacher.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}

	alerts := make([]dto.TeacherAlertEntry, 0, len(ns))
	for _, n := range ns {
		alerts = append(alerts, dto.TeacherAlertEntry{
			ID:      n.ID,
			Type:    string(n.Type),
			Student: n.Title,
			Time:    helpers.FormatClock(n.CreatedAt, s.loc),
			Details: n.Message,
		})
	}
	return alerts, nil
}

// UpdateStudentStatus acknowledges an attendance note for a student of the teacher's class.
// The note is logged; there is no attendance record.
func (s *teacherServiceImpl) UpdateStudentStatus(ctx context.Context, teacherID int64, req *dto.UpdateStudentStatusRequest) (*dto.UpdateStudentStatusResponse, error) {
	teacher, err := s.teacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	student, err := s.users.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student.Role != models.RoleStudent || teacher.ClassInChargeID == nil ||
		student.ClassInChargeID == nil || *student.ClassInChargeID != *teacher.ClassInChargeID {
		return nil, apperrors.NewForbiddenError(MsgStudentNotInClass)
	}

	s.logger.Info().
		Int64("teacherID", teacher.ID).
		Int64("studentID", student.ID).
		Str("status", req.Status).
		Msg("Student status updated")

	return &dto.UpdateStudentStatusResponse{
		Success: true,
		Message: "Status updated to " + req.Status,
	}, nil
}
