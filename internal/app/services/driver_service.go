package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/auth"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/email"
	"github.com/yigit/edutransit/internal/pkg/helpers"
)

// Driver messages
const (
	MsgNotDriver            = "Permission denied. Not a driver."
	MsgMessageRequired      = "Message required"
	MsgBroadcastNoBus       = "No bus assigned to your account."
	MsgBroadcastNoRecipient = "No students/parents found with email addresses."
)

// BroadcastHistorySize is how many past broadcasts a driver sees
const BroadcastHistorySize = 10

// Route labels on the driver dashboard
const (
	routeCampus      = "College Campus"
	routePickups     = "Pickups"
	routeDropOffs    = "Drop-offs"
	routeMorningName = "Morning Pickup"
	routeEveningName = "Evening Drop-off"
)

// DriverService defines the driver dashboard and broadcast operations
type DriverService interface {
	Stats(ctx context.Context, driverID int64) (*dto.DriverStatsResponse, error)
	CurrentQRToken(ctx context.Context, driverID int64) (string, error)
	Broadcast(ctx context.Context, driverID int64, req *dto.BroadcastRequest) (*dto.MessageResponse, error)
	BroadcastHistory(ctx context.Context, driverID int64) ([]dto.BroadcastHistoryEntry, error)
}

// driverServiceImpl implements the DriverService interface
type driverServiceImpl struct {
	users         UserStore
	buses         BusStore
	trips         TripStore
	logs          BoardingLogStore
	notifications NotificationStore
	authz         *auth.AuthorizationService
	boarding      BoardingService
	dispatcher    *Dispatcher
	clock         clock.Clock
	loc           *time.Location
	logger        zerolog.Logger
}

// NewDriverService creates a new driver service instance
func NewDriverService(
	stores Stores,
	authz *auth.AuthorizationService,
	boarding BoardingService,
	dispatcher *Dispatcher,
	clk clock.Clock,
	loc *time.Location,
	logger zerolog.Logger,
) DriverService {
	return &driverServiceImpl{
		users:         stores.Users,
		buses:         stores.Buses,
		trips:         stores.Trips,
		logs:          stores.BoardingLogs,
		notifications: stores.Notifications,
		authz:         authz,
		boarding:      boarding,
		dispatcher:    dispatcher,
		clock:         clk,
		loc:           loc,
		logger:        logger,
	}
}

func (s *driverServiceImpl) driver(ctx context.Context, driverID int64) (*models.User, error) {
	return s.authz.ValidateRole(ctx, driverID, models.RoleDriver, MsgNotDriver)
}

func routeFor(tripType models.TripType, bus *models.Bus) dto.RouteInfo {
	if tripType == models.TripEvening {
		return dto.RouteInfo{Name: routeEveningName, Start: routeCampus, End: bus.DestinationOr(routeDropOffs)}
	}
	return dto.RouteInfo{Name: routeMorningName, Start: routePickups, End: routeCampus}
}

// Stats builds the driver dashboard. Boarding counts follow the active trip,
// or the whole day when no trip is running.
func (s *driverServiceImpl) Stats(ctx context.Context, driverID int64) (*dto.DriverStatsResponse, error) {
	driver, err := s.driver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if driver.BusID == nil {
		return &dto.DriverStatsResponse{
			Trip:     dto.TripStatus{Type: "No Trip Assigned", Status: "Inactive"},
			Route:    dto.RouteInfo{Name: NotAvailable, Start: NotAvailable, End: NotAvailable},
			Students: []dto.DriverStudentEntry{},
			Alerts:   []dto.NotificationEntry{},
		}, nil
	}

	bus, err := s.buses.GetByID(ctx, *driver.BusID)
	if err != nil {
		return nil, err
	}

	active, err := s.trips.GetActiveByBus(ctx, bus.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting active trip: %w", err)
	}

	now := s.clock.Now()
	predicted := bus.TripTypeAt(models.TimeOfDayOf(now.In(s.loc)))
	trip := dto.TripStatus{Type: predicted.Display() + " Trip (Scheduled)", Status: StatusScheduled}
	route := routeFor(predicted, bus)

	var logs []*models.BoardingLog
	if active != nil {
		trip = dto.TripStatus{Type: active.TripType.Display() + " Trip", Status: StatusOngoing}
		route = routeFor(active.TripType, bus)
		logs, err = s.logs.ListByTrip(ctx, active.ID)
	} else {
		logs, err = s.logs.ListByBusAndDate(ctx, bus.ID, helpers.StartOfDay(now, s.loc))
	}
	if err != nil {
		return nil, fmt.Errorf("error listing boarding logs: %w", err)
	}

	scanTimes := make(map[int64]time.Time, len(logs))
	for _, l := range logs {
		scanTimes[l.StudentID] = l.ScanTime
	}

	studentRole, busID := models.RoleStudent, bus.ID
	students, err := s.users.List(ctx, models.UserFilter{Role: &studentRole, BusID: &busID})
	if err != nil {
		return nil, fmt.Errorf("error listing bus students: %w", err)
	}

	entries := make([]dto.DriverStudentEntry, 0, len(students))
	for _, st := range students {
		entry := dto.DriverStudentEntry{ID: st.ID, Name: driverListName(st), Status: StatusPending, Time: "-"}
		if at, ok := scanTimes[st.ID]; ok {
			entry.Status = StatusBoarded
			entry.Time = helpers.FormatClock(at, s.loc)
		}
		entries = append(entries, entry)
	}

	alerts, err := s.notifications.ListByUser(ctx, driver.ID, DashboardFeedSize)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}

	lastUpdated := "Just now"
	if bus.LastUpdate != nil {
		lastUpdated = helpers.FormatClock(*bus.LastUpdate, s.loc)
	}

	return &dto.DriverStatsResponse{
		Bus: &dto.DriverBusInfo{
			ID:     bus.ID,
			Number: bus.BusNumber,
			Status: "Active",
			Plate:  bus.NumberPlate,
		},
		QRToken:  s.boarding.IssueToken(bus.ID),
		Trip:     trip,
		Route:    route,
		Boarding: dto.BoardingCounts{Boarded: len(scanTimes), Expected: len(students)},
		Location: &dto.LocationInfo{GPS: true, LastUpdated: lastUpdated},
		Students: entries,
		Alerts:   notificationEntries(alerts, s.loc),
	}, nil
}

// driverListName is the first name (or username) followed by the last name
func driverListName(u *models.User) string {
	name := u.FirstName
	if name == "" {
		name = u.Username
	}
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// CurrentQRToken signs a fresh boarding token for the driver's bus
func (s *driverServiceImpl) CurrentQRToken(ctx context.Context, driverID int64) (string, error) {
	driver, err := s.driver(ctx, driverID)
	if err != nil {
		return "", err
	}
	if driver.BusID == nil {
		return "", apperrors.ErrNoBusAssigned
	}
	return s.boarding.IssueToken(*driver.BusID), nil
}

// Broadcast alerts the students of the driver's bus and their parents by email and push
func (s *driverServiceImpl) Broadcast(ctx context.Context, driverID int64, req *dto.BroadcastRequest) (*dto.MessageResponse, error) {
	driver, err := s.driver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewBadRequestError(MsgMessageRequired)
	}
	if driver.BusID == nil {
		return nil, apperrors.Wrap(apperrors.ErrNoBusAssigned, MsgBroadcastNoBus)
	}
	bus, err := s.buses.GetByID(ctx, *driver.BusID)
	if err != nil {
		return nil, err
	}

	studentRole, busID := models.RoleStudent, bus.ID
	students, err := s.users.List(ctx, models.UserFilter{Role: &studentRole, BusID: &busID})
	if err != nil {
		return nil, fmt.Errorf("error listing bus students: %w", err)
	}

	recipients, tokens := helpers.NewAddressSet(), helpers.NewTokenSet()
	for _, st := range students {
		recipients.Add(st.Email)
		tokens.Add(st.PushTokenValue())
		if st.ParentID == nil {
			continue
		}
		parent, err := s.users.GetByID(ctx, *st.ParentID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("studentID", st.ID).Msg("Parent not found for broadcast")
			continue
		}
		recipients.Add(parent.Email)
		tokens.Add(parent.PushTokenValue())
	}

	if recipients.Len() == 0 {
		return &dto.MessageResponse{Message: MsgBroadcastNoRecipient}, nil
	}

	subject := "Transport Alert: " + req.Type
	alert := Alert{
		Email: email.Message{
			To:      recipients.Items(),
			Subject: subject,
			Text:    broadcastBody(bus.BusNumber, req),
		},
		PushTokens: tokens.Items(),
		PushTitle:  subject,
		PushBody:   req.Message,
		PushData:   map[string]interface{}{"type": req.Type, "bus_id": bus.ID},
	}
	if err := s.dispatcher.Fanout(ctx, alert); err != nil {
		s.logger.Warn().Err(err).Int64("busID", bus.ID).Msg("Broadcast delivery incomplete")
	}

	n := recipients.Len()
	record := &models.Notification{
		UserID:    driver.ID,
		Title:     fmt.Sprintf("Broadcast to %d recipients", n),
		Message:   req.Message,
		Type:      models.NotificationSuccess,
		CreatedAt: s.clock.Now(),
	}
	if err := s.notifications.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("error recording broadcast: %w", err)
	}

	s.logger.Info().Int64("busID", bus.ID).Int("recipients", n).Str("type", req.Type).Msg("Broadcast sent")
	return &dto.MessageResponse{Message: fmt.Sprintf("Broadcast sent to %d recipients successfully", n)}, nil
}

func broadcastBody(busNumber string, req *dto.BroadcastRequest) string {
	var b strings.Builder
	b.WriteString("Dear Student/Parent,\n\n")
	fmt.Fprintf(&b, "This is an alert regarding Bus %s.\n\n", busNumber)
	fmt.Fprintf(&b, "Update: %s\n", req.Type)
	fmt.Fprintf(&b, "Message: %s\n\n", req.Message)
	fmt.Fprintf(&b, "Driver Contact: %s\n\n", req.Phone)
	b.WriteString("Regards,\nSchool Transport Team\n")
	return b.String()
}

// BroadcastHistory returns the driver's latest notifications
func (s *driverServiceImpl) BroadcastHistory(ctx context.Context, driverID int64) ([]dto.BroadcastHistoryEntry, error) {
	driver, err := s.driver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	ns, err := s.notifications.ListByUser(ctx, driver.ID, BroadcastHistorySize)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}

	history := make([]dto.BroadcastHistoryEntry, 0, len(ns))
	for _, n := range ns {
		history = append(history, dto.BroadcastHistoryEntry{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			CreatedAt: n.CreatedAt.In(s.loc).Format(helpers.FeedTimeLayout),
		})
	}
	return history, nil
}
