package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/helpers"
)

// DashboardFeedSize is how many notifications a dashboard shows
const DashboardFeedSize = 3

// Dashboard labels
const (
	StatusBoarded    = "Boarded"
	StatusNotBoarded = "Not Boarded"
	StatusPending    = "Pending"
	StatusScheduled  = "Scheduled"
	StatusOngoing    = "Ongoing"
	NotAvailable     = "N/A"
)

func notificationEntries(ns []*models.Notification, loc *time.Location) []dto.NotificationEntry {
	out := make([]dto.NotificationEntry, 0, len(ns))
	for _, n := range ns {
		out = append(out, dto.NotificationEntry{
			ID:      n.ID,
			Title:   n.Title,
			Message: n.Message,
			Time:    helpers.FormatClock(n.CreatedAt, loc),
		})
	}
	return out
}

// riderView builds the bus, trip and boarding cards a student or parent sees for one student
type riderView struct {
	users UserStore
	trips TripStore
	logs  BoardingLogStore
	buses BusStore
	loc   *time.Location
}

type riderStatus struct {
	Bus      *dto.RiderBusInfo
	Trip     dto.TripStatus
	Boarded  bool
	HasBus   bool
	Boarding dto.BoardingState
}

func (v riderView) status(ctx context.Context, student *models.User, now time.Time) (*riderStatus, error) {
	st := &riderStatus{
		Trip:     dto.TripStatus{Type: models.TripMorning.Display(), Status: StatusScheduled},
		Boarding: dto.BoardingState{Status: StatusNotBoarded},
	}
	if student.BusID == nil {
		return st, nil
	}

	bus, err := v.buses.GetByID(ctx, *student.BusID)
	if err != nil {
		return nil, err
	}
	st.HasBus = true

	active, err := v.trips.GetActiveByBus(ctx, bus.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting active trip: %w", err)
	}

	driverName := NotAvailable
	if active != nil {
		if driver, err := v.users.GetByID(ctx, active.DriverID); err == nil {
			driverName = driver.DisplayName()
		}
	}
	st.Bus = &dto.RiderBusInfo{
		ID:         bus.ID,
		Number:     bus.BusNumber,
		Plate:      bus.NumberPlate,
		DriverName: driverName,
	}

	local := now.In(v.loc)
	st.Trip.Type = bus.TripTypeAt(models.TimeOfDayOf(local)).Display()
	if active != nil {
		st.Trip = dto.TripStatus{Type: active.TripType.Display(), Status: StatusOngoing}
		log, err := v.logs.GetByStudentAndTrip(ctx, student.ID, active.ID)
		if err != nil {
			return nil, fmt.Errorf("error checking boarding log: %w", err)
		}
		st.Boarded = log != nil
	} else {
		st.Boarded, err = v.logs.ExistsForStudentOnDate(ctx, student.ID, helpers.StartOfDay(now, v.loc), "")
		if err != nil {
			return nil, fmt.Errorf("error checking boarding log: %w", err)
		}
	}
	if st.Boarded {
		st.Boarding.Status = StatusBoarded
	}
	return st, nil
}
