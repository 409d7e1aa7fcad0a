// Package jobs holds the background work the API process runs on a ticker.
package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/email"
	"github.com/yigit/edutransit/internal/pkg/helpers"
	"github.com/yigit/edutransit/internal/pkg/lock"
	"github.com/yigit/edutransit/internal/pkg/metrics"
	"github.com/yigit/edutransit/internal/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ParentPhoneMissing is listed when a missing student has no parent phone on file
const ParentPhoneMissing = "Not provided"

// MissedBoardingConfig tunes the notifier
type MissedBoardingConfig struct {
	Interval    time.Duration
	RunTimeout  time.Duration
	LockKey     string
	LockTTL     time.Duration
	EveningLead time.Duration
}

func (c MissedBoardingConfig) withDefaults() MissedBoardingConfig {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 50 * time.Second
	}
	if c.LockTTL <= 0 {
		c.LockTTL = c.Interval
	}
	if c.LockKey == "" {
		c.LockKey = "edutransit:notifier:missed-boarding"
	}
	if c.EveningLead <= 0 {
		c.EveningLead = 3 * time.Minute
	}
	return c
}

// Readers the notifier needs. services.Stores satisfies all of them.
type (
	UserReader interface {
		GetByID(ctx context.Context, id int64) (*models.User, error)
		List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	}
	BusReader interface {
		GetByID(ctx context.Context, id int64) (*models.Bus, error)
	}
	BoardingChecker interface {
		ExistsForStudentOnDate(ctx context.Context, studentID int64, date time.Time, tripType models.TripType) (bool, error)
	}
	NotificationWriter interface {
		Create(ctx context.Context, n *models.Notification) error
	}
)

// MissedBoardingStores groups the data the notifier reads and writes
type MissedBoardingStores struct {
	Users         UserReader
	Buses         BusReader
	BoardingLogs  BoardingChecker
	Notifications NotificationWriter
}

// StoresFrom narrows the service stores to what the notifier uses
func StoresFrom(s services.Stores) MissedBoardingStores {
	return MissedBoardingStores{
		Users:         s.Users,
		Buses:         s.Buses,
		BoardingLogs:  s.BoardingLogs,
		Notifications: s.Notifications,
	}
}

// MissedBoardingNotifier alerts teachers and parents when students of a
// management account have not boarded by that account's arrival or
// departure time.
type MissedBoardingNotifier struct {
	users         UserReader
	buses         BusReader
	logs          BoardingChecker
	notifications NotificationWriter
	dispatcher    *services.Dispatcher
	locker        lock.Locker
	clock         clock.Clock
	loc           *time.Location
	cfg           MissedBoardingConfig
	logger        zerolog.Logger

	running sync.Mutex
}

// NewMissedBoardingNotifier creates the notifier. A nil locker means a single replica.
func NewMissedBoardingNotifier(
	stores MissedBoardingStores,
	dispatcher *services.Dispatcher,
	locker lock.Locker,
	clk clock.Clock,
	loc *time.Location,
	cfg MissedBoardingConfig,
	logger zerolog.Logger,
) *MissedBoardingNotifier {
	if locker == nil {
		locker = lock.Noop{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MissedBoardingNotifier{
		users:         stores.Users,
		buses:         stores.Buses,
		logs:          stores.BoardingLogs,
		notifications: stores.Notifications,
		dispatcher:    dispatcher,
		locker:        locker,
		clock:         clk,
		loc:           loc,
		cfg:           cfg.withDefaults(),
		logger:        logger,
	}
}

// Start runs the notifier every interval until ctx is cancelled
func (n *MissedBoardingNotifier) Start(ctx context.Context) {
	ticker := time.NewTicker(n.cfg.Interval)
	go func() {
		defer ticker.Stop()
		n.logger.Info().Dur("interval", n.cfg.Interval).Msg("Missed-boarding notifier started")
		for {
			select {
			case <-ctx.Done():
				n.logger.Info().Msg("Missed-boarding notifier stopped")
				return
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, n.cfg.RunTimeout)
				if _, err := n.RunOnce(runCtx); err != nil {
					n.logger.Error().Err(err).Msg("Missed-boarding run failed")
				}
				cancel()
			}
		}
	}()
}

// RunOnce checks every management account once and returns the number of
// alert emails sent. A run already in progress, here or on another replica,
// makes it return immediately.
func (n *MissedBoardingNotifier) RunOnce(ctx context.Context) (int, error) {
	if !n.running.TryLock() {
		n.logger.Debug().Msg("Missed-boarding run already in progress")
		return 0, nil
	}
	defer n.running.Unlock()

	release, err := n.locker.Acquire(ctx, n.cfg.LockKey, n.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			n.logger.Debug().Msg("Missed-boarding lock held by another replica")
			return 0, nil
		}
		return 0, fmt.Errorf("error acquiring notifier lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to release notifier lock")
		}
	}()

	started := time.Now()
	defer func() { metrics.NotifierRunDuration.Observe(time.Since(started).Seconds()) }()

	ctx, span := tracing.Tracer("jobs").Start(ctx, "missed-boarding run")
	defer span.End()

	now := n.clock.Now().In(n.loc)
	managementRole := models.RoleManagement
	managers, err := n.users.List(ctx, models.UserFilter{Role: &managementRole, ActiveOnly: true})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("error listing management accounts: %w", err)
	}

	sent := 0
	for _, m := range managers {
		tripType, ok := n.trigger(m, now)
		if !ok {
			continue
		}
		sent += n.alertManagement(ctx, m, tripType, now)
	}

	span.SetAttributes(attribute.Int("managers", len(managers)), attribute.Int("alerts", sent))
	if sent > 0 {
		n.logger.Info().Int("alerts", sent).Msg("Missed-boarding alerts sent")
	}
	return sent, nil
}

// trigger reports which trip is due for a check at now. The morning check
// wins when both fall on the same minute.
func (n *MissedBoardingNotifier) trigger(m *models.User, now time.Time) (models.TripType, bool) {
	tod := models.TimeOfDayOf(now)
	if tod.SameMinute(m.MorningArrivalTime) {
		return models.TripMorning, true
	}
	if tod.SameMinute(m.EveningDepartureTime.Add(-n.cfg.EveningLead)) {
		return models.TripEvening, true
	}
	return "", false
}

// alertManagement finds the unboarded students of one account and sends one alert per bus
func (n *MissedBoardingNotifier) alertManagement(ctx context.Context, m *models.User, tripType models.TripType, now time.Time) int {
	logger := n.logger.With().Int64("managementID", m.ID).Str("tripType", string(tripType)).Logger()

	studentRole, managerID := models.RoleStudent, m.ID
	students, err := n.users.List(ctx, models.UserFilter{Role: &studentRole, ManagedByID: &managerID, ActiveOnly: true})
	if err != nil {
		logger.Error().Err(err).Msg("Error listing students for missed-boarding check")
		return 0
	}

	today := helpers.StartOfDay(now, n.loc)
	missing := map[int64][]*models.User{}
	var busOrder []int64
	for _, st := range students {
		if st.BusID == nil {
			continue
		}
		boarded, err := n.logs.ExistsForStudentOnDate(ctx, st.ID, today, tripType)
		if err != nil {
			logger.Error().Err(err).Int64("studentID", st.ID).Msg("Error checking boarding log")
			continue
		}
		if boarded {
			continue
		}
		if _, seen := missing[*st.BusID]; !seen {
			busOrder = append(busOrder, *st.BusID)
		}
		missing[*st.BusID] = append(missing[*st.BusID], st)
	}

	sent := 0
	for _, busID := range busOrder {
		if n.alertBus(ctx, logger, m, busID, tripType, missing[busID], now) {
			sent++
		}
	}
	return sent
}

// missingRow is one line of the alert table
type missingRow struct {
	Student     string
	ParentPhone string
}

// alertBus emails and pushes the missing list of one bus. It reports whether the email went out.
func (n *MissedBoardingNotifier) alertBus(
	ctx context.Context,
	logger zerolog.Logger,
	m *models.User,
	busID int64,
	tripType models.TripType,
	students []*models.User,
	now time.Time,
) bool {
	bus, err := n.buses.GetByID(ctx, busID)
	if err != nil {
		logger.Error().Err(err).Int64("busID", busID).Msg("Bus not found for missed-boarding alert")
		return false
	}
	logger = logger.With().Int64("busID", bus.ID).Str("busNumber", bus.BusNumber).Logger()

	teacherRole, managerID := models.RoleTeacher, m.ID
	teachers, err := n.users.List(ctx, models.UserFilter{Role: &teacherRole, ManagedByID: &managerID, BusID: &bus.ID, ActiveOnly: true})
	if err != nil {
		logger.Error().Err(err).Msg("Error listing bus teachers")
		return false
	}

	recipients, tokens := helpers.NewAddressSet(), helpers.NewTokenSet()
	for _, t := range teachers {
		recipients.Add(t.Email)
		tokens.Add(t.PushTokenValue())
	}

	rows := make([]missingRow, 0, len(students))
	for _, st := range students {
		row := missingRow{Student: st.Username, ParentPhone: ParentPhoneMissing}
		if st.ParentID != nil {
			parent, err := n.users.GetByID(ctx, *st.ParentID)
			if err != nil {
				logger.Warn().Err(err).Int64("studentID", st.ID).Msg("Parent not found for missing student")
			} else {
				row.ParentPhone = parent.PhoneOr(ParentPhoneMissing)
				recipients.Add(parent.Email)
				tokens.Add(parent.PushTokenValue())
			}
		}
		rows = append(rows, row)
	}

	if recipients.Len() == 0 {
		logger.Info().Int("missing", len(rows)).Msg("No recipients for missed-boarding alert, skipping")
		return false
	}

	subject := fmt.Sprintf("Alert: Missing Students for %s (%s Trip)", bus.BusNumber, tripType.Display())
	msg := email.Message{
		To:      recipients.Items(),
		Subject: subject,
		Text:    alertText(bus.BusNumber, tripType, rows),
	}
	if html, err := alertHTML(bus.BusNumber, tripType, rows); err != nil {
		logger.Warn().Err(err).Msg("Error rendering alert HTML, sending text only")
	} else {
		msg.HTML = html
	}

	if err := n.dispatcher.Email(ctx, msg); err != nil {
		logger.Error().Err(err).Msg("Missed-boarding alert not delivered")
		return false
	}
	metrics.AlertsSent.WithLabelValues(string(tripType)).Inc()

	if tokens.Len() > 0 {
		body := fmt.Sprintf("%d student(s) have not boarded %s", len(rows), bus.BusNumber)
		data := map[string]interface{}{"type": "missed_boarding", "bus_id": bus.ID, "trip_type": string(tripType)}
		// push failures are already logged by the dispatcher
		_ = n.dispatcher.Push(ctx, tokens.Items(), subject, body, data)
	}

	n.recordTeacherAlerts(ctx, logger, teachers, bus, tripType, students, now)
	return true
}

// recordTeacherAlerts adds one warning per missing student to each teacher's feed
func (n *MissedBoardingNotifier) recordTeacherAlerts(
	ctx context.Context,
	logger zerolog.Logger,
	teachers []*models.User,
	bus *models.Bus,
	tripType models.TripType,
	students []*models.User,
	now time.Time,
) {
	for _, t := range teachers {
		for _, st := range students {
			err := n.notifications.Create(ctx, &models.Notification{
				UserID:    t.ID,
				Title:     st.DisplayName(),
				Message:   fmt.Sprintf("Has not boarded %s for the %s trip", bus.BusNumber, strings.ToLower(tripType.Display())),
				Type:      models.NotificationWarning,
				CreatedAt: now,
			})
			if err != nil {
				logger.Warn().Err(err).Int64("teacherID", t.ID).Int64("studentID", st.ID).Msg("Failed to record teacher alert")
			}
		}
	}
}

func alertText(busNumber string, tripType models.TripType, rows []missingRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following students have not boarded %s for the %s trip:\n\n", busNumber, tripType.Display())
	for _, r := range rows {
		fmt.Fprintf(&b, "- %s (Parent phone: %s)\n", r.Student, r.ParentPhone)
	}
	b.WriteString("\nRegards,\nSchool Transport Team\n")
	return b.String()
}

var alertTemplate = template.Must(template.New("missed_boarding").Parse(`<html>
<body>
<p>The following students have not boarded <strong>{{.BusNumber}}</strong> for the {{.Trip}} trip:</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Student</th><th>Parent phone</th></tr>
{{range .Rows}}<tr><td>{{.Student}}</td><td>{{.ParentPhone}}</td></tr>
{{end}}</table>
<p>Regards,<br>School Transport Team</p>
</body>
</html>`))

func alertHTML(busNumber string, tripType models.TripType, rows []missingRow) (string, error) {
	var buf bytes.Buffer
	err := alertTemplate.Execute(&buf, struct {
		BusNumber string
		Trip      string
		Rows      []missingRow
	}{busNumber, tripType.Display(), rows})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
