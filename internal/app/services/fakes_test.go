package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/auth"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	pkgauth "github.com/yigit/edutransit/internal/pkg/auth"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/email"
	"github.com/yigit/edutransit/internal/pkg/helpers"
	"github.com/yigit/edutransit/internal/pkg/qrtoken"
	"github.com/yigit/edutransit/internal/pkg/websocket"
)

// memDB backs every fake store with plain maps
type memDB struct {
	mu            sync.Mutex
	nextID        int64
	users         map[int64]*models.User
	buses         map[int64]*models.Bus
	trips         map[int64]*models.Trip
	logs          map[int64]*models.BoardingLog
	notifications map[int64]*models.Notification
	complaints    map[int64]*models.Complaint
	grades        map[int64]*models.Grade
	otps          map[int64]*models.PasswordResetOTP
	tokens        map[string]memToken
}

type memToken struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

func newMemDB() *memDB {
	return &memDB{
		users:         map[int64]*models.User{},
		buses:         map[int64]*models.Bus{},
		trips:         map[int64]*models.Trip{},
		logs:          map[int64]*models.BoardingLog{},
		notifications: map[int64]*models.Notification{},
		complaints:    map[int64]*models.Complaint{},
		grades:        map[int64]*models.Grade{},
		otps:          map[int64]*models.PasswordResetOTP{},
		tokens:        map[string]memToken{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) stores() Stores {
	return Stores{
		Users:         memUserStore{db},
		Buses:         memBusStore{db},
		Trips:         memTripStore{db},
		BoardingLogs:  memLogStore{db},
		Notifications: memNotificationStore{db},
		Complaints:    memComplaintStore{db},
		Grades:        memGradeStore{db},
		OTPs:          memOTPStore{db},
		RefreshTokens: memTokenStore{db},
	}
}

// seeding helpers

func (db *memDB) addUser(u models.User) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == 0 {
		u.ID = db.id()
	}
	if u.Email == "" {
		u.Email = u.Username + "@school.test"
	}
	u.IsActive = true
	if u.MorningArrivalTime == 0 {
		u.MorningArrivalTime = models.DefaultMorningArrival
	}
	if u.EveningDepartureTime == 0 {
		u.EveningDepartureTime = models.DefaultEveningDeparture
	}
	db.users[u.ID] = &u
	return &u
}

func (db *memDB) addBus(b models.Bus) *models.Bus {
	db.mu.Lock()
	defer db.mu.Unlock()
	if b.ID == 0 {
		b.ID = db.id()
	}
	if b.EveningTripStartTime == 0 {
		b.EveningTripStartTime = models.DefaultEveningTripStart
	}
	if b.MorningTripEndTime == 0 {
		b.MorningTripEndTime = models.DefaultMorningTripEnd
	}
	db.buses[b.ID] = &b
	return &b
}

func (db *memDB) addGrade(name, section string) *models.Grade {
	db.mu.Lock()
	defer db.mu.Unlock()
	g := &models.Grade{ID: db.id(), Name: name, Section: section}
	db.grades[g.ID] = g
	return g
}

func (db *memDB) activeTrips(busID int64) []*models.Trip {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*models.Trip
	for _, t := range db.trips {
		if t.BusID == busID && t.IsActive {
			out = append(out, t)
		}
	}
	return out
}

func (db *memDB) logCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.logs)
}

func ptr[T any](v T) *T { return &v }

func matchesFilter(u *models.User, f models.UserFilter) bool {
	if f.Role != nil && u.Role != *f.Role {
		return false
	}
	if f.ManagedByID != nil && !u.IsManagedBy(*f.ManagedByID) {
		return false
	}
	if f.BusID != nil && !u.HasBus(*f.BusID) {
		return false
	}
	if f.ParentID != nil && (u.ParentID == nil || *u.ParentID != *f.ParentID) {
		return false
	}
	if f.ClassInChargeID != nil && (u.ClassInChargeID == nil || *u.ClassInChargeID != *f.ClassInChargeID) {
		return false
	}
	if f.ActiveOnly && !u.IsActive {
		return false
	}
	return true
}

type memUserStore struct{ db *memDB }

func (s memUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (s memUserStore) find(match func(*models.User) bool) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s memUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username })
}

func (s memUserStore) GetByEmail(_ context.Context, address string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == address })
}

func (s memUserStore) List(_ context.Context, f models.UserFilter) ([]*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.User
	for _, u := range s.db.users {
		if matchesFilter(u, f) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memUserStore) Count(ctx context.Context, f models.UserFilter) (int, error) {
	users, err := s.List(ctx, f)
	return len(users), err
}

func (s memUserStore) usernameTaken(username string, except int64) bool {
	for _, u := range s.db.users {
		if u.Username == username && u.ID != except {
			return true
		}
	}
	return false
}

func (s memUserStore) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.usernameTaken(user.Username, 0) {
		return apperrors.ErrUsernameAlreadyExists
	}
	user.ID = s.db.id()
	user.DateJoined = time.Now()
	cp := *user
	s.db.users[user.ID] = &cp
	return nil
}

func (s memUserStore) Update(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	if s.usernameTaken(user.Username, user.ID) {
		return apperrors.ErrUsernameAlreadyExists
	}
	cp := *user
	s.db.users[user.ID] = &cp
	return nil
}

func (s memUserStore) UpdatePassword(_ context.Context, userID int64, hash string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (s memUserStore) UpdateLastLogin(_ context.Context, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[userID]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

func (s memUserStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(s.db.users, id)
	return nil
}

func (s memUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.usernameTaken(username, 0), nil
}

type memBusStore struct{ db *memDB }

func (s memBusStore) GetByID(_ context.Context, id int64) (*models.Bus, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if b, ok := s.db.buses[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, apperrors.ErrBusNotFound
}

func (s memBusStore) List(_ context.Context, managementID *int64) ([]*models.Bus, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Bus
	for _, b := range s.db.buses {
		if managementID == nil || b.IsOwnedBy(*managementID) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memBusStore) Count(ctx context.Context, managementID *int64) (int, error) {
	buses, err := s.List(ctx, managementID)
	return len(buses), err
}

func (s memBusStore) Create(_ context.Context, bus *models.Bus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	bus.ID = s.db.id()
	cp := *bus
	s.db.buses[bus.ID] = &cp
	return nil
}

func (s memBusStore) Update(_ context.Context, bus *models.Bus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.buses[bus.ID]; !ok {
		return apperrors.ErrBusNotFound
	}
	cp := *bus
	s.db.buses[bus.ID] = &cp
	return nil
}

func (s memBusStore) UpdateLocation(_ context.Context, busID int64, lat, lon *float64, at *time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b, ok := s.db.buses[busID]
	if !ok {
		return apperrors.ErrBusNotFound
	}
	b.Latitude, b.Longitude, b.LastUpdate = lat, lon, at
	return nil
}

func (s memBusStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.buses[id]; !ok {
		return apperrors.ErrBusNotFound
	}
	delete(s.db.buses, id)
	return nil
}

type memTripStore struct{ db *memDB }

func (s memTripStore) GetByID(_ context.Context, id int64) (*models.Trip, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if t, ok := s.db.trips[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, apperrors.NewResourceNotFoundError("Trip not found")
}

func (s memTripStore) latest(match func(*models.Trip) bool) *models.Trip {
	var best *models.Trip
	for _, t := range s.db.trips {
		if !match(t) {
			continue
		}
		if best == nil || t.StartTime.After(best.StartTime) || (t.StartTime.Equal(best.StartTime) && t.ID > best.ID) {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func (s memTripStore) GetActiveByBus(_ context.Context, busID int64) (*models.Trip, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.latest(func(t *models.Trip) bool { return t.BusID == busID && t.IsActive }), nil
}

func (s memTripStore) LatestStartedSince(_ context.Context, busID *int64, since time.Time, active bool) (*models.Trip, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.latest(func(t *models.Trip) bool {
		return t.IsActive == active && !t.StartTime.Before(since) && (busID == nil || t.BusID == *busID)
	}), nil
}

func (s memTripStore) DeactivateActiveByBus(_ context.Context, busID int64, endTime time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, t := range s.db.trips {
		if t.BusID == busID && t.IsActive {
			end := endTime
			t.IsActive = false
			t.EndTime = &end
			n++
		}
	}
	return n, nil
}

func (s memTripStore) Create(_ context.Context, trip *models.Trip) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	trip.ID = s.db.id()
	cp := *trip
	s.db.trips[trip.ID] = &cp
	return nil
}

type memLogStore struct{ db *memDB }

func (s memLogStore) Create(_ context.Context, log *models.BoardingLog) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, l := range s.db.logs {
		if l.StudentID == log.StudentID && l.TripID == log.TripID {
			return apperrors.ErrResourceAlreadyExists
		}
	}
	log.ID = s.db.id()
	cp := *log
	s.db.logs[log.ID] = &cp
	return nil
}

func (s memLogStore) GetByStudentAndTrip(_ context.Context, studentID, tripID int64) (*models.BoardingLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, l := range s.db.logs {
		if l.StudentID == studentID && l.TripID == tripID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memLogStore) collect(match func(*models.BoardingLog) bool) []*models.BoardingLog {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.BoardingLog
	for _, l := range s.db.logs {
		if match(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScanTime.Before(out[j].ScanTime) })
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (s memLogStore) ListByTrip(_ context.Context, tripID int64) ([]*models.BoardingLog, error) {
	return s.collect(func(l *models.BoardingLog) bool { return l.TripID == tripID }), nil
}

func (s memLogStore) ListByBusAndDate(_ context.Context, busID int64, date time.Time) ([]*models.BoardingLog, error) {
	return s.collect(func(l *models.BoardingLog) bool { return l.BusID == busID && sameDay(l.Date, date) }), nil
}

func (s memLogStore) ExistsForStudentOnDate(_ context.Context, studentID int64, date time.Time, tripType models.TripType) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, l := range s.db.logs {
		if l.StudentID != studentID || !sameDay(l.Date, date) {
			continue
		}
		if tripType == "" {
			return true, nil
		}
		if t, ok := s.db.trips[l.TripID]; ok && t.TripType == tripType {
			return true, nil
		}
	}
	return false, nil
}

type memNotificationStore struct{ db *memDB }

func (s memNotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n.ID = s.db.id()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	s.db.notifications[n.ID] = &cp
	return nil
}

func (s memNotificationStore) ListByUser(_ context.Context, userID int64, limit int) ([]*models.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.db.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memNotificationStore) CountUnread(_ context.Context, userID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, x := range s.db.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

type memComplaintStore struct{ db *memDB }

func (s memComplaintStore) Create(_ context.Context, c *models.Complaint) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c.ID = s.db.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.db.complaints[c.ID] = &cp
	return nil
}

func (s memComplaintStore) GetByID(_ context.Context, id int64) (*models.Complaint, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if c, ok := s.db.complaints[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperrors.NewResourceNotFoundError("Complaint not found")
}

func (s memComplaintStore) inScope(c *models.Complaint, managedBy *int64) bool {
	if managedBy == nil {
		return true
	}
	u, ok := s.db.users[c.UserID]
	return ok && u.IsManagedBy(*managedBy)
}

func (s memComplaintStore) ListByUser(_ context.Context, userID int64) ([]*models.Complaint, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Complaint
	for _, c := range s.db.complaints {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memComplaintStore) ListWithAuthors(_ context.Context, managedBy *int64) ([]*models.ComplaintWithAuthor, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.ComplaintWithAuthor
	for _, c := range s.db.complaints {
		if !s.inScope(c, managedBy) {
			continue
		}
		entry := &models.ComplaintWithAuthor{Complaint: *c}
		if u, ok := s.db.users[c.UserID]; ok {
			entry.AuthorUsername, entry.AuthorEmail = u.Username, u.Email
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memComplaintStore) CountOpen(_ context.Context, managedBy *int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, c := range s.db.complaints {
		if c.Status != models.ComplaintResolved && s.inScope(c, managedBy) {
			n++
		}
	}
	return n, nil
}

func (s memComplaintStore) Update(_ context.Context, c *models.Complaint) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.complaints[c.ID]; !ok {
		return apperrors.NewResourceNotFoundError("Complaint not found")
	}
	cp := *c
	s.db.complaints[c.ID] = &cp
	return nil
}

type memGradeStore struct{ db *memDB }

func (s memGradeStore) Create(_ context.Context, g *models.Grade) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	g.ID = s.db.id()
	cp := *g
	s.db.grades[g.ID] = &cp
	return nil
}

func (s memGradeStore) GetByID(_ context.Context, id int64) (*models.Grade, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if g, ok := s.db.grades[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, apperrors.NewResourceNotFoundError("Grade not found")
}

func (s memGradeStore) GetAll(_ context.Context) ([]*models.Grade, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Grade
	for _, g := range s.db.grades {
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

type memOTPStore struct{ db *memDB }

func (s memOTPStore) Upsert(_ context.Context, otp *models.PasswordResetOTP) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *otp
	s.db.otps[otp.UserID] = &cp
	return nil
}

func (s memOTPStore) GetByUserID(_ context.Context, userID int64) (*models.PasswordResetOTP, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if o, ok := s.db.otps[userID]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, apperrors.ErrTokenNotFound
}

func (s memOTPStore) DeleteByUserID(_ context.Context, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.otps, userID)
	return nil
}

type memTokenStore struct{ db *memDB }

func (s memTokenStore) CreateToken(_ context.Context, token string, userID int64, expiry time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.tokens[token] = memToken{userID: userID, expiry: expiry}
	return nil
}

func (s memTokenStore) GetTokenByValue(_ context.Context, token string) (int64, time.Time, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[token]
	if !ok {
		return 0, time.Time{}, apperrors.ErrTokenNotFound
	}
	if t.revoked {
		return 0, time.Time{}, apperrors.ErrTokenRevoked
	}
	return t.userID, t.expiry, nil
}

func (s memTokenStore) RevokeToken(_ context.Context, token string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.revoked = true
	s.db.tokens[token] = t
	return nil
}

func (s memTokenStore) RevokeAllUserTokens(_ context.Context, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for k, t := range s.db.tokens {
		if t.userID == userID {
			t.revoked = true
			s.db.tokens[k] = t
		}
	}
	return nil
}

// recordingPublisher keeps every published location update
type recordingPublisher struct {
	mu      sync.Mutex
	updates []websocket.LocationUpdate
}

func (p *recordingPublisher) Publish(u websocket.LocationUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *recordingPublisher) last() websocket.LocationUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updates[len(p.updates)-1]
}

// recordingPusher keeps every push request
type recordingPusher struct {
	mu     sync.Mutex
	tokens [][]string
	titles []string
}

func (p *recordingPusher) Send(_ context.Context, tokens []string, title, _ string, _ map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, append([]string(nil), tokens...))
	p.titles = append(p.titles, title)
	return nil
}

// fixture wires every service over one in-memory database
type fixture struct {
	db        *memDB
	clock     *clock.Fixed
	loc       *time.Location
	mailer    *email.Recorder
	pusher    *recordingPusher
	publisher *recordingPublisher
	signer    *qrtoken.Signer
	svc       *Services
}

const testQRMaxAge = 35 * time.Second

func newFixture(t *testing.T, at time.Time) *fixture {
	t.Helper()

	db := newMemDB()
	clk := clock.NewFixed(at)
	stores := db.stores()
	mailer := &email.Recorder{}
	pusher := &recordingPusher{}
	publisher := &recordingPublisher{}
	signer := qrtoken.NewSigner("test-secret", "test-salt").WithClock(clk.Now)
	logger := zerolog.Nop()
	jwt := pkgauth.NewJWTService(pkgauth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "edutransit.test",
	})

	svc := New(Options{
		Stores:              stores,
		Authz:               auth.NewAuthorizationService(stores.Users, stores.Buses),
		JWT:                 jwt,
		Dispatcher:          NewDispatcher(mailer, pusher, logger),
		Publisher:           publisher,
		Signer:              signer,
		Boarding:            BoardingPolicy{MaxAge: testQRMaxAge},
		Clock:               clk,
		Location:            at.Location(),
		DefaultOrganization: "EduTransit College",
		Logger:              logger,
	})

	return &fixture{
		db:        db,
		clock:     clk,
		loc:       at.Location(),
		mailer:    mailer,
		pusher:    pusher,
		publisher: publisher,
		signer:    signer,
		svc:       svc,
	}
}

// at returns the fixture's day at hh:mm
func (f *fixture) at(hh, mm int) time.Time {
	day := helpers.StartOfDay(f.clock.Now(), f.loc)
	return day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

// busFixture is a seeded bus with its driver, one student and the parent
type busFixture struct {
	bus     *models.Bus
	driver  *models.User
	student *models.User
	parent  *models.User
	manager *models.User
}

func (f *fixture) seedBus() busFixture {
	manager := f.db.addUser(models.User{Username: "manager", Role: models.RoleManagement, OrganizationName: ptr("Northside School")})
	bus := f.db.addBus(models.Bus{
		BusNumber:            "BUS-12",
		NumberPlate:          ptr("KA-01-1234"),
		ManagementID:         &manager.ID,
		EveningTripStartTime: models.NewTimeOfDay(12, 0, 0),
	})
	driver := f.db.addUser(models.User{Username: "driver", FirstName: "Dan", LastName: "Driver", Role: models.RoleDriver, BusID: &bus.ID, ManagedByID: &manager.ID})
	parent := f.db.addUser(models.User{Username: "parent", Role: models.RoleParent, ManagedByID: &manager.ID, PushToken: ptr("ExponentPushToken[parent]")})
	student := f.db.addUser(models.User{Username: "student", FirstName: "Sam", Role: models.RoleStudent, BusID: &bus.ID, ParentID: &parent.ID, ManagedByID: &manager.ID, PushToken: ptr("ExponentPushToken[student]")})
	return busFixture{bus: bus, driver: driver, student: student, parent: parent, manager: manager}
}
