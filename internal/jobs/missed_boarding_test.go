package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/email"
	"github.com/yigit/edutransit/internal/pkg/lock"
)

type fakeUsers map[int64]*models.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f fakeUsers) List(_ context.Context, filter models.UserFilter) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.ManagedByID != nil && !u.IsManagedBy(*filter.ManagedByID) {
			continue
		}
		if filter.BusID != nil && !u.HasBus(*filter.BusID) {
			continue
		}
		if filter.ActiveOnly && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeBuses map[int64]*models.Bus

func (f fakeBuses) GetByID(_ context.Context, id int64) (*models.Bus, error) {
	if b, ok := f[id]; ok {
		return b, nil
	}
	return nil, apperrors.ErrBusNotFound
}

// fakeBoarded records which trips a student boarded today
type fakeBoarded map[int64]models.TripType

func (f fakeBoarded) ExistsForStudentOnDate(_ context.Context, studentID int64, _ time.Time, tripType models.TripType) (bool, error) {
	t, ok := f[studentID]
	return ok && t == tripType, nil
}

type fakeFeed struct {
	mu      sync.Mutex
	entries []*models.Notification
}

func (f *fakeFeed) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, n)
	return nil
}

type fakePusher struct {
	mu     sync.Mutex
	tokens [][]string
}

func (p *fakePusher) Send(_ context.Context, tokens []string, _, _ string, _ map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, tokens)
	return nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return nil, lock.ErrNotAcquired
}

type notifierFixture struct {
	clock    *clock.Fixed
	mailer   *email.Recorder
	pusher   *fakePusher
	feed     *fakeFeed
	boarded  fakeBoarded
	notifier *MissedBoardingNotifier
}

func ptr[T any](v T) *T { return &v }

var schoolDay = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

// newNotifierFixture seeds one management account with two buses. Bus 10 has a
// teacher and three students from two families; bus 20 has one orphaned
// student and nobody to alert.
func newNotifierFixture(t *testing.T, locker lock.Locker) *notifierFixture {
	t.Helper()

	users := fakeUsers{
		1: {ID: 1, Username: "northside", Role: models.RoleManagement, IsActive: true,
			MorningArrivalTime: models.NewTimeOfDay(9, 0, 0), EveningDepartureTime: models.NewTimeOfDay(16, 0, 0)},
		2: {ID: 2, Username: "idle-school", Role: models.RoleManagement, IsActive: false,
			MorningArrivalTime: models.NewTimeOfDay(9, 0, 0), EveningDepartureTime: models.NewTimeOfDay(16, 0, 0)},
		3: {ID: 3, Username: "teacher", Email: "teacher@school.test", Role: models.RoleTeacher, IsActive: true,
			ManagedByID: ptr(int64(1)), BusID: ptr(int64(10)), PushToken: ptr("ExponentPushToken[teacher]")},
		4: {ID: 4, Username: "parent-a", Email: "a@school.test", Role: models.RoleParent, IsActive: true,
			Phone: ptr("+15550100"), PushToken: ptr("ExponentPushToken[a]")},
		5: {ID: 5, Username: "parent-b", Email: "B@school.test", Role: models.RoleParent, IsActive: true},
		11: {ID: 11, Username: "anna", Role: models.RoleStudent, IsActive: true, ManagedByID: ptr(int64(1)), BusID: ptr(int64(10)), ParentID: ptr(int64(4))},
		12: {ID: 12, Username: "alex", Role: models.RoleStudent, IsActive: true, ManagedByID: ptr(int64(1)), BusID: ptr(int64(10)), ParentID: ptr(int64(4))},
		13: {ID: 13, Username: "ben", Role: models.RoleStudent, IsActive: true, ManagedByID: ptr(int64(1)), BusID: ptr(int64(10)), ParentID: ptr(int64(5))},
		14: {ID: 14, Username: "walker", Role: models.RoleStudent, IsActive: true, ManagedByID: ptr(int64(1))},
		15: {ID: 15, Username: "orphan", Role: models.RoleStudent, IsActive: true, ManagedByID: ptr(int64(1)), BusID: ptr(int64(20))},
	}
	buses := fakeBuses{
		10: {ID: 10, BusNumber: "BUS-10"},
		20: {ID: 20, BusNumber: "BUS-20"},
	}

	f := &notifierFixture{
		clock:   clock.NewFixed(schoolDay),
		mailer:  &email.Recorder{},
		pusher:  &fakePusher{},
		feed:    &fakeFeed{},
		boarded: fakeBoarded{},
	}
	logger := zerolog.Nop()
	f.notifier = NewMissedBoardingNotifier(
		MissedBoardingStores{Users: users, Buses: buses, BoardingLogs: f.boarded, Notifications: f.feed},
		services.NewDispatcher(f.mailer, f.pusher, logger),
		locker,
		f.clock,
		time.UTC,
		MissedBoardingConfig{},
		logger,
	)
	return f
}

func (f *notifierFixture) runAt(t *testing.T, hh, mm int) int {
	t.Helper()
	f.clock.Set(schoolDay.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute))
	sent, err := f.notifier.RunOnce(context.Background())
	require.NoError(t, err)
	return sent
}

func TestNotifierFiresOnlyAtTriggerMinutes(t *testing.T) {
	f := newNotifierFixture(t, nil)

	assert.Equal(t, 0, f.runAt(t, 8, 59))
	assert.Equal(t, 0, f.runAt(t, 9, 1))
	assert.Equal(t, 0, f.runAt(t, 16, 0))
	assert.Empty(t, f.mailer.Sent())

	assert.Equal(t, 1, f.runAt(t, 9, 0))
	assert.Equal(t, 1, f.runAt(t, 15, 57))

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Alert: Missing Students for BUS-10 (Morning Trip)", sent[0].Subject)
	assert.Equal(t, "Alert: Missing Students for BUS-10 (Evening Trip)", sent[1].Subject)
}

func TestNotifierGroupsPerBusAndDeduplicatesRecipients(t *testing.T) {
	f := newNotifierFixture(t, nil)
	f.boarded[12] = models.TripMorning

	require.Equal(t, 1, f.runAt(t, 9, 0))

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, []string{"teacher@school.test", "a@school.test", "B@school.test"}, msg.To)

	assert.Contains(t, msg.Text, "- anna (Parent phone: +15550100)")
	assert.Contains(t, msg.Text, "- ben (Parent phone: Not provided)")
	assert.NotContains(t, msg.Text, "alex")
	assert.NotContains(t, msg.Text, "orphan")
	assert.Contains(t, msg.HTML, "<td>anna</td>")

	require.Len(t, f.pusher.tokens, 1)
	assert.ElementsMatch(t, []string{"ExponentPushToken[teacher]", "ExponentPushToken[a]"}, f.pusher.tokens[0])
}

func TestNotifierRecordsTeacherAlerts(t *testing.T) {
	f := newNotifierFixture(t, nil)

	require.Equal(t, 1, f.runAt(t, 9, 0))

	require.Len(t, f.feed.entries, 3)
	for _, n := range f.feed.entries {
		assert.Equal(t, int64(3), n.UserID)
		assert.Equal(t, models.NotificationWarning, n.Type)
		assert.Equal(t, "Has not boarded BUS-10 for the morning trip", n.Message)
	}
	assert.Equal(t, "anna", f.feed.entries[0].Title)
}

func TestNotifierEveningIgnoresMorningBoarding(t *testing.T) {
	f := newNotifierFixture(t, nil)
	for _, id := range []int64{11, 12, 13} {
		f.boarded[id] = models.TripMorning
	}

	assert.Equal(t, 0, f.runAt(t, 9, 0))
	assert.Equal(t, 1, f.runAt(t, 15, 57))
}

func TestNotifierSwallowsDeliveryFailure(t *testing.T) {
	f := newNotifierFixture(t, nil)
	f.mailer.Err = errors.New("smtp down")

	assert.Equal(t, 0, f.runAt(t, 9, 0))
	assert.Len(t, f.mailer.Sent(), 1)
	assert.Empty(t, f.feed.entries)
}

func TestNotifierSkipsWhenLockHeld(t *testing.T) {
	f := newNotifierFixture(t, busyLocker{})

	assert.Equal(t, 0, f.runAt(t, 9, 0))
	assert.Empty(t, f.mailer.Sent())
}

type fakeCleaner struct {
	deleted int64
	err     error
}

func (c fakeCleaner) CleanupExpiredTokens(context.Context) (int64, error) {
	return c.deleted, c.err
}

func TestCleanupTokens(t *testing.T) {
	logger := zerolog.Nop()
	assert.Equal(t, int64(3), CleanupTokens(context.Background(), fakeCleaner{deleted: 3}, logger))
	assert.Equal(t, int64(0), CleanupTokens(context.Background(), fakeCleaner{err: errors.New("db down")}, logger))
}
