package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
)

type memUsers map[int64]*models.User

func (m memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (m memUsers) Count(_ context.Context, f models.UserFilter) (int, error) {
	n := 0
	for _, u := range m {
		if f.ParentID != nil && (u.ParentID == nil || *u.ParentID != *f.ParentID) {
			continue
		}
		if f.BusID != nil && !u.HasBus(*f.BusID) {
			continue
		}
		n++
	}
	return n, nil
}

type memBuses map[int64]*models.Bus

func (m memBuses) GetByID(_ context.Context, id int64) (*models.Bus, error) {
	if b, ok := m[id]; ok {
		return b, nil
	}
	return nil, apperrors.ErrBusNotFound
}

func ptr[T any](v T) *T { return &v }

func TestCanTrackBusByRole(t *testing.T) {
	bus := &models.Bus{ID: 7, BusNumber: "BUS-7", ManagementID: ptr(int64(1))}
	users := memUsers{
		1:  {ID: 1, Role: models.RoleManagement},
		2:  {ID: 2, Role: models.RoleManagement},
		3:  {ID: 3, Role: models.RoleSuperuser},
		4:  {ID: 4, Role: models.RoleDriver, BusID: ptr(int64(7))},
		5:  {ID: 5, Role: models.RoleDriver, BusID: ptr(int64(8))},
		6:  {ID: 6, Role: models.RoleParent},
		7:  {ID: 7, Role: models.RoleStudent, BusID: ptr(int64(7)), ParentID: ptr(int64(6))},
		8:  {ID: 8, Role: models.RoleParent},
		9:  {ID: 9, Role: models.RoleTeacher, BusID: ptr(int64(7))},
		10: {ID: 10, Role: models.RoleTeacher},
	}
	svc := NewAuthorizationService(users, memBuses{7: bus})

	cases := map[int64]bool{1: true, 2: false, 3: true, 4: true, 5: false, 6: true, 7: true, 8: false, 9: true, 10: false}
	for id, want := range cases {
		got, err := svc.CanTrackBus(context.Background(), users[id], bus)
		require.NoError(t, err)
		assert.Equal(t, want, got, "user %d (%s)", id, users[id].Role)
	}
}

func TestAuthorizeBusAccess(t *testing.T) {
	users := memUsers{1: {ID: 1, Role: models.RoleStudent, IsActive: true}}
	svc := NewAuthorizationService(users, memBuses{7: {ID: 7}})

	err := svc.AuthorizeBusAccess(context.Background(), 1, 99)
	assert.True(t, errors.Is(err, apperrors.ErrBusNotFound))

	err = svc.AuthorizeBusAccess(context.Background(), 1, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	assert.Equal(t, MsgTrackBusDenied, apperrors.Message(err, ""))
}

func TestBlockedAccountIsRefused(t *testing.T) {
	ctx := context.Background()
	users := memUsers{
		1: {ID: 1, Role: models.RoleManagement, IsActive: false},
		2: {ID: 2, Role: models.RoleDriver, BusID: ptr(int64(7)), IsActive: false},
		3: {ID: 3, Role: models.RoleDriver, BusID: ptr(int64(7)), IsActive: true},
	}
	svc := NewAuthorizationService(users, memBuses{7: {ID: 7}})

	_, err := svc.ValidateAdmin(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, MsgAccountBlocked, apperrors.Message(err, ""))

	_, err = svc.ValidateRole(ctx, 2, models.RoleDriver, "drivers only")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, MsgAccountBlocked, apperrors.Message(err, ""))

	err = svc.AuthorizeBusAccess(ctx, 2, 7)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, MsgAccountBlocked, apperrors.Message(err, ""))

	user, err := svc.ValidateRole(ctx, 3, models.RoleDriver, "drivers only")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	require.NoError(t, svc.AuthorizeBusAccess(ctx, 3, 7))
}

func TestCanManageUser(t *testing.T) {
	super := &models.User{ID: 1, Role: models.RoleSuperuser}
	mgr := &models.User{ID: 2, Role: models.RoleManagement}
	own := &models.User{ID: 3, Role: models.RoleStudent, ManagedByID: ptr(int64(2))}
	other := &models.User{ID: 4, Role: models.RoleStudent, ManagedByID: ptr(int64(9))}

	assert.True(t, CanManageUser(super, other))
	assert.True(t, CanManageUser(mgr, own))
	assert.False(t, CanManageUser(mgr, other))
	assert.False(t, CanManageUser(own, other))
}

func TestManagementScope(t *testing.T) {
	assert.Nil(t, ManagementScope(&models.User{ID: 1, Role: models.RoleSuperuser}))
	assert.Equal(t, int64(2), *ManagementScope(&models.User{ID: 2, Role: models.RoleManagement}))
	assert.Equal(t, int64(2), *ManagementScope(&models.User{ID: 5, Role: models.RoleDriver, ManagedByID: ptr(int64(2))}))
	assert.Nil(t, ManagementScope(&models.User{ID: 6, Role: models.RoleDriver}))
}
