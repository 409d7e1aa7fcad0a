package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/logger"
)

// Messages surfaced on authorization failures
const (
	MsgTrackBusDenied   = "You do not have permission to track this bus."
	MsgPermissionDenied = "Permission denied"
	MsgAccountBlocked   = "Your account is blocked. Contact your administrator."
)

// UserReader is the part of the user store authorization needs
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Count(ctx context.Context, filter models.UserFilter) (int, error)
}

// BusReader is the part of the bus store authorization needs
type BusReader interface {
	GetByID(ctx context.Context, id int64) (*models.Bus, error)
}

// AuthorizationService handles authorization operations
type AuthorizationService struct {
	users UserReader
	buses BusReader
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(users UserReader, buses BusReader) *AuthorizationService {
	return &AuthorizationService{
		users: users,
		buses: buses,
	}
}

// CanTrackBus reports whether user may see the live position of bus.
func (s *AuthorizationService) CanTrackBus(ctx context.Context, user *models.User, bus *models.Bus) (bool, error) {
	switch user.Role {
	case models.RoleSuperuser:
		return true, nil
	case models.RoleManagement:
		return bus.IsOwnedBy(user.ID), nil
	case models.RoleDriver, models.RoleStudent, models.RoleTeacher:
		return user.HasBus(bus.ID), nil
	case models.RoleParent:
		parentID, busID := user.ID, bus.ID
		n, err := s.users.Count(ctx, models.UserFilter{ParentID: &parentID, BusID: &busID})
		if err != nil {
			return false, fmt.Errorf("error counting children on bus: %w", err)
		}
		return n > 0, nil
	default:
		return false, nil
	}
}

// AuthorizeBusAccess loads the user and the bus and fails unless the user may track it.
// An unknown bus is reported before the permission check.
func (s *AuthorizationService) AuthorizeBusAccess(ctx context.Context, userID, busID int64) error {
	_, _, err := s.ResolveBusAccess(ctx, userID, busID)
	return err
}

// ResolveBusAccess is AuthorizeBusAccess that also returns the loaded records.
func (s *AuthorizationService) ResolveBusAccess(ctx context.Context, userID, busID int64) (*models.User, *models.Bus, error) {
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.ActiveUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) && !errors.Is(err, apperrors.ErrPermissionDenied) {
			logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user in ResolveBusAccess")
		}
		return nil, nil, err
	}

	ok, err := s.CanTrackBus(ctx, user, bus)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperrors.NewForbiddenError(MsgTrackBusDenied)
	}
	return user, bus, nil
}

// ActiveUser loads the acting user. A blocked account is refused even while
// its access token is still valid.
func (s *AuthorizationService) ActiveUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewForbiddenError(MsgAccountBlocked)
	}
	return user, nil
}

// ValidateAdmin loads the user and fails unless it is a superuser or management account
func (s *AuthorizationService) ValidateAdmin(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.ActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsAdmin() {
		return nil, apperrors.NewForbiddenError(MsgPermissionDenied)
	}
	return user, nil
}

// ValidateRole loads the user and fails unless it holds role
func (s *AuthorizationService) ValidateRole(ctx context.Context, userID int64, role models.Role, message string) (*models.User, error) {
	user, err := s.ActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, apperrors.NewForbiddenError(message)
	}
	return user, nil
}

// CanManageUser reports whether actor administers target. Acting on oneself is
// decided by the caller.
func CanManageUser(actor, target *models.User) bool {
	switch actor.Role {
	case models.RoleSuperuser:
		return true
	case models.RoleManagement:
		return target.IsManagedBy(actor.ID)
	default:
		return false
	}
}

// CanManageBus reports whether actor may edit or delete bus
func CanManageBus(actor *models.User, bus *models.Bus) bool {
	switch actor.Role {
	case models.RoleSuperuser:
		return true
	case models.RoleManagement:
		return bus.IsOwnedBy(actor.ID)
	default:
		return false
	}
}

// ManagementScope returns the management id whose records actor sees, or nil for everything
func ManagementScope(actor *models.User) *int64 {
	switch actor.Role {
	case models.RoleSuperuser:
		return nil
	case models.RoleManagement:
		id := actor.ID
		return &id
	default:
		return actor.ManagedByID
	}
}
