package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
)

// ClassNotAssigned is shown for accounts without a class in charge
const ClassNotAssigned = "Not Assigned"

// UserService defines the interface for profile operations
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*dto.UserProfile, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserProfile, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	users    UserStore
	profiles profileBuilder
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(stores Stores, defaultOrganization string, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		users:    stores.Users,
		profiles: profileBuilder{users: stores.Users, grades: stores.Grades, defaultOrganization: defaultOrganization},
		logger:   logger,
	}
}

// profileBuilder resolves the derived fields of a profile
type profileBuilder struct {
	users               UserStore
	grades              GradeStore
	defaultOrganization string
}

func (b profileBuilder) build(ctx context.Context, user *models.User) (*dto.UserProfile, error) {
	profile := &dto.UserProfile{
		ID:                       user.ID,
		Username:                 user.Username,
		Email:                    user.Email,
		FirstName:                user.FirstName,
		LastName:                 user.LastName,
		Phone:                    user.Phone,
		Role:                     user.Role,
		BusID:                    user.BusID,
		Children:                 []dto.ChildSummary{},
		MorningArrivalTime:       user.MorningArrivalTime,
		EveningDepartureTime:     user.EveningDepartureTime,
		PushToken:                user.PushToken,
		ResolvedOrganizationName: b.organization(ctx, user),
		ClassInChargeName:        ClassNotAssigned,
	}

	if user.ClassInChargeID != nil {
		grade, err := b.grades.GetByID(ctx, *user.ClassInChargeID)
		switch {
		case err == nil:
			profile.ClassInChargeName = grade.String()
		case !errors.Is(err, apperrors.ErrResourceNotFound):
			return nil, fmt.Errorf("error getting class: %w", err)
		}
	}

	if user.Role == models.RoleParent {
		parentID := user.ID
		children, err := b.users.List(ctx, models.UserFilter{ParentID: &parentID})
		if err != nil {
			return nil, fmt.Errorf("error listing children: %w", err)
		}
		for _, c := range children {
			profile.Children = append(profile.Children, dto.ChildSummary{
				ID:        c.ID,
				Username:  c.Username,
				FirstName: c.FirstName,
				LastName:  c.LastName,
				BusID:     c.BusID,
			})
		}
	}
	return profile, nil
}

// organization is the user's own organization, then the manager's, then the default
func (b profileBuilder) organization(ctx context.Context, user *models.User) string {
	if user.OrganizationName != nil && *user.OrganizationName != "" {
		return *user.OrganizationName
	}
	if user.ManagedByID != nil {
		manager, err := b.users.GetByID(ctx, *user.ManagedByID)
		if err == nil && manager.OrganizationName != nil && *manager.OrganizationName != "" {
			return *manager.OrganizationName
		}
	}
	return b.defaultOrganization
}

// GetProfile returns the caller's profile
func (s *userServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profiles.build(ctx, user)
}

// UpdateProfile applies a partial update to the caller's own profile
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Error finding user for profile update")
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.PushToken != nil {
		user.PushToken = req.PushToken
	}
	if req.OrganizationName != nil {
		user.OrganizationName = req.OrganizationName
	}
	if req.MorningArrivalTime != nil {
		user.MorningArrivalTime = *req.MorningArrivalTime
	}
	if req.EveningDepartureTime != nil {
		user.EveningDepartureTime = *req.EveningDepartureTime
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.logger.Debug().Int64("userID", user.ID).Msg("Profile updated")
	return s.profiles.build(ctx, user)
}
