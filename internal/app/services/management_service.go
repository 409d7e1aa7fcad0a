package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/auth"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	pkgauth "github.com/yigit/edutransit/internal/pkg/auth"
	"github.com/yigit/edutransit/internal/pkg/email"
	"github.com/yigit/edutransit/internal/pkg/filestorage"
)

// Management messages
const (
	MsgCannotDeleteSelf        = "You cannot delete your own account."
	MsgCannotDeleteUser        = "You do not have permission to delete this user."
	MsgUserDeleted             = "User deleted successfully"
	MsgCannotBlockSelf         = "You cannot block your own account."
	MsgCannotModifyUser        = "You do not have permission to modify this user."
	MsgCannotUpdateUser        = "You do not have permission to update this user."
	MsgMissingFields           = "Missing required fields"
	MsgInvalidRole             = "Invalid role"
	MsgParentDetailsRequired   = "Parent details required for students"
	MsgUsernameEmailRequired   = "Username and Email are required"
	MsgUsernameExists          = "Username already exists"
	MsgManagementCreated       = "Management user created and email sent successfully"
	MsgBusNotFoundOrDenied     = "Bus not found or permission denied"
	MsgBusDeleted              = "Bus deleted successfully"
	MsgBusNumberRequired       = "Bus number is required"
	MsgMemberUpdated           = "Member updated successfully"
	defaultOrganizationMention = "our organization"
)

// RevenuePerUser is the flat yearly fee used for the revenue estimate
const RevenuePerUser = 120

// busPhotoDir is the storage subdirectory for bus photos
const busPhotoDir = "bus_photos"

// ManagementService defines the administration operations of superusers and management accounts
type ManagementService interface {
	Stats(ctx context.Context, adminID int64) (*dto.ManagementStatsResponse, error)
	ListUsers(ctx context.Context, adminID int64) ([]dto.UserListEntry, error)
	DeleteUser(ctx context.Context, adminID, userID int64) error
	ToggleBlock(ctx context.Context, adminID, userID int64) (*dto.ToggleBlockResponse, error)
	RegisterMember(ctx context.Context, adminID int64, req *dto.RegisterMemberRequest) (*dto.RegisterMemberResponse, error)
	RegisterManagement(ctx context.Context, adminID int64, req *dto.RegisterManagementRequest) error
	UpdateMember(ctx context.Context, adminID, userID int64, req *dto.UpdateMemberRequest) error
	ListBuses(ctx context.Context, userID int64) ([]dto.BusResponse, error)
	CreateBus(ctx context.Context, adminID int64, req *dto.BusRequest, photo *multipart.FileHeader) (*dto.BusResponse, error)
	UpdateBus(ctx context.Context, adminID, busID int64, req *dto.BusRequest, photo *multipart.FileHeader) (*dto.BusResponse, error)
	DeleteBus(ctx context.Context, adminID, busID int64) error
	Grades(ctx context.Context) ([]dto.GradeEntry, error)
}

// managementServiceImpl implements the ManagementService interface
type managementServiceImpl struct {
	users      UserStore
	buses      BusStore
	grades     GradeStore
	complaints ComplaintStore
	authz      *auth.AuthorizationService
	dispatcher *Dispatcher
	storage    filestorage.FileStorage
	logger     zerolog.Logger
}

// NewManagementService creates a new management service instance
func NewManagementService(
	stores Stores,
	authz *auth.AuthorizationService,
	dispatcher *Dispatcher,
	storage filestorage.FileStorage,
	logger zerolog.Logger,
) ManagementService {
	return &managementServiceImpl{
		users:      stores.Users,
		buses:      stores.Buses,
		grades:     stores.Grades,
		complaints: stores.Complaints,
		authz:      authz,
		dispatcher: dispatcher,
		storage:    storage,
		logger:     logger,
	}
}

// Stats builds the management dashboard. A superuser sees every account,
// a management account only its own members.
func (s *managementServiceImpl) Stats(ctx context.Context, adminID int64) (*dto.ManagementStatsResponse, error) {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ManagementStatsResponse{ManagementBreakdown: []dto.ManagementBreakdownEntry{}}
	scope := auth.ManagementScope(admin)

	if admin.Role == models.RoleSuperuser {
		managementRole := models.RoleManagement
		if resp.TotalUsers, err = s.users.Count(ctx, models.UserFilter{}); err != nil {
			return nil, fmt.Errorf("error counting users: %w", err)
		}
		if resp.ManagementUsers, err = s.users.Count(ctx, models.UserFilter{Role: &managementRole}); err != nil {
			return nil, fmt.Errorf("error counting management users: %w", err)
		}
		if resp.VerifiedInstitutions, err = s.users.Count(ctx, models.UserFilter{Role: &managementRole, ActiveOnly: true}); err != nil {
			return nil, fmt.Errorf("error counting verified institutions: %w", err)
		}
		resp.PendingInstitutions = resp.ManagementUsers - resp.VerifiedInstitutions
		if resp.ActiveUsers, err = s.users.Count(ctx, models.UserFilter{ActiveOnly: true}); err != nil {
			return nil, fmt.Errorf("error counting active users: %w", err)
		}

		verified, err := s.users.List(ctx, models.UserFilter{Role: &managementRole, ActiveOnly: true})
		if err != nil {
			return nil, fmt.Errorf("error listing management users: %w", err)
		}
		for _, m := range verified {
			id := m.ID
			n, err := s.users.Count(ctx, models.UserFilter{ManagedByID: &id, ActiveOnly: true})
			if err != nil {
				return nil, fmt.Errorf("error counting managed users: %w", err)
			}
			resp.ManagementBreakdown = append(resp.ManagementBreakdown, dto.ManagementBreakdownEntry{
				ID:          m.ID,
				Username:    m.Username,
				Email:       m.Email,
				ActiveUsers: n,
			})
		}
	} else {
		if resp.TotalUsers, err = s.users.Count(ctx, models.UserFilter{ManagedByID: scope}); err != nil {
			return nil, fmt.Errorf("error counting users: %w", err)
		}
		if resp.ActiveUsers, err = s.users.Count(ctx, models.UserFilter{ManagedByID: scope, ActiveOnly: true}); err != nil {
			return nil, fmt.Errorf("error counting active users: %w", err)
		}
	}

	if resp.TotalBuses, err = s.buses.Count(ctx, scope); err != nil {
		return nil, fmt.Errorf("error counting buses: %w", err)
	}
	if resp.OpenComplaints, err = s.complaints.CountOpen(ctx, scope); err != nil {
		return nil, fmt.Errorf("error counting open complaints: %w", err)
	}
	resp.Revenue = resp.TotalUsers * RevenuePerUser
	return resp, nil
}

// ListUsers lists every account for a superuser, or the caller's members
func (s *managementServiceImpl) ListUsers(ctx context.Context, adminID int64) ([]dto.UserListEntry, error) {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx, models.UserFilter{ManagedByID: auth.ManagementScope(admin)})
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	entries := make([]dto.UserListEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, dto.UserListEntry{
			ID:               u.ID,
			Username:         u.Username,
			Email:            u.Email,
			Role:             u.Role,
			IsActive:         u.IsActive,
			Phone:            u.Phone,
			OrganizationName: u.OrganizationName,
		})
	}
	return entries, nil
}

// target loads a user the administrator wants to act on
func (s *managementServiceImpl) target(ctx context.Context, admin *models.User, userID int64, denied, self string) (*models.User, error) {
	if userID == admin.ID {
		return nil, apperrors.NewBadRequestError(self)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CanManageUser(admin, user) {
		return nil, apperrors.NewForbiddenError(denied)
	}
	return user, nil
}

// DeleteUser removes a member account
func (s *managementServiceImpl) DeleteUser(ctx context.Context, adminID, userID int64) error {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	user, err := s.target(ctx, admin, userID, MsgCannotDeleteUser, MsgCannotDeleteSelf)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info().Int64("adminID", admin.ID).Int64("userID", user.ID).Msg("User deleted")
	return nil
}

// ToggleBlock flips whether a member account may log in
func (s *managementServiceImpl) ToggleBlock(ctx context.Context, adminID, userID int64) (*dto.ToggleBlockResponse, error) {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	user, err := s.target(ctx, admin, userID, MsgCannotModifyUser, MsgCannotBlockSelf)
	if err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	state := "unblocked"
	if !user.IsActive {
		state = "blocked"
	}
	s.logger.Info().Int64("adminID", admin.ID).Int64("userID", user.ID).Str("state", state).Msg("User block toggled")
	return &dto.ToggleBlockResponse{
		Message:  fmt.Sprintf("User %s successfully", state),
		IsActive: user.IsActive,
	}, nil
}

// managedBy is the manager new accounts are attached to
func managedBy(admin *models.User) *int64 {
	if admin.Role == models.RoleManagement {
		id := admin.ID
		return &id
	}
	return nil
}

// optionalGrade resolves a class id, ignoring unknown ids
func (s *managementServiceImpl) optionalGrade(ctx context.Context, id *int64) *int64 {
	if id == nil {
		return nil
	}
	if _, err := s.grades.GetByID(ctx, *id); err != nil {
		s.logger.Debug().Err(err).Int64("gradeID", *id).Msg("Ignoring unknown class")
		return nil
	}
	return id
}

// optionalBus resolves a bus id, ignoring unknown ids
func (s *managementServiceImpl) optionalBus(ctx context.Context, id *int64) *int64 {
	if id == nil {
		return nil
	}
	if _, err := s.buses.GetByID(ctx, *id); err != nil {
		s.logger.Debug().Err(err).Int64("busID", *id).Msg("Ignoring unknown bus")
		return nil
	}
	return id
}

// newAccount creates an account with a generated password and returns the password
func (s *managementServiceImpl) newAccount(ctx context.Context, user *models.User) (string, error) {
	password, err := pkgauth.GenerateRandomPassword(pkgauth.GeneratedPasswordLength)
	if err != nil {
		return "", fmt.Errorf("error generating password: %w", err)
	}
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	user.Password = hash
	user.IsActive = true
	user.MorningArrivalTime = models.DefaultMorningArrival
	user.EveningDepartureTime = models.DefaultEveningDeparture
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrUsernameAlreadyExists) {
			return "", apperrors.Wrap(apperrors.ErrUsernameAlreadyExists, MsgUsernameExists)
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}
	return password, nil
}

// sendCredentials emails credentials, logging failures
func (s *managementServiceImpl) sendCredentials(ctx context.Context, to, subject, body string) {
	msg := email.Message{To: []string{to}, Subject: subject, Text: body}
	if err := s.dispatcher.Email(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Str("to", to).Msg("Credentials email not delivered")
	}
}

// RegisterMember creates a teacher, driver or student. A student also gets a
// parent account; both credential sets are emailed to the parent.
func (s *managementServiceImpl) RegisterMember(ctx context.Context, adminID int64, req *dto.RegisterMemberRequest) (*dto.RegisterMemberResponse, error) {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	username, address := strings.TrimSpace(req.Username), strings.TrimSpace(req.Email)
	if req.Role == "" || username == "" || address == "" {
		return nil, apperrors.NewBadRequestError(MsgMissingFields)
	}
	role, ok := models.MemberRole(req.Role).Role()
	if !ok {
		return nil, apperrors.NewBadRequestError(MsgInvalidRole)
	}
	if role == models.RoleStudent && req.ParentDetails == nil {
		return nil, apperrors.NewBadRequestError(MsgParentDetailsRequired)
	}
	if role == models.RoleStudent {
		taken, err := s.users.UsernameExists(ctx, req.ParentDetails.Name)
		if err != nil {
			return nil, fmt.Errorf("error checking parent username: %w", err)
		}
		if taken {
			return nil, apperrors.Wrap(apperrors.ErrUsernameAlreadyExists, MsgUsernameExists)
		}
	}

	member := &models.User{
		Username:    username,
		Email:       address,
		Phone:       req.Phone,
		Role:        role,
		ManagedByID: managedBy(admin),
		BusID:       s.optionalBus(ctx, req.BusID),
	}
	if role != models.RoleDriver {
		member.ClassInChargeID = s.optionalGrade(ctx, req.ClassInChargeID)
	}

	password, err := s.newAccount(ctx, member)
	if err != nil {
		return nil, err
	}
	s.sendCredentials(ctx, member.Email, "Account Created",
		fmt.Sprintf("Your %s account has been created.\nUsername: %s\nPassword: %s", req.Role, member.Username, password))

	resp := &dto.RegisterMemberResponse{
		Message:        fmt.Sprintf("%s account created successfully", strings.ToUpper(req.Role[:1])+req.Role[1:]),
		MemberUsername: member.Username,
		MemberPassword: password,
	}

	if role == models.RoleStudent {
		parent := &models.User{
			Username:    req.ParentDetails.Name,
			Email:       req.ParentDetails.Email,
			Role:        models.RoleParent,
			ManagedByID: managedBy(admin),
		}
		parentPassword, err := s.newAccount(ctx, parent)
		if err != nil {
			if delErr := s.users.Delete(ctx, member.ID); delErr != nil {
				s.logger.Error().Err(delErr).Int64("userID", member.ID).Msg("Failed to remove student after parent creation failed")
			}
			return nil, err
		}

		member.ParentID = &parent.ID
		if err := s.users.Update(ctx, member); err != nil {
			return nil, fmt.Errorf("error linking parent: %w", err)
		}

		s.sendCredentials(ctx, parent.Email, "Parent & Student Account Created", parentCredentialsBody(parent.Username, parentPassword, member.Username, password))
		resp.ParentUsername = parent.Username
		resp.ParentPassword = parentPassword
	}

	s.logger.Info().Int64("adminID", admin.ID).Int64("userID", member.ID).Str("role", string(role)).Msg("Member registered")
	return resp, nil
}

func parentCredentialsBody(parentName, parentPassword, childName, childPassword string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", parentName)
	b.WriteString("Your parent account has been created.\n")
	fmt.Fprintf(&b, "Username: %s\nPassword: %s\n\n", parentName, parentPassword)
	fmt.Fprintf(&b, "Your Child's (%s) Login Details:\n", childName)
	fmt.Fprintf(&b, "Username: %s\nPassword: %s\n\n", childName, childPassword)
	b.WriteString("Please login to manage your child's activities.\n")
	return b.String()
}

// RegisterManagement creates a management account and emails its credentials
func (s *managementServiceImpl) RegisterManagement(ctx context.Context, adminID int64, req *dto.RegisterManagementRequest) error {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return err
	}

	username, address := strings.TrimSpace(req.Username), strings.TrimSpace(req.Email)
	if username == "" || address == "" {
		return apperrors.NewBadRequestError(MsgUsernameEmailRequired)
	}

	user := &models.User{
		Username:         username,
		Email:            address,
		Phone:            req.Phone,
		Role:             models.RoleManagement,
		OrganizationName: req.OrganizationName,
	}
	password, err := s.newAccount(ctx, user)
	if err != nil {
		return err
	}

	org := defaultOrganizationMention
	if req.OrganizationName != nil && *req.OrganizationName != "" {
		org = *req.OrganizationName
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", username)
	fmt.Fprintf(&b, "Your management account has been created for %s.\n\n", org)
	fmt.Fprintf(&b, "Here are your login credentials:\nUsername: %s\nPassword: %s\n\n", username, password)
	b.WriteString("Please login and change your password immediately.\n\nRegards,\nAdmin Team\n")
	s.sendCredentials(ctx, address, "Your Management Account Credentials", b.String())

	s.logger.Info().Int64("adminID", admin.ID).Int64("userID", user.ID).Msg("Management account registered")
	return nil
}

// UpdateMember changes a member's fields. Administrators may also update themselves.
func (s *managementServiceImpl) UpdateMember(ctx context.Context, adminID, userID int64, req *dto.UpdateMemberRequest) error {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ID != admin.ID && !auth.CanManageUser(admin, user) {
		return apperrors.NewForbiddenError(MsgCannotUpdateUser)
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
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

	switch user.Role {
	case models.RoleTeacher, models.RoleStudent:
		s.applyLink(ctx, &user.ClassInChargeID, req.ClassInChargeID, s.optionalGrade)
		s.applyLink(ctx, &user.BusID, req.BusID, s.optionalBus)
	case models.RoleDriver:
		s.applyLink(ctx, &user.BusID, req.BusID, s.optionalBus)
	}

	if user.Role == models.RoleStudent && user.ParentID != nil && req.ParentDetails != nil {
		parent, err := s.users.GetByID(ctx, *user.ParentID)
		if err != nil {
			return err
		}
		if req.ParentDetails.Name != nil {
			parent.Username = *req.ParentDetails.Name
		}
		if req.ParentDetails.Email != nil {
			parent.Email = *req.ParentDetails.Email
		}
		if err := s.users.Update(ctx, parent); err != nil {
			return err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Int64("adminID", admin.ID).Int64("userID", user.ID).Msg("Member updated")
	return nil
}

// applyLink clears the link on an explicit null, replaces it with a known id,
// and leaves it unchanged for an unknown id or an absent field.
func (s *managementServiceImpl) applyLink(ctx context.Context, field **int64, v dto.OptionalID, resolve func(context.Context, *int64) *int64) {
	if !v.Set {
		return
	}
	if v.Value == nil {
		*field = nil
		return
	}
	if id := resolve(ctx, v.Value); id != nil {
		*field = id
	}
}

// ListBuses lists buses visible to the caller: all for a superuser, owned
// buses for management, the manager's buses for members.
func (s *managementServiceImpl) ListBuses(ctx context.Context, userID int64) ([]dto.BusResponse, error) {
	user, err := s.authz.ActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	buses, err := s.buses.List(ctx, auth.ManagementScope(user))
	if err != nil {
		return nil, fmt.Errorf("error listing buses: %w", err)
	}

	out := make([]dto.BusResponse, 0, len(buses))
	for _, b := range buses {
		out = append(out, dto.NewBusResponse(b))
	}
	return out, nil
}

// CreateBus registers a bus owned by the calling management account
func (s *managementServiceImpl) CreateBus(ctx context.Context, adminID int64, req *dto.BusRequest, photo *multipart.FileHeader) (*dto.BusResponse, error) {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if req.BusNumber == nil || strings.TrimSpace(*req.BusNumber) == "" {
		return nil, apperrors.NewBadRequestError(MsgBusNumberRequired)
	}

	bus := &models.Bus{
		BusNumber:            strings.TrimSpace(*req.BusNumber),
		Destination:          req.Destination,
		NumberPlate:          req.NumberPlate,
		ManagementID:         managedBy(admin),
		MorningTripEndTime:   models.DefaultMorningTripEnd,
		EveningTripStartTime: models.DefaultEveningTripStart,
	}
	if req.MorningTripEndTime != nil {
		bus.MorningTripEndTime = *req.MorningTripEndTime
	}
	if req.EveningTripStartTime != nil {
		bus.EveningTripStartTime = *req.EveningTripStartTime
	}
	if err := s.savePhoto(bus, photo); err != nil {
		return nil, err
	}

	if err := s.buses.Create(ctx, bus); err != nil {
		s.discardPhoto(bus.PhotoURL)
		return nil, fmt.Errorf("error creating bus: %w", err)
	}

	s.logger.Info().Int64("adminID", admin.ID).Int64("busID", bus.ID).Str("busNumber", bus.BusNumber).Msg("Bus registered")
	resp := dto.NewBusResponse(bus)
	return &resp, nil
}

// ownedBus loads a bus the caller may change. Missing and foreign buses look the same.
func (s *managementServiceImpl) ownedBus(ctx context.Context, adminID, busID int64) (*models.Bus, error) {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBusNotFound) {
			return nil, apperrors.NewResourceNotFoundError(MsgBusNotFoundOrDenied)
		}
		return nil, err
	}
	if !auth.CanManageBus(admin, bus) {
		return nil, apperrors.NewResourceNotFoundError(MsgBusNotFoundOrDenied)
	}
	return bus, nil
}

// UpdateBus applies a partial update to an owned bus
func (s *managementServiceImpl) UpdateBus(ctx context.Context, adminID, busID int64, req *dto.BusRequest, photo *multipart.FileHeader) (*dto.BusResponse, error) {
	bus, err := s.ownedBus(ctx, adminID, busID)
	if err != nil {
		return nil, err
	}

	if req.BusNumber != nil {
		if strings.TrimSpace(*req.BusNumber) == "" {
			return nil, apperrors.NewBadRequestError(MsgBusNumberRequired)
		}
		bus.BusNumber = strings.TrimSpace(*req.BusNumber)
	}
	if req.Destination != nil {
		bus.Destination = req.Destination
	}
	if req.NumberPlate != nil {
		bus.NumberPlate = req.NumberPlate
	}
	if req.MorningTripEndTime != nil {
		bus.MorningTripEndTime = *req.MorningTripEndTime
	}
	if req.EveningTripStartTime != nil {
		bus.EveningTripStartTime = *req.EveningTripStartTime
	}

	previous := bus.PhotoURL
	if err := s.savePhoto(bus, photo); err != nil {
		return nil, err
	}
	if err := s.buses.Update(ctx, bus); err != nil {
		if bus.PhotoURL != previous {
			s.discardPhoto(bus.PhotoURL)
		}
		return nil, err
	}
	if bus.PhotoURL != previous {
		s.discardPhoto(previous)
	}

	resp := dto.NewBusResponse(bus)
	return &resp, nil
}

// DeleteBus removes an owned bus
func (s *managementServiceImpl) DeleteBus(ctx context.Context, adminID, busID int64) error {
	bus, err := s.ownedBus(ctx, adminID, busID)
	if err != nil {
		return err
	}
	if err := s.buses.Delete(ctx, bus.ID); err != nil {
		return err
	}
	s.discardPhoto(bus.PhotoURL)
	s.logger.Info().Int64("busID", bus.ID).Msg("Bus deleted")
	return nil
}

func (s *managementServiceImpl) savePhoto(bus *models.Bus, photo *multipart.FileHeader) error {
	if photo == nil || s.storage == nil {
		return nil
	}
	path, err := s.storage.SaveFileWithPath(photo, busPhotoDir)
	if err != nil {
		return apperrors.NewBadRequestError(fmt.Sprintf("Invalid photo: %v", err))
	}
	bus.PhotoURL = &path
	return nil
}

func (s *managementServiceImpl) discardPhoto(path *string) {
	if path == nil || s.storage == nil {
		return
	}
	if err := s.storage.DeleteFile(*path); err != nil {
		s.logger.Warn().Err(err).Str("path", *path).Msg("Failed to delete bus photo")
	}
}

// Grades lists every class
func (s *managementServiceImpl) Grades(ctx context.Context) ([]dto.GradeEntry, error) {
	grades, err := s.grades.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing grades: %w", err)
	}
	out := make([]dto.GradeEntry, 0, len(grades))
	for _, g := range grades {
		out = append(out, dto.GradeEntry{ID: g.ID, Name: g.String()})
	}
	return out, nil
}
