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
	"github.com/yigit/edutransit/internal/pkg/helpers"
)

// Complaint messages
const (
	MsgComplaintFieldsRequired = "Title and description required"
	MsgComplaintSubmitted      = "Complaint submitted successfully"
	MsgComplaintUpdated        = "Complaint updated successfully"
	MsgComplaintNotFound       = "Complaint not found"
)

// ComplaintService defines complaint filing and handling
type ComplaintService interface {
	ListMine(ctx context.Context, userID int64) ([]dto.ComplaintEntry, error)
	Create(ctx context.Context, userID int64, req *dto.CreateComplaintRequest) error
	ListForManagement(ctx context.Context, adminID int64) ([]dto.ManagementComplaintEntry, error)
	Update(ctx context.Context, adminID, complaintID int64, req *dto.UpdateComplaintRequest) error
}

// complaintServiceImpl implements the ComplaintService interface
type complaintServiceImpl struct {
	complaints ComplaintStore
	users      UserStore
	authz      *auth.AuthorizationService
	loc        *time.Location
	logger     zerolog.Logger
}

// NewComplaintService creates a new complaint service instance
func NewComplaintService(stores Stores, authz *auth.AuthorizationService, loc *time.Location, logger zerolog.Logger) ComplaintService {
	return &complaintServiceImpl{
		complaints: stores.Complaints,
		users:      stores.Users,
		authz:      authz,
		loc:        loc,
		logger:     logger,
	}
}

// ListMine returns the caller's complaints newest first
func (s *complaintServiceImpl) ListMine(ctx context.Context, userID int64) ([]dto.ComplaintEntry, error) {
	cs, err := s.complaints.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing complaints: %w", err)
	}

	entries := make([]dto.ComplaintEntry, 0, len(cs))
	for _, c := range cs {
		entries = append(entries, dto.ComplaintEntry{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Status:      c.Status,
			Response:    c.AdministrativeResponse,
			Date:        c.CreatedAt.In(s.loc).Format(helpers.DayLayout),
		})
	}
	return entries, nil
}

// Create files a complaint for the caller
func (s *complaintServiceImpl) Create(ctx context.Context, userID int64, req *dto.CreateComplaintRequest) error {
	title, description := strings.TrimSpace(req.Title), strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return apperrors.NewBadRequestError(MsgComplaintFieldsRequired)
	}

	c := &models.Complaint{
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      models.ComplaintSubmitted,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return fmt.Errorf("error creating complaint: %w", err)
	}

	s.logger.Info().Int64("userID", userID).Int64("complaintID", c.ID).Msg("Complaint submitted")
	return nil
}

// ListForManagement returns the complaints an administrator handles
func (s *complaintServiceImpl) ListForManagement(ctx context.Context, adminID int64) ([]dto.ManagementComplaintEntry, error) {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	cs, err := s.complaints.ListWithAuthors(ctx, auth.ManagementScope(admin))
	if err != nil {
		return nil, fmt.Errorf("error listing complaints: %w", err)
	}

	entries := make([]dto.ManagementComplaintEntry, 0, len(cs))
	for _, c := range cs {
		entries = append(entries, dto.ManagementComplaintEntry{
			ID:           c.ID,
			Title:        c.Title,
			Description:  c.Description,
			Status:       c.Status,
			Response:     c.AdministrativeResponse,
			Date:         c.CreatedAt.In(s.loc).Format(helpers.ISODateLayout),
			StudentName:  c.AuthorUsername,
			StudentID:    c.UserID,
			StudentEmail: c.AuthorEmail,
		})
	}
	return entries, nil
}

// Update changes the status or response of a complaint filed by one of the administrator's members
func (s *complaintServiceImpl) Update(ctx context.Context, adminID, complaintID int64, req *dto.UpdateComplaintRequest) error {
	admin, err := s.authz.ValidateAdmin(ctx, adminID)
	if err != nil {
		return err
	}

	c, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return err
	}

	author, err := s.users.GetByID(ctx, c.UserID)
	if err != nil {
		return apperrors.NewResourceNotFoundError(MsgComplaintNotFound)
	}
	if !auth.CanManageUser(admin, author) {
		return apperrors.NewForbiddenError(auth.MsgPermissionDenied)
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return apperrors.NewBadRequestError("Invalid status")
		}
		c.Status = *req.Status
	}
	if req.Response != nil {
		c.AdministrativeResponse = req.Response
	}

	if err := s.complaints.Update(ctx, c); err != nil {
		return err
	}

	s.logger.Info().Int64("complaintID", c.ID).Str("status", string(c.Status)).Msg("Complaint updated")
	return nil
}
