package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/middleware"
)

// RiderController serves the student and parent dashboards and their complaints
type RiderController struct {
	dashboardService services.DashboardService
	complaintService services.ComplaintService
	logger           zerolog.Logger
}

// NewRiderController creates a new rider controller
func NewRiderController(dashboardService services.DashboardService, complaintService services.ComplaintService, logger zerolog.Logger) *RiderController {
	return &RiderController{
		dashboardService: dashboardService,
		complaintService: complaintService,
		logger:           logger,
	}
}

// StudentDashboard returns the student's bus, trip and boarding state
// @Summary Student dashboard
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StudentDashboardResponse} "Student dashboard"
// @Failure 403 {object} dto.ErrorResponse "Not a student"
// @Router /student/dashboard/ [get]
func (c *RiderController) StudentDashboard(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	resp, err := c.dashboardService.StudentDashboard(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, resp)
}

// ParentDashboard returns the state of every child of the parent
// @Summary Parent dashboard
// @Tags parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ParentDashboardResponse} "Parent dashboard"
// @Failure 403 {object} dto.ErrorResponse "Not a parent"
// @Router /parent/dashboard/ [get]
func (c *RiderController) ParentDashboard(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	resp, err := c.dashboardService.ParentDashboard(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, resp)
}

// ListComplaints returns the caller's complaints, newest first
// @Summary List my complaints
// @Tags student, parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ComplaintEntry} "Complaints"
// @Router /student/complaints/ [get]
// @Router /parent/complaints/ [get]
func (c *RiderController) ListComplaints(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	complaints, err := c.complaintService.ListMine(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, complaints)
}

// CreateComplaint files a complaint
// @Summary File a complaint
// @Tags student, parent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateComplaintRequest true "Complaint"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse} "Complaint submitted"
// @Failure 400 {object} dto.ErrorResponse "Title and description required"
// @Router /student/complaints/ [post]
// @Router /parent/complaints/ [post]
func (c *RiderController) CreateComplaint(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateComplaintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid complaint")
		return
	}

	if err := c.complaintService.Create(ctx.Request.Context(), userID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", userID).Msg("Complaint submitted")
	respondMessage(ctx, http.StatusCreated, services.MsgComplaintSubmitted)
}
