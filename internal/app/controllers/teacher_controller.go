package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/middleware"
)

// TeacherController serves the teacher dashboard
type TeacherController struct {
	teacherService services.TeacherService
	logger         zerolog.Logger
}

// NewTeacherController creates a new teacher controller
func NewTeacherController(teacherService services.TeacherService, logger zerolog.Logger) *TeacherController {
	return &TeacherController{
		teacherService: teacherService,
		logger:         logger,
	}
}

// Stats returns boarding counts for the teacher's class
// @Summary Teacher dashboard stats
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.TeacherStatsResponse} "Class boarding stats"
// @Failure 403 {object} dto.ErrorResponse "Not a teacher"
// @Router /teacher/dashboard/stats/ [get]
func (c *TeacherController) Stats(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	stats, err := c.teacherService.Stats(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, stats)
}

// Students lists the class with each student's boarding state
// @Summary Teacher student list
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.TeacherStudentEntry} "Students"
// @Failure 403 {object} dto.ErrorResponse "Not a teacher"
// @Router /teacher/students/ [get]
func (c *TeacherController) Students(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	students, err := c.teacherService.Students(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, students)
}

// Alerts returns the teacher's notification feed
// @Summary Teacher alerts
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.TeacherAlertEntry} "Alerts"
// @Failure 403 {object} dto.ErrorResponse "Not a teacher"
// @Router /teacher/alerts/ [get]
func (c *TeacherController) Alerts(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	alerts, err := c.teacherService.Alerts(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, alerts)
}

// UpdateStudentStatus acknowledges a teacher's attendance note
// @Summary Update student status
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateStudentStatusRequest true "Student and status"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateStudentStatusResponse} "Status updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "Not a teacher or student not in class"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /teacher/student/update-status/ [post]
func (c *TeacherController) UpdateStudentStatus(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateStudentStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid status update")
		return
	}

	resp, err := c.teacherService.UpdateStudentStatus(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("teacherID", userID).Int64("studentID", req.StudentID).Str("status", req.Status).Msg("Student status updated")
	respondOK(ctx, resp)
}
