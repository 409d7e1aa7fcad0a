package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/middleware"
)

// ManagementController serves the administrative dashboard
type ManagementController struct {
	managementService services.ManagementService
	complaintService  services.ComplaintService
	logger            zerolog.Logger
}

// NewManagementController creates a new management controller
func NewManagementController(managementService services.ManagementService, complaintService services.ComplaintService, logger zerolog.Logger) *ManagementController {
	return &ManagementController{
		managementService: managementService,
		complaintService:  complaintService,
		logger:            logger,
	}
}

// Stats returns user counts for the caller's scope
// @Summary Management stats
// @Description A superuser sees global totals with a per-management breakdown. A manager sees their own members.
// @Tags management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ManagementStatsResponse} "Stats"
// @Failure 403 {object} dto.ErrorResponse "Permission denied"
// @Router /dashboard/stats/ [get]
func (c *ManagementController) Stats(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	stats, err := c.managementService.Stats(ctx.Request.Context(), adminID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, stats)
}

// ListUsers lists the accounts the caller manages
// @Summary List users
// @Tags management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserListEntry} "Users"
// @Failure 403 {object} dto.ErrorResponse "Permission denied"
// @Router /users/ [get]
func (c *ManagementController) ListUsers(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	users, err := c.managementService.ListUsers(ctx.Request.Context(), adminID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, users)
}

// DeleteUser removes a member account
// @Summary Delete user
// @Tags management
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "User deleted"
// @Failure 400 {object} dto.ErrorResponse "Cannot delete your own account"
// @Failure 403 {object} dto.ErrorResponse "Not your member"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/delete/ [delete]
func (c *ManagementController) DeleteUser(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}

	if err := c.managementService.DeleteUser(ctx.Request.Context(), adminID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("adminID", adminID).Int64("userID", userID).Msg("User deleted")
	respondMessage(ctx, http.StatusOK, services.MsgUserDeleted)
}

// ToggleBlock flips the active flag of a member account
// @Summary Block or unblock user
// @Tags management
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.ToggleBlockResponse} "New state"
// @Failure 400 {object} dto.ErrorResponse "Cannot block your own account"
// @Failure 403 {object} dto.ErrorResponse "Not your member"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/toggle-block/ [post]
func (c *ManagementController) ToggleBlock(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}

	resp, err := c.managementService.ToggleBlock(ctx.Request.Context(), adminID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, resp)
}

// UpdateMember changes a member's details and links
// @Summary Update member
// @Description Updates common fields, schedule, class and bus links and the parent of a student. A null class_in_charge or bus clears the link.
// @Tags management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateMemberRequest true "Fields to change, plus optional class_in_charge and bus ids"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "Member updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "Not your member"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/update/ [put]
func (c *ManagementController) UpdateMember(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}

	req, err := bindUpdateMember(ctx)
	if err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid member data")
		return
	}

	if err := c.managementService.UpdateMember(ctx.Request.Context(), adminID, userID, req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondMessage(ctx, http.StatusOK, services.MsgMemberUpdated)
}

// bindUpdateMember decodes the body twice: once into the request and once
// raw, so an explicit null link can be told apart from an absent one.
func bindUpdateMember(ctx *gin.Context) (*dto.UpdateMemberRequest, error) {
	body, err := ctx.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var req dto.UpdateMemberRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if req.ClassInChargeID, err = optionalID(raw, "class_in_charge"); err != nil {
		return nil, err
	}
	if req.BusID, err = optionalID(raw, "bus"); err != nil {
		return nil, err
	}
	return &req, nil
}

var errInvalidLink = errors.New("link must be an id, a numeric string or null")

// optionalID reads key as an id. Null and the empty string clear the link.
func optionalID(raw map[string]json.RawMessage, key string) (dto.OptionalID, error) {
	v, present := raw[key]
	if !present {
		return dto.OptionalID{}, nil
	}

	var value interface{}
	if err := json.Unmarshal(v, &value); err != nil {
		return dto.OptionalID{}, err
	}

	switch x := value.(type) {
	case nil:
		return dto.OptionalID{Set: true}, nil
	case float64:
		id := int64(x)
		return dto.OptionalID{Set: true, Value: &id}, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return dto.OptionalID{Set: true}, nil
		}
		id, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return dto.OptionalID{}, errInvalidLink
		}
		return dto.OptionalID{Set: true, Value: &id}, nil
	}
	return dto.OptionalID{}, errInvalidLink
}

// RegisterMember creates a teacher, driver or student account
// @Summary Register member
// @Description Creates the account with a generated password and emails the credentials. A student also gets a linked parent account.
// @Tags management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterMemberRequest true "Member"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterMemberResponse} "Member created"
// @Failure 400 {object} dto.ErrorResponse "Missing fields, invalid role or username taken"
// @Failure 403 {object} dto.ErrorResponse "Permission denied"
// @Router /register/member/ [post]
func (c *ManagementController) RegisterMember(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	var req dto.RegisterMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid member data")
		return
	}

	resp, err := c.managementService.RegisterMember(ctx.Request.Context(), adminID, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("adminID", adminID).Str("username", req.Username).Msg("Member registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(resp))
}

// RegisterManagement creates a management account
// @Summary Register management
// @Tags management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterManagementRequest true "Management account"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse} "Management created"
// @Failure 400 {object} dto.ErrorResponse "Missing fields or username taken"
// @Failure 403 {object} dto.ErrorResponse "Permission denied"
// @Router /register/management/ [post]
func (c *ManagementController) RegisterManagement(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	var req dto.RegisterManagementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid management data")
		return
	}

	if err := c.managementService.RegisterManagement(ctx.Request.Context(), adminID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondMessage(ctx, http.StatusCreated, services.MsgManagementCreated)
}

// ListBuses lists the buses visible to the caller
// @Summary List buses
// @Tags buses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.BusResponse} "Buses"
// @Router /dashboard/buses/ [get]
func (c *ManagementController) ListBuses(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	buses, err := c.managementService.ListBuses(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, buses)
}

// CreateBus adds a bus owned by the caller
// @Summary Add bus
// @Tags buses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param bus_number formData string true "Bus number"
// @Param destination formData string false "Evening destination"
// @Param number_plate formData string false "Number plate"
// @Param morning_trip_end_time formData string false "HH:MM"
// @Param evening_trip_start_time formData string false "HH:MM"
// @Param photo formData file false "Bus photo"
// @Success 201 {object} dto.APIResponse{data=dto.BusResponse} "Bus created"
// @Failure 400 {object} dto.ErrorResponse "Bus number required or invalid photo"
// @Failure 403 {object} dto.ErrorResponse "Permission denied"
// @Router /dashboard/add-bus/ [post]
func (c *ManagementController) CreateBus(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	req, err := bindBusRequest(ctx)
	if err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid bus data")
		return
	}
	photo, _ := ctx.FormFile("photo")

	bus, err := c.managementService.CreateBus(ctx.Request.Context(), adminID, req, photo)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("adminID", adminID).Int64("busID", bus.ID).Msg("Bus created")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(bus))
}

// UpdateBus changes a bus the caller owns
// @Summary Update bus
// @Tags buses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bus ID"
// @Param bus_number formData string false "Bus number"
// @Param destination formData string false "Evening destination"
// @Param number_plate formData string false "Number plate"
// @Param morning_trip_end_time formData string false "HH:MM"
// @Param evening_trip_start_time formData string false "HH:MM"
// @Param photo formData file false "Bus photo"
// @Success 200 {object} dto.APIResponse{data=dto.BusResponse} "Bus updated"
// @Failure 404 {object} dto.ErrorResponse "Bus not found or permission denied"
// @Router /dashboard/buses/{id}/ [put]
func (c *ManagementController) UpdateBus(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}
	busID, ok := parseIDParam(ctx, "id", "Bus")
	if !ok {
		return
	}

	req, err := bindBusRequest(ctx)
	if err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid bus data")
		return
	}
	photo, _ := ctx.FormFile("photo")

	bus, err := c.managementService.UpdateBus(ctx.Request.Context(), adminID, busID, req, photo)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, bus)
}

// bindBusRequest reads the bus form, accepting JSON bodies as well
func bindBusRequest(ctx *gin.Context) (*dto.BusRequest, error) {
	var req dto.BusRequest
	if ctx.ContentType() == binding.MIMEJSON {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := ctx.ShouldBind(&req); err != nil {
		return nil, err
	}
	for field, target := range map[string]**models.TimeOfDay{
		"morning_trip_end_time":   &req.MorningTripEndTime,
		"evening_trip_start_time": &req.EveningTripStartTime,
	} {
		v, ok := ctx.GetPostForm(field)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		t, err := models.ParseTimeOfDay(v)
		if err != nil {
			return nil, err
		}
		*target = &t
	}
	return &req, nil
}

// DeleteBus removes a bus the caller owns
// @Summary Delete bus
// @Tags buses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bus ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "Bus deleted"
// @Failure 404 {object} dto.ErrorResponse "Bus not found or permission denied"
// @Router /dashboard/buses/{id}/ [delete]
func (c *ManagementController) DeleteBus(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}
	busID, ok := parseIDParam(ctx, "id", "Bus")
	if !ok {
		return
	}

	if err := c.managementService.DeleteBus(ctx.Request.Context(), adminID, busID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("adminID", adminID).Int64("busID", busID).Msg("Bus deleted")
	respondMessage(ctx, http.StatusOK, services.MsgBusDeleted)
}

// Grades lists every class
// @Summary List grades
// @Tags management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.GradeEntry} "Grades"
// @Router /dashboard/grades/ [get]
func (c *ManagementController) Grades(ctx *gin.Context) {
	grades, err := c.managementService.Grades(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, grades)
}

// Complaints lists the complaints of the caller's members
// @Summary List complaints
// @Tags management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ManagementComplaintEntry} "Complaints"
// @Failure 403 {object} dto.ErrorResponse "Permission denied"
// @Router /dashboard/complaints/ [get]
func (c *ManagementController) Complaints(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	complaints, err := c.complaintService.ListForManagement(ctx.Request.Context(), adminID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, complaints)
}

// UpdateComplaint sets the status or the response of a complaint
// @Summary Update complaint
// @Tags management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body dto.UpdateComplaintRequest true "Status and response"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "Complaint updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 403 {object} dto.ErrorResponse "Complaint of another management's member"
// @Failure 404 {object} dto.ErrorResponse "Complaint not found"
// @Router /dashboard/complaints/{id}/ [patch]
func (c *ManagementController) UpdateComplaint(ctx *gin.Context) {
	adminID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}
	complaintID, ok := parseIDParam(ctx, "id", "Complaint")
	if !ok {
		return
	}

	var req dto.UpdateComplaintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid complaint update")
		return
	}

	if err := c.complaintService.Update(ctx.Request.Context(), adminID, complaintID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondMessage(ctx, http.StatusOK, services.MsgComplaintUpdated)
}
