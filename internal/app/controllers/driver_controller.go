package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/middleware"
)

// QRImageSize is the edge length in pixels of the boarding QR image
const QRImageSize = 320

// DriverController serves the driver dashboard and the student boarding scan
type DriverController struct {
	driverService   services.DriverService
	boardingService services.BoardingService
	logger          zerolog.Logger
}

// NewDriverController creates a new driver controller
func NewDriverController(driverService services.DriverService, boardingService services.BoardingService, logger zerolog.Logger) *DriverController {
	return &DriverController{
		driverService:   driverService,
		boardingService: boardingService,
		logger:          logger,
	}
}

// Stats returns the driver dashboard with a fresh boarding token
// @Summary Driver dashboard
// @Description Returns the bus, the current or predicted trip, the route, boarding counts, the student list, alerts and a freshly signed QR token valid for 35 seconds
// @Tags driver
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DriverStatsResponse} "Driver dashboard"
// @Failure 403 {object} dto.ErrorResponse "Not a driver"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /dashboard/driver/stats/ [get]
func (c *DriverController) Stats(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	stats, err := c.driverService.Stats(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, stats)
}

// QRCode renders the current boarding token as a PNG
// @Summary Boarding QR code image
// @Description Renders a freshly signed boarding token for the driver's bus as a PNG image
// @Tags driver
// @Produce png
// @Security BearerAuth
// @Success 200 {file} binary "QR code"
// @Failure 400 {object} dto.ErrorResponse "No bus assigned"
// @Failure 403 {object} dto.ErrorResponse "Not a driver"
// @Router /dashboard/driver/qr.png [get]
func (c *DriverController) QRCode(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	token, err := c.driverService.CurrentQRToken(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	png, err := qrcode.Encode(token, qrcode.Medium, QRImageSize)
	if err != nil {
		c.logger.Error().Err(err).Int64("driverID", userID).Msg("Failed to render QR code")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, "image/png", png)
}

// Broadcast sends an alert to the students and parents of the driver's bus
// @Summary Broadcast an alert
// @Description Emails and pushes the message to every student of the bus and their parents. Delivery failures are not reported.
// @Tags driver
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BroadcastRequest true "Alert"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "Broadcast sent"
// @Failure 400 {object} dto.ErrorResponse "Message required or no bus assigned"
// @Failure 403 {object} dto.ErrorResponse "Not a driver"
// @Router /dashboard/driver/broadcast/ [post]
func (c *DriverController) Broadcast(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	var req dto.BroadcastRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid broadcast")
		return
	}

	resp, err := c.driverService.Broadcast(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("driverID", userID).Str("type", req.Type).Msg(resp.Message)
	respondOK(ctx, resp)
}

// BroadcastHistory lists the driver's latest notifications
// @Summary Broadcast history
// @Tags driver
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.BroadcastHistoryEntry} "Latest notifications"
// @Failure 403 {object} dto.ErrorResponse "Not a driver"
// @Router /dashboard/driver/broadcast/ [get]
func (c *DriverController) BroadcastHistory(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	history, err := c.driverService.BroadcastHistory(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, history)
}

// Board verifies a scanned QR token and records the student's boarding
// @Summary Board a bus
// @Description Verifies the scanned token and logs the boarding against the bus's active trip. A retried scan for the same trip answers 200 with status already_boarded.
// @Tags boarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BoardRequest true "Scanned token and optional position"
// @Success 201 {object} dto.APIResponse{data=dto.BoardResponse} "Boarding recorded"
// @Success 200 {object} dto.APIResponse{data=dto.BoardResponse} "Already boarded"
// @Failure 400 {object} dto.ErrorResponse "Expired or invalid token, no active trip, wrong bus"
// @Failure 403 {object} dto.ErrorResponse "Not a student"
// @Failure 404 {object} dto.ErrorResponse "Bus not found"
// @Router /dashboard/student/board/ [post]
func (c *DriverController) Board(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	var req dto.BoardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid boarding request")
		return
	}

	resp, err := c.boardingService.VerifyAndBoard(ctx.Request.Context(), userID, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("studentID", userID).Msg("Boarding rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	ctx.JSON(status, dto.NewAPIResponse(resp))
}
