package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/middleware"
)

// TripController handles the driver's trip lifecycle and bus tracking
type TripController struct {
	tripService services.TripService
	logger      zerolog.Logger
}

// NewTripController creates a new trip controller
func NewTripController(tripService services.TripService, logger zerolog.Logger) *TripController {
	return &TripController{
		tripService: tripService,
		logger:      logger,
	}
}

// StartTrip starts a trip for the driver's bus
// @Summary Start a trip
// @Description Starts a morning or evening trip for the driver's bus, chosen by the bus's evening start time. Any trip still active on the bus is closed first.
// @Tags trip
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StartTripResponse} "Trip started"
// @Failure 400 {object} dto.ErrorResponse "No bus assigned"
// @Failure 403 {object} dto.ErrorResponse "Not a driver"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /trip/start/ [post]
func (c *TripController) StartTrip(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	resp, err := c.tripService.StartTrip(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("driverID", userID).Int64("tripID", resp.TripID).Str("tripType", string(resp.TripType)).Msg("Trip started")
	respondOK(ctx, resp)
}

// EndTrip ends the active trip of the driver's bus
// @Summary End the active trip
// @Tags trip
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "Trip ended"
// @Failure 400 {object} dto.ErrorResponse "No bus assigned or no active trip"
// @Failure 403 {object} dto.ErrorResponse "Not a driver"
// @Router /trip/end/ [post]
func (c *TripController) EndTrip(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	if err := c.tripService.EndTrip(ctx.Request.Context(), userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("driverID", userID).Msg("Trip ended")
	respondMessage(ctx, http.StatusOK, "Trip ended")
}

// UpdateLocation records the bus position and pushes it to live subscribers
// @Summary Update bus location
// @Tags trip
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateLocationRequest true "Current coordinates"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "Location updated"
// @Failure 400 {object} dto.ErrorResponse "Missing coordinates or no bus assigned"
// @Failure 403 {object} dto.ErrorResponse "Not a driver"
// @Router /trip/update-location/ [post]
func (c *TripController) UpdateLocation(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateLocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid location")
		return
	}

	if err := c.tripService.UpdateLocation(ctx.Request.Context(), userID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondMessage(ctx, http.StatusOK, "Location updated")
}

// BusLocation returns the last known position of a bus
// @Summary Get bus location
// @Description Drivers, students and teachers may track their own bus, parents their children's buses, and administrators the buses they manage
// @Tags trip
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bus ID"
// @Success 200 {object} dto.APIResponse{data=dto.BusLocationResponse} "Bus location"
// @Failure 400 {object} dto.ErrorResponse "Invalid bus ID"
// @Failure 403 {object} dto.ErrorResponse "Not allowed to track this bus"
// @Failure 404 {object} dto.ErrorResponse "Bus not found"
// @Router /trip/bus-location/{id}/ [get]
func (c *TripController) BusLocation(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}
	busID, ok := parseIDParam(ctx, "id", "Bus")
	if !ok {
		return
	}

	resp, err := c.tripService.BusLocation(ctx.Request.Context(), userID, busID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, resp)
}
