package websocket

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/middleware"
)

// BusAccessAuthorizer decides whether a user may follow a bus
type BusAccessAuthorizer interface {
	AuthorizeBusAccess(ctx context.Context, userID, busID int64) error
}

// Handler for WebSocket connections
type Handler struct {
	hub        *Hub
	authorizer BusAccessAuthorizer
	logger     zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authorizer BusAccessAuthorizer, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		authorizer: authorizer,
		logger:     logger,
	}
}

// HandleConnection godoc
// @Summary Subscribe to live bus locations
// @Description Upgrades the connection to a WebSocket that receives a JSON location update every time the driver reports a position. The token may be passed as the `token` query parameter.
// @Tags trip, websocket
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bus ID"
// @Param token query string false "JWT access token"
// @Success 101 {object} websocket.LocationUpdate "Switching Protocols to WebSocket"
// @Failure 400 {object} dto.ErrorResponse "Invalid bus ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not allowed to track this bus"
// @Failure 404 {object} dto.ErrorResponse "Bus not found"
// @Router /trip/bus-location/{id}/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	busID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondBadRequest(c, "Invalid bus ID", "Bus ID must be a valid number")
		return
	}

	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	if err := h.authorizer.AuthorizeBusAccess(c.Request.Context(), userID, busID); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("busID", busID).
			Int64("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := newClient(h.hub, conn, userID, busID, h.logger)

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("busID", busID).
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
