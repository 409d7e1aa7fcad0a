package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only receive; anything bigger than a close frame is a misbehaving client
	maxInboundSize = 512

	// Pending location frames per subscriber
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Mobile clients send no Origin header
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one subscriber following the live position of a single bus
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	busID  int64
	logger zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID, busID int64, logger zerolog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		busID:  busID,
		logger: logger.With().Int64("userID", userID).Int64("busID", busID).Logger(),
	}
}

// offer queues a frame without blocking. A full queue holds positions that
// are already stale, so the oldest one is discarded to make room. A peer that
// stops reading is caught by the write deadline in writePump.
// Must only be called from the hub goroutine.
func (c *Client) offer(frame []byte) {
	for {
		select {
		case c.send <- frame:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// readPump keeps the read deadline moving with pongs and notices the peer leaving
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			event := c.logger.Debug()
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				event = c.logger.Warn()
			}
			event.Err(err).Msg("Location subscriber disconnected")
			return
		}
	}
}

// writePump writes queued location frames and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug().Err(err).Msg("Location write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
