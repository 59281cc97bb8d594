package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 2 * time.Second
	minInterval      = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// wsConnect streams periodic device status snapshots. ?device_id selects the
// device (default device when omitted), ?interval / ?interval_ms bound the
// push rate.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)
	deviceID := c.Query("device_id")
	if deviceID == "" {
		deviceID = h.cfg.Golioth.DefaultDevice
	}
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id required (no default device configured)"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine handles control frames and detects disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	// Send the first snapshot immediately.
	if err := h.sendStatus(c.Request.Context(), conn, deviceID); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendStatus(c.Request.Context(), conn, deviceID); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d >= minInterval && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v >= int(minInterval/time.Millisecond) && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendStatus fetches the current snapshot and writes it with a deadline.
// A cloud read failure is reported in-band; the stream stays open.
func (h *Handler) sendStatus(ctx context.Context, conn *websocket.Conn, deviceID string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	st, err := h.services.Monitoring.Status(ctx, deviceID)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_status_failed", "device_id", deviceID, "err", err)
		}
		return conn.WriteJSON(wsEnvelope{Type: "status", Error: "device state unavailable"})
	}
	return conn.WriteJSON(wsEnvelope{Type: "status", Data: st})
}
