package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	wsSendTimeout = 5 * time.Second
)

// wsEnvelope frames every websocket message.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // local console, same host
}

// wsDevice streams the derived device view while the connection lives. The
// connection owns one ref on the device and telemetry poll subscriptions, so
// closing the view (navigating away) releases the underlying poll loops.
func (h *Handler) wsDevice(c *gin.Context) {
	deviceID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	releaseDevice := h.services.Watch.WatchDevice(deviceID)
	defer releaseDevice()
	releaseTelemetry := h.services.Watch.WatchTelemetry(deviceID)
	defer releaseTelemetry()

	updates, cancelSub := h.services.Watch.DeviceUpdates(deviceID)
	defer cancelSub()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// Push the current view immediately, then on every cache write.
	if err := h.sendDeviceView(c.Request.Context(), conn, deviceID); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "device", deviceID, "err", err)
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
					h.log.Infow("ws_ping_failed", "device", deviceID, "err", err)
				}
				return
			}
		case <-updates:
			if err := h.sendDeviceView(c.Request.Context(), conn, deviceID); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "device", deviceID, "err", err)
				}
				return
			}
		}
	}
}

// startReader drains incoming messages to service control frames and notice closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendDeviceView reads the cached device (refetching when just invalidated)
// and writes it with a deadline.
func (h *Handler) sendDeviceView(ctx context.Context, conn *websocket.Conn, deviceID string) error {
	readCtx, cancel := context.WithTimeout(ctx, wsSendTimeout)
	defer cancel()

	view, err := h.services.Devices.Get(readCtx, deviceID)
	if err != nil {
		// Transport failure: keep the connection, skip this push.
		if h.log != nil {
			h.log.Debugw("ws_view_skipped", "device", deviceID, "err", err)
		}
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "device", Data: view})
}
