package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mr1hm/go-community-alerts/internal/board"
	"github.com/mr1hm/go-community-alerts/internal/models"
)

const (
	eventSnapshot = "snapshot"

	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// eventMessage is the payload of every SSE event and WebSocket message.
type eventMessage struct {
	Type     string          `json:"type"`
	Alert    *alertResponse  `json:"alert,omitempty"`
	Criteria models.Criteria `json:"criteria"`
	Alerts   []alertResponse `json:"alerts"`
	Count    int             `json:"filtered_count"`
}

func toEventMessage(ev board.Event) eventMessage {
	msg := eventMessage{
		Type:     string(ev.Kind),
		Criteria: ev.Criteria,
		Alerts:   toResponses(ev.Filtered),
		Count:    len(ev.Filtered),
	}
	if ev.Alert != nil {
		a := toResponse(*ev.Alert)
		msg.Alert = &a
	}
	return msg
}

func (h *Handler) snapshot() eventMessage {
	view := h.store.Filtered()
	return eventMessage{
		Type:     eventSnapshot,
		Criteria: h.store.Criteria(),
		Alerts:   toResponses(view),
		Count:    len(view),
	}
}

func (h *Handler) streamEvents(c *gin.Context) {
	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	gauge := h.metrics.StreamSubscribers.WithLabelValues("sse")
	gauge.Inc()
	defer gauge.Dec()

	slog.Info("client subscribed to alert stream", "subscriber_id", id, "transport", "sse")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent(eventSnapshot, h.snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			slog.Info("client disconnected from alert stream", "subscriber_id", id)
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Kind), toEventMessage(ev))
			return true
		}
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) websocketEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	gauge := h.metrics.StreamSubscribers.WithLabelValues("ws")
	gauge.Inc()
	defer gauge.Dec()

	slog.Info("client subscribed to alert stream", "subscriber_id", id, "transport", "ws")

	// Clients only send control frames; reading surfaces the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeJSON(conn, h.snapshot()); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			slog.Info("client disconnected from alert stream", "subscriber_id", id)
			return
		case ev, ok := <-ch:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeJSON(conn, toEventMessage(ev)); err != nil {
				slog.Error("failed to send event to stream", "error", err, "subscriber_id", id)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
