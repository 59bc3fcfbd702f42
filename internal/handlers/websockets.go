package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"fan_controller/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// Upgrader for HTTP -> WebSocket. The API is unauthenticated, so any origin may subscribe.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSubscriber adapts a connection to broadcast.Subscriber.
// All writes go through mu; gorilla allows one concurrent writer.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{id: uuid.NewString(), conn: conn}
}

// Send writes one text frame with a write deadline.
func (s *wsSubscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSubscriber) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// @Summary      Live events
// @Description  WebSocket stream of {"type":"status_update"|"log","data":...} messages.
// @Tags         system
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	sub := newWSSubscriber(conn)

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Send the current snapshot so the client does not wait a full poll interval.
	if err := h.sendStatus(sub); err != nil {
		h.log.Infow("ws_write_failed_initial", "conn_id", sub.id, "err", err)
		return
	}

	h.hub.Connect(sub)
	defer h.hub.Disconnect(sub)
	h.log.Debugw("ws_connected", "conn_id", sub.id)

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, sub.id, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			if err := sub.ping(); err != nil {
				h.log.Infow("ws_ping_failed", "conn_id", sub.id, "err", err)
				return
			}
		}
	}
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, id string, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Debugw("ws_read_closed", "conn_id", id, "err", err)
			return
		}
	}
}

func (h *Handler) sendStatus(sub *wsSubscriber) error {
	payload, err := json.Marshal(models.Event{Type: models.EventStatusUpdate, Data: h.services.Dashboard.Status()})
	if err != nil {
		return err
	}
	return sub.Send(payload)
}
