package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/editor"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/stream"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = (eventPongWait * 9) / 10
	eventReadLimit  = 512
)

// EventsHandler upgrades editor clients to a websocket and relays a
// session's events from the hub. The stream is one-way: every frame is a
// stream.Event, and clients send nothing but pongs.
type EventsHandler struct {
	manager  *editor.Manager
	hub      *stream.Hub
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(manager *editor.Manager, hub *stream.Hub, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{
		manager: manager,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The editor frontend runs on a separate origin; access control
			// happens in the auth middleware, not here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeSession subscribes the caller to a session's event stream. The first
// frame is a full session.updated snapshot so late joiners start in sync;
// events carry full state, so a dropped frame is corrected by the next one.
// GET /api/v1/editor/sessions/:id/events
func (h *EventsHandler) ServeSession(c *gin.Context) {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "session_not_found",
			Message: "No editor session exists with id " + c.Param("id"),
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := h.hub.Register(session.ID)
	h.logger.WithFields(logrus.Fields{
		"session_id":  session.ID,
		"subscribers": h.hub.SubscriberCount(session.ID),
	}).Info("Editor event subscriber connected")

	if snapshot, err := json.Marshal(stream.Event{
		Type:      stream.EventSessionUpdated,
		SessionID: session.ID,
		Payload:   session.View(),
	}); err != nil {
		h.logger.WithError(err).Error("Failed to marshal session snapshot")
	} else {
		select {
		case client.Send <- snapshot:
		default:
		}
	}

	go h.writePump(conn, client)
	h.readPump(conn, client)
}

// writePump owns all writes on the connection: relayed events from the hub
// and keepalive pings. A closed Send channel means the client was
// unregistered, so the peer gets a close frame.
func (h *EventsHandler) writePump(conn *websocket.Conn, client *stream.Client) {
	ticker := time.NewTicker(eventPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection until the peer goes away, keeping the read
// deadline alive through pongs. Any inbound data frames are discarded.
func (h *EventsHandler) readPump(conn *websocket.Conn, client *stream.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
		h.logger.WithField("session_id", client.SessionID).Info("Editor event subscriber disconnected")
	}()

	conn.SetReadLimit(eventReadLimit)
	conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(eventPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).WithField("session_id", client.SessionID).Debug("Editor event stream read ended")
			}
			return
		}
	}
}
