package stream

import "encoding/json"

// Event types pushed to editor clients.
const (
	EventSessionUpdated   = "session.updated"
	EventSessionConfirmed = "session.confirmed"
	EventSessionClosed    = "session.closed"
)

// Event is the envelope for everything sent over the editor event stream.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Notify marshals an event and broadcasts it to the session's subscribers.
// This satisfies the editor's notifier dependency.
func (h *Hub) Notify(sessionID string, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal stream event")
		return
	}

	h.Broadcast(sessionID, data)
}
