package websocket

import (
	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
)

// Observer forwards every worker signal to the hub's clients.
type Observer struct {
	name string
	hub  *Hub
}

// NewObserver creates an observer broadcasting on hub.
func NewObserver(hub *Hub) *Observer {
	return &Observer{name: "WebSocketObserver", hub: hub}
}

// OnEvent broadcasts the signal and its payload.
func (o *Observer) OnEvent(event events.Event) error {
	if o.hub == nil {
		return nil
	}
	o.hub.BroadcastEvent(Event{
		Type: event.Type,
		Time: event.Time,
		Data: event.TypedData,
	})
	return nil
}

// GetName returns the observer's name.
func (o *Observer) GetName() string {
	return o.name
}

// ShouldHandle returns true for every signal.
func (o *Observer) ShouldHandle(string) bool {
	return true
}

var _ events.Observer = (*Observer)(nil)
