package websocket

import (
	"context"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
)

func TestObserver_ForwardsSignals(t *testing.T) {
	hub, url := newTestHub(t)

	dispatcher := events.NewEventDispatcher(nil)
	dispatcher.Register(NewObserver(hub))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	dispatcher.Dispatch(events.NewTypedEvent(events.RatingsCalculated,
		events.BatchEvent{BatchID: "batch-1", Total: 12}, context.Background()))

	event := readEvent(t, conn)
	if event.Type != events.RatingsCalculated {
		t.Errorf("Expected %s, got %s", events.RatingsCalculated, event.Type)
	}
	if event.Time.IsZero() {
		t.Error("Expected the emission time")
	}
	data, ok := event.Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected an object payload, got %T", event.Data)
	}
	if data["total"] != float64(12) {
		t.Errorf("Expected total 12, got %v", data["total"])
	}
}

func TestObserver_NilHub(t *testing.T) {
	observer := &Observer{name: "test"}
	if err := observer.OnEvent(events.Event{Type: events.LoggedIn}); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	if !observer.ShouldHandle(events.UploadCancelled) {
		t.Error("Expected every signal to be handled")
	}
}
