package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, table int32) *Client {
	return &Client{
		hub:   hub,
		table: table,
		send:  make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive message")
	}
	return Event{}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, 4)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if !hub.rooms[4][client] {
		t.Fatal("client not registered in table room")
	}
}

func TestHubUnregistrationCleansRoom(t *testing.T) {
	hub := startHub(t)
	c1 := mockClient(hub, AllTables)
	c2 := mockClient(hub, AllTables)

	hub.register <- c1
	hub.register <- c2
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- c1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[AllTables]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[AllTables]))
	}
	hub.mu.RUnlock()

	hub.unregister <- c2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[AllTables] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
}

func TestPublishReachesFloorAndTableClients(t *testing.T) {
	hub := startHub(t)
	floor := mockClient(hub, AllTables)
	table3 := mockClient(hub, 3)
	table5 := mockClient(hub, 5)

	hub.register <- floor
	hub.register <- table3
	hub.register <- table5
	time.Sleep(10 * time.Millisecond)

	hub.Publish(3, EventTableUpdated, map[string]any{"status": "Occupied"})

	for _, c := range []*Client{floor, table3} {
		ev := receive(t, c)
		if ev.Type != EventTableUpdated {
			t.Errorf("type: got %q, want %q", ev.Type, EventTableUpdated)
		}
		if ev.TableNumber != 3 {
			t.Errorf("table: got %d, want 3", ev.TableNumber)
		}
		if string(ev.Payload) != `{"status":"Occupied"}` {
			t.Errorf("payload: got %s", ev.Payload)
		}
	}
	expectSilence(t, table5)
}

func TestPublishUnencodablePayloadIsDropped(t *testing.T) {
	hub := startHub(t)
	floor := mockClient(hub, AllTables)
	hub.register <- floor
	time.Sleep(10 * time.Millisecond)

	hub.Publish(1, EventTableLate, make(chan int))
	expectSilence(t, floor)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := &Client{hub: hub, table: AllTables, send: make(chan []byte)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.Publish(2, EventOrderClosed, map[string]int{"order_id": 9})
	time.Sleep(20 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[AllTables] != nil {
		t.Fatal("slow client should have been removed")
	}
	if _, ok := <-slow.send; ok {
		t.Fatal("slow client channel should be closed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := mockClient(hub, 7)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("hub did not stop")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("client channel should be closed on shutdown")
	}
}
