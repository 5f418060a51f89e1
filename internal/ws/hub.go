package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Event types pushed to floor screens.
const (
	EventTableUpdated   = "table.updated"
	EventTableLate      = "table.late"
	EventOrderClosed    = "order.closed"
	EventOrderCancelled = "order.cancelled"
)

// AllTables is the room of clients that follow every table.
const AllTables int32 = 0

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type        string          `json:"type"`
	TableNumber int32           `json:"table_number"`
	Payload     json.RawMessage `json:"payload"`
}

// Hub fans table events out to the connected clients. Clients either follow
// the whole floor (AllTables) or a single table.
type Hub struct {
	rooms map[int32]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[int32]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for table, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, table)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.table] == nil {
				h.rooms[client.table] = make(map[*Client]bool)
			}
			h.rooms[client.table][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				log.Printf("ERROR: marshal ws event %s: %v", event.Type, err)
				continue
			}

			h.mu.Lock()
			h.deliver(AllTables, message)
			if event.TableNumber != AllTables {
				h.deliver(event.TableNumber, message)
			}
			h.mu.Unlock()
		}
	}
}

// deliver must be called with mu held.
func (h *Hub) deliver(table int32, message []byte) {
	for client := range h.rooms[table] {
		select {
		case client.send <- message:
		default:
			// Slow consumer.
			h.drop(client)
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.table]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.table)
	}
}

// Publish queues an event about a table. A payload that cannot be encoded is
// logged and dropped.
func (h *Hub) Publish(tableNumber int32, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal ws payload %s: %v", eventType, err)
		return
	}
	h.broadcast <- Event{Type: eventType, TableNumber: tableNumber, Payload: raw}
}
