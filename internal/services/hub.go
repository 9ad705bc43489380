package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/whatsview/whatsview-backend/internal/models"
)

// Subscriber is the minimal interface a live connection must satisfy. A WebSocket
// wrapper implements it in the handlers package; tests use fakes.
type Subscriber interface {
	Send(data []byte) error
	Close() error
}

// InsertEvent is the payload broadcast to live subscribers when a new message is
// created.
type InsertEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

// NewInsertEvent wraps a freshly created message for broadcast.
func NewInsertEvent(msg *models.Message) InsertEvent {
	return InsertEvent{Type: "insert", Message: msg}
}

// Hub is the registry of live subscriber connections. One Hub is constructed at
// process start and handed to whichever layers accept subscriptions or trigger
// broadcasts; there is no ambient global.
type Hub struct {
	mu   sync.Mutex
	subs map[Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[Subscriber]struct{})}
}

// Connect registers a subscriber for future broadcasts.
func (h *Hub) Connect(s Subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
}

// Disconnect removes a subscriber; removing one that is already gone is a no-op.
func (h *Hub) Disconnect(s Subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Subscribers returns the current number of registered connections.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast serializes the event once and delivers it to every registered
// subscriber. A subscriber whose send fails is closed and dropped after the sweep;
// it never blocks delivery to the others and is not retried. Sends happen outside
// the lock so a slow connection cannot stall Connect/Disconnect.
func (h *Hub) Broadcast(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: failed to marshal event: %v", err)
		return
	}

	h.mu.Lock()
	targets := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	var dead []Subscriber
	for _, s := range targets {
		if err := s.Send(data); err != nil {
			dead = append(dead, s)
		}
	}

	for _, s := range dead {
		h.Disconnect(s)
		_ = s.Close()
	}
}
