// Package realtime fans out table change events to connected users.
package realtime

import (
	"log/slog"
	"sync"
)

// Change types, matching the managed backend's row-change payloads.
const (
	Insert = "INSERT"
	Update = "UPDATE"
	Delete = "DELETE"
)

// Event describes a change to a row.
type Event struct {
	Table  string `json:"table"`
	Type   string `json:"type"`
	Record any    `json:"record"`
	// UserIDs restricts delivery. Empty means every subscriber.
	UserIDs []string `json:"-"`
}

func (e Event) targets(userID string) bool {
	if len(e.UserIDs) == 0 {
		return true
	}
	for _, id := range e.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

const defaultBuffer = 16

// Hub tracks subscribers and delivers events to them.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: defaultBuffer}
}

// Subscription receives events for one user until closed.
type Subscription struct {
	UserID string

	hub    *Hub
	events chan Event
	once   sync.Once
}

// Events returns the channel events are delivered on. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close detaches the subscription from its hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.events)
		s.hub.mu.Unlock()
	})
}

// Subscribe attaches a new subscriber for userID.
func (h *Hub) Subscribe(userID string) *Subscription {
	s := &Subscription{UserID: userID, hub: h, events: make(chan Event, h.buffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish delivers e to every matching subscriber without blocking.
// Subscribers whose buffer is full miss the event.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		if !e.targets(s.UserID) {
			continue
		}
		select {
		case s.events <- e:
		default:
			slog.Warn("dropping realtime event for slow subscriber", "user_id", s.UserID, "table", e.Table, "type", e.Type)
		}
	}
}

// Len returns the number of attached subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
