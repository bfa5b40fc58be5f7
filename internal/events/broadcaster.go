// Package events fans out navigation events to stream subscribers.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/fruitsalade/dfm/internal/metrics"
)

const (
	EventLocationChanged  = "location_changed"
	EventTreeReplaced     = "tree_replaced"
	EventSelectionChanged = "selection_changed"
	EventLoadFailed       = "load_failed"
)

// Event describes a change in one session's navigation state.
type Event struct {
	Type      string `json:"type"`
	Session   string `json:"session"`
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`  // selected file
	Items     int    `json:"items,omitempty"` // node count after a tree swap
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster manages subscribers and publishes events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]string // value is the session filter, "" for all
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]string),
	}
}

// Subscribe adds a subscriber for every session's events.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan Event {
	return b.SubscribeSession("")
}

// SubscribeSession adds a subscriber that only receives events of session.
func (b *Broadcaster) SubscribeSession(session string) chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subscribers[ch] = session
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish sends an event to all interested subscribers. Non-blocking: drops
// events for slow consumers.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, session := range b.subscribers {
		if session != "" && session != event.Session {
			continue
		}
		select {
		case ch <- event:
		default:
			metrics.RecordEventDropped()
		}
	}
	metrics.RecordEvent(event.Type)
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// MarshalEvent serializes an event to JSON.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}
