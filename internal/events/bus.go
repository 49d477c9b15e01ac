// Package events provides the in-process event bus feeding the dashboard's
// live update stream.
package events

import (
	"sync"
	"time"
)

// Event types published on the bus.
const (
	TypeAgentStatus    = "agent_status"
	TypeMessageCreated = "message_created"
	TypeTaskUpdated    = "task_updated"
)

// Event is one dashboard notification, scoped to a single user.
type Event struct {
	Type      string    `json:"type"`
	AgentID   int64     `json:"agentId,omitempty"`
	TaskID    int64     `json:"taskId,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const subscriberBuffer = 32

// Bus fans events out to per-user subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[int64]map[chan Event]struct{}
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int64]map[chan Event]struct{})}
}

// Subscribe registers a listener for one user's events. The returned cancel
// function must be called when the listener goes away.
func (b *Bus) Subscribe(userID int64) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan Event]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, userID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of userID without blocking.
func (b *Bus) Publish(userID int64, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- ev:
		default:
			// Slow consumer; drop rather than stall publishers.
		}
	}
}

// SubscriberCount returns the number of listeners for a user.
func (b *Bus) SubscriberCount(userID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
