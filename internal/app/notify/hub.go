// internal/app/notify/hub.go

// Package notify is the in-process pub/sub layer of the partnering
// workflow. The request ledger publishes events after commit; WebSocket
// handlers subscribe per user. Delivery is at-least-once: slow subscribers
// drop their oldest buffered event, and the catch-up fetch repairs any gap,
// so consumers must deduplicate by request id.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType identifies what happened to a partner request.
type EventType string

const (
	// EventRequestCreated fires when a pending request now exists for the
	// subscribing receiver.
	EventRequestCreated EventType = "request_created"
	// EventRequestWithdrawn fires when the sender withdrew a pending
	// request, so open notification panels can retract it.
	EventRequestWithdrawn EventType = "request_withdrawn"
)

// SenderSummary carries the display info a notification needs about the
// requesting learner.
type SenderSummary struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Event is one ledger change addressed to a specific receiver.
type Event struct {
	Type      EventType     `json:"type"`
	RequestID string        `json:"request_id"`
	Sender    SenderSummary `json:"sender"`
	CreatedAt time.Time     `json:"created_at"`
}

// Subscription is one receiver's live feed. Close releases it; reading C
// after Close drains whatever was already buffered and then sees the
// channel closed.
type Subscription struct {
	C <-chan Event

	id     uuid.UUID
	topic  string
	hub    *Hub
	ch     chan Event
	closed sync.Once
}

// Close detaches the subscription from the hub.
func (s *Subscription) Close() {
	s.closed.Do(func() {
		s.hub.unsubscribe(s.topic, s.id)
		close(s.ch)
	})
}

// Hub fans ledger events out to per-user subscribers. A user may hold
// several subscriptions at once (two browser tabs, both on the socket).
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[uuid.UUID]*Subscription
	buffer int
	log    *zap.Logger
}

// NewHub creates a hub whose subscribers buffer up to buffer events each.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		topics: make(map[string]map[uuid.UUID]*Subscription),
		buffer: buffer,
		log:    logger,
	}
}

// Subscribe registers a live feed for the given user id (hex).
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		id:    uuid.New(),
		topic: userID,
		hub:   h,
		ch:    make(chan Event, h.buffer),
	}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[userID]
	if subs == nil {
		subs = make(map[uuid.UUID]*Subscription)
		h.topics[userID] = subs
	}
	subs[sub.id] = sub
	return sub
}

// Publish delivers ev to every live subscription for userID. Publishing
// never blocks the caller: when a subscriber's buffer is full, its oldest
// event is dropped to make room (the catch-up fetch covers the loss).
func (h *Hub) Publish(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.topics[userID] {
		select {
		case sub.ch <- ev:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
				h.log.Warn("dropped notification event",
					zap.String("user_id", userID),
					zap.String("request_id", ev.RequestID))
			}
		}
	}
}

// SubscriberCount reports how many live subscriptions a user holds.
// Used by tests and the health surface.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[userID])
}

func (h *Hub) unsubscribe(topic string, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[topic]
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}
