package realtime

import (
	"sync"
)

// Topic names subscribed by clients and published to by the services.
func ConversationTopic(conversationID string) string {
	return "conversation:" + conversationID
}

func OwnerExchangesTopic(userID string) string {
	return "exchanges:owner:" + userID
}

func RequesterExchangesTopic(userID string) string {
	return "exchanges:requester:" + userID
}

// Event carries a full snapshot of the topic's current result set. Per-topic
// delivery order follows commit order; there is no ordering across topics.
type Event struct {
	Topic    string      `json:"topic"`
	Snapshot interface{} `json:"snapshot"`
}

// Subscription is one subscriber's handle on a topic. C is buffered and
// coalesces to the latest snapshot when the subscriber lags: a slow reader
// always ends up with the final state, never blocks a publisher.
type Subscription struct {
	Topic string
	C     chan Event

	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.C <- ev:
			return
		default:
			// Drop the stale snapshot waiting in the buffer.
			select {
			case <-s.C:
			default:
			}
		}
	}
}

// Close unsubscribes. Any in-flight delivery is discarded, not queued.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Hub fans store mutations out to all live subscribers of a topic.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		Topic: topic,
		C:     make(chan Event, 1),
		hub:   h,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if set, ok := h.subs[sub.Topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.Topic)
		}
	}
	h.mu.Unlock()

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.C)
	}
}

// Publish delivers snapshot to every live subscriber of topic. Publishers
// never block on subscribers.
func (h *Hub) Publish(topic string, snapshot interface{}) {
	ev := Event{Topic: topic, Snapshot: snapshot}

	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs[topic]))
	for sub := range h.subs[topic] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.push(ev)
	}
}

// SubscriberCount reports the number of live subscriptions on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
