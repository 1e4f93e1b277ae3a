// Package events broadcasts lifecycle events to real-time subscribers and
// in-process handlers. Delivery is best-effort and at-most-once per
// subscriber per publish; there is no persistence or replay.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type enumerates the lifecycle events the engine publishes.
type Type string

const (
	TypeJobScored            Type = "job_scored"
	TypeApplicationSubmitted Type = "application_submitted"
	TypeApprovalRequired     Type = "approval_required"
)

// Event is the wire shape delivered to real-time subscribers.
type Event struct {
	Type      Type      `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber receives serialized events over a persistent connection. A Send
// failure removes the subscriber from the active set.
type Subscriber interface {
	Send(data []byte) error
}

// Handler is an in-process callback registered for one event type.
type Handler func(payload any)

// Broker fans each publish out to all connected subscribers and then invokes
// the handlers registered for the event type, in registration order.
type Broker struct {
	mu          sync.Mutex
	subscribers map[Subscriber]struct{}
	handlers    map[Type][]Handler
	logger      *zap.Logger
}

func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		subscribers: make(map[Subscriber]struct{}),
		handlers:    make(map[Type][]Handler),
		logger:      logger,
	}
}

// Attach registers a real-time subscriber. It only receives events published
// after attachment.
func (b *Broker) Attach(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[s] = struct{}{}
}

// Detach removes a subscriber. Detaching an unknown subscriber is a no-op.
func (b *Broker) Detach(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, s)
}

// On registers an in-process handler for an event type.
func (b *Broker) On(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish broadcasts one event. A subscriber whose Send fails is dropped
// without aborting delivery to the rest. Publishing a type with no
// registered handlers is not an error.
func (b *Broker) Publish(eventType Type, payload any) {
	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	serialized, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("dropping unserializable event",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		return
	}

	b.mu.Lock()
	targets := make([]Subscriber, 0, len(b.subscribers))
	for s := range b.subscribers {
		targets = append(targets, s)
	}
	handlers := append([]Handler(nil), b.handlers[eventType]...)
	b.mu.Unlock()

	for _, s := range targets {
		if err := s.Send(serialized); err != nil {
			b.Detach(s)
			b.logger.Debug("dropping subscriber after send failure",
				zap.String("event_type", string(eventType)),
				zap.Error(err),
			)
		}
	}

	for _, handler := range handlers {
		handler(payload)
	}
}

// SubscriberCount reports the current number of attached subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
