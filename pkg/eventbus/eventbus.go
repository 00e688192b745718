// Package eventbus is the in-process signal bus that decouples the HTTP client
// from whoever reacts to a lost session.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/google/uuid"
)

// TopicSessionInvalidated fires when credentials were cleared because the backend
// rejected them and they could not be refreshed.
const TopicSessionInvalidated = "session.invalidated"

// Envelope is one published event.
type Envelope struct {
	ID         string            `json:"id"`
	Topic      string            `json:"topic"`
	Source     string            `json:"source"`
	OccurredAt time.Time         `json:"occurredAt"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SessionInvalidated is the payload of TopicSessionInvalidated.
type SessionInvalidated struct {
	Reason string `json:"reason"`
	Path   string `json:"path,omitempty"`
}

// Invalidation reasons.
const (
	ReasonNoRefreshToken = "no_refresh_token"
	ReasonRefreshFailed  = "refresh_failed"
)

// NewEnvelope builds an envelope with a fresh id and JSON payload.
func NewEnvelope(topic, source string, payload any) (Envelope, error) {
	env := Envelope{
		ID:         uuid.NewString(),
		Topic:      topic,
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s payload: %w", topic, err)
		}
		env.Payload = raw
	}
	return env, nil
}

// Decode unmarshals the payload into dest.
func (e Envelope) Decode(dest any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, dest)
}

type Handler func(ctx context.Context, ev Envelope)

type subscriber struct {
	id      uint64
	topic   string
	handler Handler
}

// Bus delivers synchronously, in publish order, on the publishing goroutine.
// A panicking handler is logged and does not stop delivery to the others.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID uint64
	logg   *logger.Logger
}

func New(logg *logger.Logger) *Bus {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Bus{logg: logg}
}

// Subscribe registers handler for topic; an empty topic receives every event.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber{id: id, topic: topic, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subs {
				if sub.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *Bus) Publish(ctx context.Context, ev Envelope) {
	b.mu.RLock()
	targets := make([]subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.topic == "" || sub.topic == ev.Topic {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		b.deliver(ctx, sub, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, sub subscriber, ev Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logCtx := b.logg.WithFields(ctx, map[string]any{"topic": ev.Topic, "event_id": ev.ID})
			b.logg.Error(logCtx, "event handler panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	sub.handler(ctx, ev)
}
