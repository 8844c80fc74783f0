package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Event is anything the bus can route by type.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

// BaseEvent carries the routing fields shared by every domain event.
type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() interface{}  { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus is an in-process fan-out. Delivery is at most once and nothing
// survives a restart.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	pending     sync.WaitGroup
	log         *slog.Logger
}

func NewEventBus(log *slog.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]Handler),
		log:         log,
	}
}

func (b *EventBus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	b.subscribers[eventType] = append(b.subscribers[eventType], h)
	n := len(b.subscribers[eventType])
	b.mu.Unlock()

	b.log.Debug("subscribed", "event_type", eventType, "subscribers", n)
}

// snapshot copies the subscriber list so handlers registered mid-publish
// do not race with the loop below.
func (b *EventBus) snapshot(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.subscribers[eventType]...)
}

// Publish hands the event to every subscriber on its own goroutine and
// returns at once. Subscribers see a context that outlives the caller's.
func (b *EventBus) Publish(ctx context.Context, event Event) error {
	subs := b.snapshot(event.EventType())
	if len(subs) == 0 {
		b.log.Debug("event dropped, no subscribers", "event_type", event.EventType())
		return nil
	}

	b.log.Info("event published",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"subscribers", len(subs))

	hctx := context.WithoutCancel(ctx)
	b.pending.Add(len(subs))
	for _, h := range subs {
		go func(h Handler) {
			defer b.pending.Done()
			_ = b.run(hctx, h, event)
		}(h)
	}
	return nil
}

// PublishSync runs subscribers in order on the caller's goroutine and stops
// at the first failure.
func (b *EventBus) PublishSync(ctx context.Context, event Event) error {
	for _, h := range b.snapshot(event.EventType()) {
		if err := b.run(ctx, h, event); err != nil {
			return fmt.Errorf("deliver %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// run invokes one subscriber, logging its error and converting a panic
// into one.
func (b *EventBus) run(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		if err != nil {
			b.log.Error("event handler failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"error", err)
		}
	}()
	return h(ctx, event)
}

// Drain blocks until asynchronous deliveries finish or ctx ends.
func (b *EventBus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
