// Package events is the in-process pub/sub layer that decouples the
// intake pipeline from its observers. Delivery is process-local; the
// durable task path goes through the scheduler queue instead.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event published on the bus.
type Event interface {
	// EventName identifies the event type and is the subscription key.
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp common to all events; embed it in
// concrete event structs.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt reports when the event happened.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish dispatches the event to each handler on its own goroutine,
	// detached from the caller's cancellation. Handler errors are logged,
	// never returned.
	Publish(ctx context.Context, event Event)

	// PublishSync runs the handlers inline in registration order and
	// returns their errors joined, for publishers that must know the
	// hand-off succeeded before answering.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the event's EventName.
	Subscribe(eventName string, handler Handler)
}
