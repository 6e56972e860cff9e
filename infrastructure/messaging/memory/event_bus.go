package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"flowbuilder/application/ports"
	"flowbuilder/domain/events"
)

// AllEvents subscribes a handler to every event type
const AllEvents = "*"

// EventBus delivers events synchronously to in-process subscribers,
// in subscription order
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	logger   *zap.Logger
}

// NewEventBus creates an empty bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		handlers: make(map[string][]ports.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type, or AllEvents
func (b *EventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for %s", eventType)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish delivers one event. Every handler runs even when an earlier
// one fails; the failures are joined.
func (b *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	eventType := event.GetEventType()

	b.mu.RLock()
	targets := make([]ports.EventHandler, 0, len(b.handlers[eventType])+len(b.handlers[AllEvents]))
	targets = append(targets, b.handlers[eventType]...)
	targets = append(targets, b.handlers[AllEvents]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range targets {
		if !handler.CanHandle(eventType) {
			continue
		}
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Warn("Event handler failed",
				zap.String("eventType", eventType),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishBatch delivers events in order
func (b *EventBus) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	var errs []error
	for _, event := range domainEvents {
		if err := b.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandlerFunc adapts a function to ports.EventHandler for every event type
type HandlerFunc func(ctx context.Context, event events.DomainEvent) error

func (f HandlerFunc) Handle(ctx context.Context, event events.DomainEvent) error { return f(ctx, event) }
func (f HandlerFunc) CanHandle(string) bool                                      { return true }
