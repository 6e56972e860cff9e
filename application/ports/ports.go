package ports

import (
	"context"
	"time"

	"flowbuilder/domain/events"
	"flowbuilder/domain/snapshot"
)

// SnapshotStore keeps one flow snapshot per key.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type SnapshotStore interface {
	// Put overwrites the snapshot stored under key
	Put(ctx context.Context, key string, snap snapshot.Snapshot) error

	// Get returns the snapshot stored under key, or an error matching
	// errors.ErrSnapshotNotFound when nothing was saved yet
	Get(ctx context.Context, key string) (snapshot.Snapshot, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// Notification is the transient status message shown after a save attempt
type Notification struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NotificationSink is told when the current notification changes
type NotificationSink interface {
	NotificationPublished(ctx context.Context, n Notification)
	NotificationCleared(ctx context.Context)
}

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	// Stop cancels the callback; it reports false if it already ran or was stopped
	Stop() bool
}

// Scheduler runs callbacks after a delay
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// JournalEntry is a recorded flow event
type JournalEntry struct {
	EventID   string                 `json:"eventId"`
	EventType string                 `json:"eventType"`
	FlowID    string                 `json:"flowId"`
	Version   int                    `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// EventJournal keeps the history of flow events
type EventJournal interface {
	// Append records events in order
	Append(ctx context.Context, events []events.DomainEvent) error

	// History returns the most recent entries for a flow, oldest first.
	// A limit of zero returns everything.
	History(ctx context.Context, flowID string, limit int) ([]JournalEntry, error)
}
