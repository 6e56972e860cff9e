package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"flowbuilder/application/ports"
	"flowbuilder/domain/events"
)

// EventJournal keeps flow events in process memory, bounded per flow
type EventJournal struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string][]ports.JournalEntry
}

// NewEventJournal creates a journal holding up to capacity entries per
// flow; older entries are dropped first. Zero means unbounded.
func NewEventJournal(capacity int) *EventJournal {
	return &EventJournal{
		capacity: capacity,
		entries:  make(map[string][]ports.JournalEntry),
	}
}

// Append records events in order
func (j *EventJournal) Append(ctx context.Context, domainEvents []events.DomainEvent) error {
	converted := make([]ports.JournalEntry, 0, len(domainEvents))
	for _, event := range domainEvents {
		entry, err := toEntry(event)
		if err != nil {
			return err
		}
		converted = append(converted, entry)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, entry := range converted {
		list := append(j.entries[entry.FlowID], entry)
		if j.capacity > 0 && len(list) > j.capacity {
			list = list[len(list)-j.capacity:]
		}
		j.entries[entry.FlowID] = list
	}
	return nil
}

// History returns the latest entries for a flow, oldest first
func (j *EventJournal) History(ctx context.Context, flowID string, limit int) ([]ports.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	list := j.entries[flowID]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	return append([]ports.JournalEntry(nil), list...), nil
}

// Handle records a single event delivered by the event bus
func (j *EventJournal) Handle(ctx context.Context, event events.DomainEvent) error {
	return j.Append(ctx, []events.DomainEvent{event})
}

// CanHandle accepts every flow event
func (j *EventJournal) CanHandle(eventType string) bool {
	return true
}

func toEntry(event events.DomainEvent) (ports.JournalEntry, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return ports.JournalEntry{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	data := make(map[string]interface{})
	if err := json.Unmarshal(raw, &data); err != nil {
		return ports.JournalEntry{}, fmt.Errorf("failed to unmarshal event to map: %w", err)
	}
	return ports.JournalEntry{
		EventID:   uuid.New().String(),
		EventType: event.GetEventType(),
		FlowID:    event.GetAggregateID(),
		Version:   event.GetVersion(),
		Timestamp: event.GetTimestamp(),
		Data:      data,
	}, nil
}
