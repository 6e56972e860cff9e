package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"flowbuilder/application/ports"
	"flowbuilder/domain/events"
)

const (
	// DynamoDB accepts at most 25 items per BatchWriteItem call
	maxBatchWrite = 25

	// fixed width so sort keys order chronologically
	sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

	maxWriteAttempts = 5
	baseWriteBackoff = 50 * time.Millisecond
)

// EventJournal records flow events in DynamoDB, one item per event,
// under the flow's partition
type EventJournal struct {
	client    API
	tableName string
	ttl       time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewEventJournal creates a journal. Entries expire after ttl; zero keeps them.
func NewEventJournal(client API, tableName string, ttl time.Duration) *EventJournal {
	return &EventJournal{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// eventRecord represents how events are stored in DynamoDB
type eventRecord struct {
	PK        string                 `dynamodbav:"PK"` // EVENTS#<flow_id>
	SK        string                 `dynamodbav:"SK"` // EVENT#<timestamp>#<version>#<event_id>
	EventID   string                 `dynamodbav:"EventID"`
	EventType string                 `dynamodbav:"EventType"`
	FlowID    string                 `dynamodbav:"FlowID"`
	EventData map[string]interface{} `dynamodbav:"EventData"`
	Timestamp string                 `dynamodbav:"Timestamp"`
	Version   int                    `dynamodbav:"Version"`
	TTL       int64                  `dynamodbav:"TTL,omitempty"`
}

func journalKey(flowID string) string {
	return fmt.Sprintf("EVENTS#%s", flowID)
}

// Append persists events in batches
func (j *EventJournal) Append(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(domainEvents))
	for _, event := range domainEvents {
		record, err := j.eventToRecord(event)
		if err != nil {
			return fmt.Errorf("failed to convert event to record: %w", err)
		}

		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal event record: %w", err)
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for i := 0; i < len(writeRequests); i += maxBatchWrite {
		end := i + maxBatchWrite
		if end > len(writeRequests) {
			end = len(writeRequests)
		}

		if err := j.writeBatch(ctx, writeRequests[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// writeBatch writes one batch, resubmitting items DynamoDB left unprocessed
// with exponential backoff
func (j *EventJournal) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	backoff := baseWriteBackoff
	for attempt := 1; ; attempt++ {
		result, err := j.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				j.tableName: requests,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to write events batch: %w", err)
		}

		requests = result.UnprocessedItems[j.tableName]
		if len(requests) == 0 {
			return nil
		}
		if attempt == maxWriteAttempts {
			return fmt.Errorf("failed to write %d events after %d attempts", len(requests), attempt)
		}
		if err := j.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
}

// History returns the latest entries for a flow, oldest first
func (j *EventJournal) History(ctx context.Context, flowID string, limit int) ([]ports.JournalEntry, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(journalKey(flowID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(j.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}

	var entries []ports.JournalEntry
	for {
		if limit > 0 {
			input.Limit = aws.Int32(int32(limit - len(entries)))
		}

		result, err := j.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query events: %w", err)
		}

		for _, item := range result.Items {
			var record eventRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event record: %w", err)
			}
			entry, err := recordToEntry(record)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}

		if result.LastEvaluatedKey == nil || (limit > 0 && len(entries) >= limit) {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	// newest first from the query, oldest first for callers
	for l, r := 0, len(entries)-1; l < r; l, r = l+1, r-1 {
		entries[l], entries[r] = entries[r], entries[l]
	}
	return entries, nil
}

// Handle records a single event delivered by the event bus
func (j *EventJournal) Handle(ctx context.Context, event events.DomainEvent) error {
	return j.Append(ctx, []events.DomainEvent{event})
}

// CanHandle accepts every flow event
func (j *EventJournal) CanHandle(eventType string) bool {
	return true
}

func (j *EventJournal) eventToRecord(event events.DomainEvent) (*eventRecord, error) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	eventData := make(map[string]interface{})
	if err := json.Unmarshal(eventBytes, &eventData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event to map: %w", err)
	}

	timestamp := event.GetTimestamp().UTC()
	eventID := uuid.New().String()

	record := &eventRecord{
		PK:        journalKey(event.GetAggregateID()),
		SK:        fmt.Sprintf("EVENT#%s#%010d#%s", timestamp.Format(sortableTime), event.GetVersion(), eventID),
		EventID:   eventID,
		EventType: event.GetEventType(),
		FlowID:    event.GetAggregateID(),
		EventData: eventData,
		Timestamp: timestamp.Format(time.RFC3339Nano),
		Version:   event.GetVersion(),
	}
	if j.ttl > 0 {
		record.TTL = timestamp.Add(j.ttl).Unix()
	}
	return record, nil
}

func recordToEntry(record eventRecord) (ports.JournalEntry, error) {
	timestamp, err := time.Parse(time.RFC3339Nano, record.Timestamp)
	if err != nil {
		return ports.JournalEntry{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return ports.JournalEntry{
		EventID:   record.EventID,
		EventType: record.EventType,
		FlowID:    record.FlowID,
		Version:   record.Version,
		Timestamp: timestamp,
		Data:      record.EventData,
	}, nil
}
