package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Connection is an API Gateway websocket connection watching a flow
type Connection struct {
	ConnectionID string
	UserID       string
	ConnectedAt  time.Time
}

// ConnectionStore tracks API Gateway websocket connections per flow.
// All connections of a flow share one partition so a single query lists them.
type ConnectionStore struct {
	client    API
	tableName string
	flowKey   string
	ttl       time.Duration
	now       func() time.Time
}

// NewConnectionStore creates a store. Records expire after ttl; zero keeps them.
func NewConnectionStore(client API, tableName, flowKey string, ttl time.Duration) *ConnectionStore {
	return &ConnectionStore{
		client:    client,
		tableName: tableName,
		flowKey:   flowKey,
		ttl:       ttl,
		now:       time.Now,
	}
}

type connectionRecord struct {
	PK           string `dynamodbav:"PK"` // CONNECTIONS#<flow_key>
	SK           string `dynamodbav:"SK"` // CONNECTION#<connection_id>
	EntityType   string `dynamodbav:"EntityType"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	TTL          int64  `dynamodbav:"TTL,omitempty"`
}

func (s *ConnectionStore) partition() string {
	return fmt.Sprintf("CONNECTIONS#%s", s.flowKey)
}

func connectionSortKey(id string) string {
	return fmt.Sprintf("CONNECTION#%s", id)
}

// Add records a connection
func (s *ConnectionStore) Add(ctx context.Context, conn Connection) error {
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = s.now()
	}
	record := connectionRecord{
		PK:           s.partition(),
		SK:           connectionSortKey(conn.ConnectionID),
		EntityType:   "WS_CONNECTION",
		ConnectionID: conn.ConnectionID,
		UserID:       conn.UserID,
		ConnectedAt:  conn.ConnectedAt.UTC().Format(time.RFC3339),
	}
	if s.ttl > 0 {
		record.TTL = conn.ConnectedAt.Add(s.ttl).Unix()
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}
	return nil
}

// Remove forgets a connection. Unknown ids are not an error.
func (s *ConnectionStore) Remove(ctx context.Context, connectionID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: s.partition()},
			"SK": &types.AttributeValueMemberS{Value: connectionSortKey(connectionID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to remove connection: %w", err)
	}
	return nil
}

// List returns every live connection of the flow
func (s *ConnectionStore) List(ctx context.Context) ([]Connection, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(s.partition())).
		And(expression.Key("SK").BeginsWith("CONNECTION#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	now := s.now().Unix()
	var conns []Connection
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query connections: %w", err)
		}

		for _, item := range result.Items {
			var record connectionRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
			}
			// TTL deletion lags, skip what has already expired
			if record.TTL > 0 && record.TTL < now {
				continue
			}
			connectedAt, _ := time.Parse(time.RFC3339, record.ConnectedAt)
			conns = append(conns, Connection{
				ConnectionID: record.ConnectionID,
				UserID:       record.UserID,
				ConnectedAt:  connectedAt,
			})
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return conns, nil
}
