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
	"go.uber.org/zap"

	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
	"flowbuilder/pkg/serialization"
)

const snapshotSortKey = "SNAPSHOT"

// SnapshotStore keeps flow snapshots in a single DynamoDB table
type SnapshotStore struct {
	client     API
	tableName  string
	serializer *serialization.Serializer
	logger     *zap.Logger
	now        func() time.Time
}

// NewSnapshotStore creates a new SnapshotStore
func NewSnapshotStore(client API, tableName string, serializer *serialization.Serializer, logger *zap.Logger) *SnapshotStore {
	if serializer == nil {
		serializer = serialization.NewSerializer(nil, serialization.CompressionNone)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{
		client:     client,
		tableName:  tableName,
		serializer: serializer,
		logger:     logger,
		now:        time.Now,
	}
}

// snapshotItem represents the DynamoDB item structure for a snapshot
type snapshotItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	Key         string `dynamodbav:"Key"`
	Payload     []byte `dynamodbav:"Payload"`
	Codec       string `dynamodbav:"Codec"`
	Compression string `dynamodbav:"Compression"`
	Checksum    string `dynamodbav:"Checksum"`
	NodeCount   int    `dynamodbav:"NodeCount"`
	EdgeCount   int    `dynamodbav:"EdgeCount"`
	SavedAt     string `dynamodbav:"SavedAt"`
}

func partitionKey(key string) string {
	return fmt.Sprintf("FLOW#%s", key)
}

// Put overwrites the snapshot stored under key
func (s *SnapshotStore) Put(ctx context.Context, key string, snap snapshot.Snapshot) error {
	payload, err := s.serializer.Serialize(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	checksum, err := snap.Checksum()
	if err != nil {
		return fmt.Errorf("failed to checksum snapshot: %w", err)
	}

	item := snapshotItem{
		PK:          partitionKey(key),
		SK:          snapshotSortKey,
		EntityType:  "FLOW_SNAPSHOT",
		Key:         key,
		Payload:     payload,
		Codec:       s.serializer.Codec(),
		Compression: string(s.serializer.Compression()),
		Checksum:    checksum,
		NodeCount:   len(snap.Nodes),
		EdgeCount:   len(snap.Edges),
		SavedAt:     s.now().UTC().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		s.logger.Error("Failed to save snapshot to DynamoDB",
			zap.Error(err),
			zap.String("key", key),
		)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug("Saved snapshot to DynamoDB",
		zap.String("key", key),
		zap.Int("nodeCount", item.NodeCount),
		zap.Int("edgeCount", item.EdgeCount),
		zap.Int("bytes", len(payload)),
	)
	return nil
}

// Get returns the snapshot stored under key
func (s *SnapshotStore) Get(ctx context.Context, key string) (snapshot.Snapshot, error) {
	proj := expression.NamesList(
		expression.Name("Payload"),
		expression.Name("Codec"),
		expression.Name("Compression"),
		expression.Name("Checksum"),
	)
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("failed to build projection: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: partitionKey(key)},
			"SK": &types.AttributeValueMemberS{Value: snapshotSortKey},
		},
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if len(result.Item) == 0 {
		return snapshot.Snapshot{}, pkgerrors.ErrSnapshotNotFound.WithDetail("key", key)
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return snapshot.Snapshot{}, pkgerrors.ErrSnapshotMalformed.WithCause(err)
	}

	var snap snapshot.Snapshot
	if err := s.serializer.DeserializeWith(item.Codec, serialization.CompressionType(item.Compression), item.Payload, &snap); err != nil {
		return snapshot.Snapshot{}, pkgerrors.ErrSnapshotMalformed.WithCause(err).WithDetail("key", key)
	}

	if item.Checksum != "" {
		if sum, err := snap.Checksum(); err == nil && sum != item.Checksum {
			s.logger.Warn("Snapshot checksum mismatch",
				zap.String("key", key),
				zap.String("stored", item.Checksum),
				zap.String("computed", sum),
			)
		}
	}
	return snap, nil
}

// Delete removes the snapshot stored under key
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: partitionKey(key)},
			"SK": &types.AttributeValueMemberS{Value: snapshotSortKey},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
