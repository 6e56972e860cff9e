// Package realtime pushes flow changes to browsers connected through an
// API Gateway websocket API
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"

	"flowbuilder/application/ports"
	"flowbuilder/domain/events"
	ddb "flowbuilder/infrastructure/persistence/dynamodb"
)

// Message types pushed besides flow event types
const (
	TypeNotificationPublished = "notification.published"
	TypeNotificationCleared   = "notification.cleared"
)

// API is the subset of the management API client the broadcaster uses
type API interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

var _ API = (*apigatewaymanagementapi.Client)(nil)

// Connections lists and prunes websocket connections
type Connections interface {
	List(ctx context.Context) ([]ddb.Connection, error)
	Remove(ctx context.Context, connectionID string) error
}

// Envelope is the message every connection receives
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Broadcaster posts flow events and notifications to every connection.
// Connections API Gateway reports as gone are removed.
type Broadcaster struct {
	client      API
	connections Connections
	now         func() time.Time
	logger      *zap.Logger
}

// NewBroadcaster creates a broadcaster
func NewBroadcaster(client API, connections Connections, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		client:      client,
		connections: connections,
		now:         time.Now,
		logger:      logger,
	}
}

// NewClient builds a management API client for a websocket endpoint such
// as "abc123.execute-api.us-west-2.amazonaws.com/prod"
func NewClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String("https://" + endpoint)
	})
}

// Broadcast posts one message to every connection. Failures on single
// connections are joined; gone connections are not failures.
func (b *Broadcaster) Broadcast(ctx context.Context, msgType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}
	payload, err := json.Marshal(Envelope{Type: msgType, Timestamp: b.now().UnixMilli(), Data: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	conns, err := b.connections.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}

	var errs []error
	for _, conn := range conns {
		if err := b.post(ctx, conn.ConnectionID, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Broadcaster) post(ctx context.Context, connectionID string, payload []byte) error {
	_, err := b.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         payload,
	})
	if err == nil {
		return nil
	}

	var gone *apigwtypes.GoneException
	if errors.As(err, &gone) {
		b.logger.Debug("Removing stale connection", zap.String("connectionID", connectionID))
		if err := b.connections.Remove(ctx, connectionID); err != nil {
			b.logger.Warn("Failed to remove stale connection",
				zap.String("connectionID", connectionID),
				zap.Error(err),
			)
		}
		return nil
	}
	return fmt.Errorf("connection %s: %w", connectionID, err)
}

// Handle pushes a flow event
func (b *Broadcaster) Handle(ctx context.Context, event events.DomainEvent) error {
	return b.Broadcast(ctx, event.GetEventType(), event)
}

// CanHandle accepts every flow event
func (b *Broadcaster) CanHandle(eventType string) bool {
	return true
}

// NotificationPublished pushes the new notification
func (b *Broadcaster) NotificationPublished(ctx context.Context, n ports.Notification) {
	if err := b.Broadcast(ctx, TypeNotificationPublished, n); err != nil {
		b.logger.Warn("Failed to push notification", zap.Error(err))
	}
}

// NotificationCleared tells connections the notification is gone
func (b *Broadcaster) NotificationCleared(ctx context.Context) {
	if err := b.Broadcast(ctx, TypeNotificationCleared, struct{}{}); err != nil {
		b.logger.Warn("Failed to push notification clear", zap.Error(err))
	}
}
