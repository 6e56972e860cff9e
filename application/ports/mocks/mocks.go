package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"flowbuilder/application/ports"
	"flowbuilder/domain/events"
	"flowbuilder/domain/snapshot"
)

// MockSnapshotStore is a mock implementation of ports.SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Put(ctx context.Context, key string, snap snapshot.Snapshot) error {
	args := m.Called(ctx, key, snap)
	return args.Error(0)
}

func (m *MockSnapshotStore) Get(ctx context.Context, key string) (snapshot.Snapshot, error) {
	args := m.Called(ctx, key)
	snap, _ := args.Get(0).(snapshot.Snapshot)
	return snap, args.Error(1)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

// MockNotificationSink is a mock implementation of ports.NotificationSink
type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) NotificationPublished(ctx context.Context, n ports.Notification) {
	m.Called(ctx, n)
}

func (m *MockNotificationSink) NotificationCleared(ctx context.Context) {
	m.Called(ctx)
}
