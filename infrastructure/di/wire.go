//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"flowbuilder/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideSerializer,
	ProvideSnapshotStore,
	ProvideEventJournal,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideEventBridgePublisher,
	ProvideHub,
	ProvideBroadcaster,
	ProvideScheduler,
	ProvideNotifier,
	ProvideKindRegistry,
	ProvideFlow,
	ProvideSession,
	ProvideSubscriptions,
	ProvideCloudWatchClient,
	ProvideMetrics,
	ProvideTracer,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideRateLimiter,
	ProvideJWTValidator,
	ProvideWebSocketServer,
	ProvideRouterOptions,
	ProvideRouter,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
