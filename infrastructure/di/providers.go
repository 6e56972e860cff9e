package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"flowbuilder/application/commands/bus"
	commandhandlers "flowbuilder/application/commands/handlers"
	"flowbuilder/application/editor"
	"flowbuilder/application/ports"
	querybus "flowbuilder/application/queries/bus"
	queryhandlers "flowbuilder/application/queries/handlers"
	"flowbuilder/application/save"
	"flowbuilder/application/selection"
	domainconfig "flowbuilder/domain/config"
	"flowbuilder/domain/core/aggregates"
	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/validators"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/services"
	"flowbuilder/infrastructure/config"
	"flowbuilder/infrastructure/messaging/eventbridge"
	"flowbuilder/infrastructure/messaging/memory"
	"flowbuilder/infrastructure/persistence/dynamodb"
	"flowbuilder/infrastructure/persistence/file"
	memstore "flowbuilder/infrastructure/persistence/memory"
	"flowbuilder/infrastructure/realtime"
	"flowbuilder/interfaces/http/rest"
	"flowbuilder/interfaces/http/rest/middleware"
	"flowbuilder/interfaces/websocket"
	"flowbuilder/pkg/auth"
	pkgerrors "flowbuilder/pkg/errors"
	"flowbuilder/pkg/observability"
	"flowbuilder/pkg/serialization"
)

// ConnectionTTL matches the longest an API Gateway websocket stays open
const ConnectionTTL = 2 * time.Hour

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

// ProvideDomainConfig returns the editor rules for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	dc := cfg.DomainConfig()
	if err := dc.Validate(); err != nil {
		return nil, err
	}
	return dc, nil
}

// ProvideAWSConfig creates AWS configuration. Clients built from it only
// talk to AWS when a component that needs them is enabled.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if !cfg.UsesAWS() {
		return aws.Config{Region: cfg.AWSRegion}, nil
	}
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideSerializer builds the snapshot codec pipeline
func ProvideSerializer(cfg *config.Config) (*serialization.Serializer, error) {
	codec, err := serialization.CodecByName(cfg.SnapshotCodec)
	if err != nil {
		return nil, err
	}
	compression, err := serialization.ParseCompression(cfg.SnapshotCompression)
	if err != nil {
		return nil, err
	}
	return serialization.NewSerializer(codec, compression), nil
}

// ProvideSnapshotStore selects the configured snapshot backend
func ProvideSnapshotStore(
	cfg *config.Config,
	client *awsdynamodb.Client,
	serializer *serialization.Serializer,
	logger *zap.Logger,
) (ports.SnapshotStore, error) {
	switch cfg.SnapshotStore {
	case config.StoreDynamoDB:
		return dynamodb.NewSnapshotStore(client, cfg.DynamoDBTable, serializer, logger), nil
	case config.StoreFile:
		return file.NewSnapshotStore(cfg.SnapshotDir, serializer, logger)
	default:
		return memstore.NewSnapshotStore(), nil
	}
}

// ProvideEventJournal keeps event history next to the snapshots
func ProvideEventJournal(cfg *config.Config, client *awsdynamodb.Client) ports.EventJournal {
	if cfg.SnapshotStore == config.StoreDynamoDB {
		return dynamodb.NewEventJournal(client, cfg.DynamoDBTable, cfg.JournalTTL)
	}
	return memstore.NewEventJournal(cfg.JournalCapacity)
}

// ProvideEventBus creates the in-process event bus
func ProvideEventBus(logger *zap.Logger) *memory.EventBus {
	return memory.NewEventBus(logger)
}

// ProvideEventPublisher exposes the bus to the session
func ProvideEventPublisher(eventBus *memory.EventBus) ports.EventPublisher {
	return eventBus
}

// ProvideEventBridgePublisher forwards flow events to EventBridge when enabled
func ProvideEventBridgePublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) *eventbridge.Publisher {
	if !cfg.EnableEventBridge {
		return nil
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideHub creates the websocket hub for locally connected editors
func ProvideHub(logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(logger)
}

// ProvideBroadcaster pushes to API Gateway websocket connections when an
// endpoint is configured
func ProvideBroadcaster(cfg *config.Config, awsCfg aws.Config, client *awsdynamodb.Client, logger *zap.Logger) *realtime.Broadcaster {
	if cfg.WebSocketEndpoint == "" {
		return nil
	}
	connections := dynamodb.NewConnectionStore(client, cfg.ConnectionsTable, cfg.SnapshotKey, ConnectionTTL)
	return realtime.NewBroadcaster(realtime.NewClient(awsCfg, cfg.WebSocketEndpoint), connections, logger)
}

// ProvideScheduler returns the wall-clock scheduler for notification expiry
func ProvideScheduler() ports.Scheduler {
	return save.SystemScheduler{}
}

// ProvideNotifier creates the save notification holder
func ProvideNotifier(scheduler ports.Scheduler, dc *domainconfig.DomainConfig, logger *zap.Logger) *save.Notifier {
	return save.NewNotifier(scheduler, dc.NotificationTTL, logger)
}

// ProvideKindRegistry lists the node kinds editors can create
func ProvideKindRegistry(dc *domainconfig.DomainConfig) *valueobjects.KindRegistry {
	return valueobjects.DefaultKindRegistry(dc.DefaultNodeText)
}

// ProvideFlow creates the empty flow aggregate
func ProvideFlow(dc *domainconfig.DomainConfig, registry *valueobjects.KindRegistry) *aggregates.Flow {
	return aggregates.NewFlow(dc.SnapshotKey, registry,
		aggregates.WithLimits(dc.MaxNodesPerFlow, dc.MaxEdgesPerFlow))
}

// ProvideSession assembles the editing session
func ProvideSession(
	flow *aggregates.Flow,
	registry *valueobjects.KindRegistry,
	store ports.SnapshotStore,
	notifier *save.Notifier,
	publisher ports.EventPublisher,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) *editor.Session {
	coordinator := save.NewCoordinator(flow, services.NewFlowValidator(registry), store, notifier,
		dc.SnapshotKey, dc.SavedMessage, logger)

	return editor.NewSession(editor.Dependencies{
		Flow:        flow,
		Factory:     entities.NewNodeFactory(registry),
		Selection:   selection.NewController(flow),
		Coordinator: coordinator,
		Notifier:    notifier,
		Store:       store,
		Snapshots: validators.NewSnapshotValidator(registry,
			validators.WithFlowLimits(dc.MaxNodesPerFlow, dc.MaxEdgesPerFlow)),
		Publisher: publisher,
		Config:    dc,
		Logger:    logger,
	})
}

// Subscriptions records that event and notification consumers are attached
type Subscriptions struct {
	Handlers int
	Sinks    int
}

// ProvideSubscriptions attaches every enabled consumer to the event bus and
// the notifier
func ProvideSubscriptions(
	eventBus *memory.EventBus,
	journal ports.EventJournal,
	hub *websocket.Hub,
	broadcaster *realtime.Broadcaster,
	publisher *eventbridge.Publisher,
	notifier *save.Notifier,
) (Subscriptions, error) {
	handlers := []ports.EventHandler{hub}
	if h, ok := journal.(ports.EventHandler); ok {
		handlers = append(handlers, h)
	}
	if publisher != nil {
		handlers = append(handlers, publisher)
	}
	if broadcaster != nil {
		handlers = append(handlers, broadcaster)
	}

	var errs []error
	for _, h := range handlers {
		errs = append(errs, eventBus.Subscribe(memory.AllEvents, h))
	}
	if err := errors.Join(errs...); err != nil {
		return Subscriptions{}, err
	}

	notifier.AddSink(hub)
	sinks := 1
	if broadcaster != nil {
		notifier.AddSink(broadcaster)
		sinks++
	}

	return Subscriptions{Handlers: len(handlers), Sinks: sinks}, nil
}

// ProvideCloudWatchClient creates a CloudWatch client when metrics are enabled
func ProvideCloudWatchClient(cfg *config.Config, awsCfg aws.Config) observability.CloudWatchAPI {
	if !cfg.EnableMetrics {
		return nil
	}
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates metrics instance
func ProvideMetrics(client observability.CloudWatchAPI, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("FlowBuilder/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("flowbuilder", cfg.EnableTracing)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	session *editor.Session,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
		bus.TracingMiddleware(tracer),
	)
	if err := commandhandlers.RegisterAll(commandBus, session, metrics, logger); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	session *editor.Session,
	journal ports.EventJournal,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.LoggingMiddleware(logger),
		querybus.MetricsMiddleware(metrics),
	)
	if err := queryhandlers.RegisterAll(queryBus, queryhandlers.NewFlowQueryHandler(session, journal, logger)); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideRateLimiter creates the per-client limiter, nil when disabled
func ProvideRateLimiter(cfg *config.Config) *auth.TokenBucketLimiter {
	if cfg.RateLimitPerMinute == 0 {
		return nil
	}
	return auth.NewPerMinuteLimiter(cfg.RateLimitPerMinute)
}

// ProvideJWTValidator creates the token validator, nil without a secret
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideWebSocketServer creates the upgrade endpoint for the hub
func ProvideWebSocketServer(hub *websocket.Hub, cfg *config.Config, logger *zap.Logger) *websocket.Server {
	wsCfg := websocket.DefaultServerConfig()
	if cfg.EnableCORS {
		wsCfg.AllowedOrigins = cfg.AllowedOrigins
	}
	return websocket.NewServer(hub, wsCfg, logger)
}

// ProvideRouterOptions collects the optional router parts enabled by config
func ProvideRouterOptions(
	cfg *config.Config,
	validator *auth.JWTValidator,
	limiter *auth.TokenBucketLimiter,
	wsServer *websocket.Server,
	store ports.SnapshotStore,
	logger *zap.Logger,
) rest.Options {
	opts := rest.Options{
		WebSocket: wsServer,
		Debug:     cfg.IsDevelopment(),
		Ready: func(ctx context.Context) error {
			_, err := store.Get(ctx, cfg.SnapshotKey)
			if err != nil && !errors.Is(err, pkgerrors.ErrSnapshotNotFound) {
				return err
			}
			return nil
		},
	}

	switch {
	case cfg.IsLambda:
		opts.Auth = middleware.AuthenticateForLambda()
	case cfg.RequireAuth && validator != nil:
		opts.Auth = middleware.Authenticate(validator, logger)
	}
	if limiter != nil {
		opts.RateLimit = middleware.RateLimit(limiter, logger)
	}
	if cfg.EnableCORS {
		opts.AllowedOrigins = cfg.AllowedOrigins
	}
	return opts
}

// ProvideRouter creates the HTTP router
func ProvideRouter(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, opts rest.Options, logger *zap.Logger) *rest.Router {
	return rest.NewRouter(commandBus, queryBus, opts, logger)
}

// ProvideHTTPHandler builds the routed handler
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}
