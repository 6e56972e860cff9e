// Package harness assembles a fully wired editor session for tests
// outside the editor package
package harness

import (
	"math/rand"

	"go.uber.org/zap"

	"flowbuilder/application/editor"
	"flowbuilder/application/ports"
	"flowbuilder/application/save"
	"flowbuilder/application/selection"
	"flowbuilder/domain/config"
	"flowbuilder/domain/core/aggregates"
	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/validators"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/services"
	"flowbuilder/infrastructure/messaging/memory"
	memstore "flowbuilder/infrastructure/persistence/memory"
	"flowbuilder/tests/fixtures"
)

// Editor is a session with in-memory collaborators and a fake clock for
// notification expiry
type Editor struct {
	Session   *editor.Session
	Store     ports.SnapshotStore
	Memory    *memstore.SnapshotStore
	Journal   *memstore.EventJournal
	Bus       *memory.EventBus
	Notifier  *save.Notifier
	Scheduler *fixtures.FakeScheduler
	Config    *config.DomainConfig
}

// Option customises an Editor before it is built
type Option func(*options)

type options struct {
	cfg   *config.DomainConfig
	store ports.SnapshotStore
}

// WithConfig replaces the domain configuration
func WithConfig(cfg *config.DomainConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithStore replaces the in-memory snapshot store
func WithStore(store ports.SnapshotStore) Option {
	return func(o *options) { o.store = store }
}

// NewEditor builds an Editor
func NewEditor(opts ...Option) *Editor {
	o := &options{cfg: config.DefaultDomainConfig()}
	for _, opt := range opts {
		opt(o)
	}

	mem := memstore.NewSnapshotStore()
	store := o.store
	if store == nil {
		store = mem
	}

	cfg := o.cfg
	logger := zap.NewNop()
	registry := valueobjects.DefaultKindRegistry(cfg.DefaultNodeText)
	flow := aggregates.NewFlow(cfg.SnapshotKey, registry,
		aggregates.WithLimits(cfg.MaxNodesPerFlow, cfg.MaxEdgesPerFlow))
	scheduler := fixtures.NewFakeScheduler()
	notifier := save.NewNotifier(scheduler, cfg.NotificationTTL, logger)
	bus := memory.NewEventBus(logger)
	journal := memstore.NewEventJournal(0)
	_ = bus.Subscribe(memory.AllEvents, journal)

	session := editor.NewSession(editor.Dependencies{
		Flow:      flow,
		Factory:   entities.NewNodeFactory(registry),
		Selection: selection.NewController(flow),
		Coordinator: save.NewCoordinator(flow, services.NewFlowValidator(registry), store, notifier,
			cfg.SnapshotKey, cfg.SavedMessage, logger),
		Notifier:  notifier,
		Store:     store,
		Snapshots: validators.NewSnapshotValidator(registry),
		Publisher: bus,
		Config:    cfg,
		Logger:    logger,
		Rand:      rand.New(rand.NewSource(1)),
	})

	return &Editor{
		Session:   session,
		Store:     store,
		Memory:    mem,
		Journal:   journal,
		Bus:       bus,
		Notifier:  notifier,
		Scheduler: scheduler,
		Config:    cfg,
	}
}
