package editor

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"flowbuilder/application/ports"
	"flowbuilder/application/save"
	"flowbuilder/application/selection"
	"flowbuilder/domain/config"
	"flowbuilder/domain/core/aggregates"
	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/validators"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/services"
	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
)

// Session is the editing handle for one flow. It is the only entry point
// the outer layers use; every gesture becomes an ordinary method call.
type Session struct {
	flow        *aggregates.Flow
	factory     *entities.NodeFactory
	selection   *selection.Controller
	coordinator *save.Coordinator
	notifier    *save.Notifier
	store       ports.SnapshotStore
	snapshots   *validators.SnapshotValidator
	publisher   ports.EventPublisher
	cfg         *config.DomainConfig
	logger      *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Dependencies groups the collaborators of a Session
type Dependencies struct {
	Flow        *aggregates.Flow
	Factory     *entities.NodeFactory
	Selection   *selection.Controller
	Coordinator *save.Coordinator
	Notifier    *save.Notifier
	Store       ports.SnapshotStore
	Snapshots   *validators.SnapshotValidator
	Publisher   ports.EventPublisher
	Config      *config.DomainConfig
	Logger      *zap.Logger
	// Rand drives click-to-add placement; nil seeds from the clock
	Rand *rand.Rand
}

// NewSession wires a session from its dependencies
func NewSession(deps Dependencies) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		flow:        deps.Flow,
		factory:     deps.Factory,
		selection:   deps.Selection,
		coordinator: deps.Coordinator,
		notifier:    deps.Notifier,
		store:       deps.Store,
		snapshots:   deps.Snapshots,
		publisher:   deps.Publisher,
		cfg:         deps.Config,
		logger:      logger,
		rng:         rng,
	}
}

// Flow exposes the underlying aggregate for read access
func (s *Session) Flow() *aggregates.Flow {
	return s.flow
}

// Registry returns the node kinds the session can create
func (s *Session) Registry() *valueobjects.KindRegistry {
	return s.factory.Registry()
}

// AddNode creates a node of the given kind at a random spot in the
// placement area, as the "add" button does.
func (s *Session) AddNode(ctx context.Context, kind valueobjects.NodeKind) (*entities.Node, bool) {
	if _, ok := s.factory.Registry().Lookup(kind); !ok {
		return nil, false
	}
	return s.insert(ctx, s.factory.CreateNode(kind, s.randomPosition()))
}

// Drop handles a node dragged from the panel and released at position.
// The payload carries the kind tag; an empty or unknown tag is ignored.
func (s *Session) Drop(ctx context.Context, payload string, position valueobjects.Position) (*entities.Node, bool) {
	kind, ok := s.factory.Registry().Parse(payload)
	if !ok {
		s.logger.Debug("Ignoring drop without a known node type", zap.String("payload", payload))
		return nil, false
	}
	return s.insert(ctx, s.factory.CreateNode(kind, position))
}

// InsertNode adds a node built elsewhere, e.g. by a handler that needed
// the identifier up front
func (s *Session) InsertNode(ctx context.Context, node *entities.Node) bool {
	_, ok := s.insert(ctx, node)
	return ok
}

// UpdateNodeContent merges a patch into a node. Unknown ids are ignored.
func (s *Session) UpdateNodeContent(ctx context.Context, id valueobjects.NodeID, patch valueobjects.ContentPatch) bool {
	ok := s.flow.UpdateNodeContent(id, patch)
	s.publish(ctx)
	return ok
}

// Connect proposes an edge from source to target. A rejected edge is not
// an error; the gesture simply has no effect.
func (s *Session) Connect(ctx context.Context, source, target valueobjects.NodeID) (entities.Edge, bool) {
	edge := entities.NewEdge(source, target)
	if !s.flow.AddEdge(edge) {
		s.logger.Debug("Connection rejected",
			zap.String("source", source.String()),
			zap.String("target", target.String()),
		)
		return entities.Edge{}, false
	}
	s.publish(ctx)
	return edge, true
}

// MoveNode changes a node's position
func (s *Session) MoveNode(ctx context.Context, id valueobjects.NodeID, position valueobjects.Position) bool {
	ok := s.flow.MoveNode(id, position)
	s.publish(ctx)
	return ok
}

// RemoveNode deletes a node and its edges and drops it from the selection
func (s *Session) RemoveNode(ctx context.Context, id valueobjects.NodeID) bool {
	ok := s.selection.RemoveNode(id)
	s.publish(ctx)
	return ok
}

// RemoveEdge deletes an edge
func (s *Session) RemoveEdge(ctx context.Context, edgeID string) bool {
	ok := s.flow.RemoveEdge(edgeID)
	s.publish(ctx)
	return ok
}

// Select starts editing a node
func (s *Session) Select(id valueobjects.NodeID) bool {
	return s.selection.Select(id)
}

// Deselect stops editing, as a click on the empty canvas does
func (s *Session) Deselect() {
	s.selection.Deselect()
}

// Selection returns the selection state and the selected node
func (s *Session) Selection() (selection.State, valueobjects.NodeID) {
	id, _ := s.selection.Selected()
	return s.selection.State(), id
}

// EditSelected replaces the text of the selected node on every keystroke
func (s *Session) EditSelected(ctx context.Context, text string) bool {
	ok := s.selection.Edit(text)
	s.publish(ctx)
	return ok
}

// Save validates and, when valid, persists the flow
func (s *Session) Save(ctx context.Context) (*save.Result, error) {
	result, err := s.coordinator.Save(ctx)
	s.publish(ctx)
	return result, err
}

// Check validates without side effects
func (s *Session) Check() services.Verdict {
	return s.coordinator.Check()
}

// Notification returns the notification on display
func (s *Session) Notification() (ports.Notification, bool) {
	return s.notifier.Current()
}

// DismissNotification hides the notification before it expires
func (s *Session) DismissNotification(ctx context.Context) {
	s.notifier.Dismiss(ctx)
}

// Restore loads the saved flow. Without a saved flow the session starts
// from the entry seed when seeding is enabled.
func (s *Session) Restore(ctx context.Context) error {
	snap, err := s.store.Get(ctx, s.coordinator.Key())
	if err != nil {
		if !isNotFound(err) {
			return pkgerrors.NewStorageError("get snapshot", err)
		}
		s.logger.Info("No saved flow found", zap.String("key", s.coordinator.Key()))
		s.Seed(ctx)
		return nil
	}
	return s.Load(ctx, snap)
}

// Load replaces the flow with a snapshot after checking its structure
func (s *Session) Load(ctx context.Context, snap snapshot.Snapshot) error {
	if s.snapshots != nil {
		if err := s.snapshots.Validate(snap); err != nil {
			return err
		}
	}

	nodes, edges, err := snap.ToDomain(time.Now())
	if err != nil {
		return pkgerrors.ErrSnapshotMalformed.WithCause(err)
	}

	for _, node := range nodes {
		s.factory.Reserve(node.ID())
	}
	dropped := s.flow.Restore(nodes, edges)
	s.selection.Deselect()

	s.logger.Info("Flow restored",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)-dropped),
		zap.Int("dropped_edges", dropped),
	)
	return nil
}

// Seed adds the entry node to an empty flow when seeding is enabled
func (s *Session) Seed(ctx context.Context) bool {
	if !s.cfg.SeedEntryNode || s.flow.NodeCount() > 0 {
		return false
	}
	node := s.factory.CreateNodeWithContent(
		valueobjects.KindTextMessage,
		valueobjects.NewPosition(s.cfg.EntryNodeX, s.cfg.EntryNodeY),
		valueobjects.NewTextContent(s.cfg.EntryNodeText),
	)
	_, ok := s.insert(ctx, node)
	return ok
}

func (s *Session) insert(ctx context.Context, node *entities.Node) (*entities.Node, bool) {
	if !s.flow.AddNode(node) {
		return nil, false
	}
	s.publish(ctx)
	return node, true
}

func (s *Session) randomPosition() valueobjects.Position {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	x := s.cfg.PlacementMinX + s.rng.Float64()*(s.cfg.PlacementMaxX-s.cfg.PlacementMinX)
	y := s.cfg.PlacementMinY + s.rng.Float64()*(s.cfg.PlacementMaxY-s.cfg.PlacementMinY)
	return valueobjects.NewPosition(x, y)
}

// publish forwards pending domain events. Delivery is best effort and
// never undoes a mutation.
func (s *Session) publish(ctx context.Context) {
	pending := s.flow.DrainEvents()
	if len(pending) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBatch(ctx, pending); err != nil {
		s.logger.Warn("Failed to publish flow events",
			zap.Int("count", len(pending)),
			zap.Error(err),
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, pkgerrors.ErrSnapshotNotFound) || pkgerrors.IsNotFound(err)
}

// Snapshot captures the current flow in its persisted form
func (s *Session) Snapshot() snapshot.Snapshot {
	var snap snapshot.Snapshot
	s.flow.Inspect(func(nodes []*entities.Node, edges []entities.Edge) {
		snap = snapshot.FromFlow(nodes, edges)
	})
	return snap
}

// Unsaved compares the current flow with the stored one. Without a stored
// flow every node and edge counts as added.
func (s *Session) Unsaved(ctx context.Context) (snapshot.Diff, error) {
	saved, err := s.store.Get(ctx, s.coordinator.Key())
	if err != nil && !isNotFound(err) {
		return snapshot.Diff{}, pkgerrors.NewStorageError("get snapshot", err)
	}
	return snapshot.Compare(saved, s.Snapshot()), nil
}
