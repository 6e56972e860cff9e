package save

import (
	"context"

	"go.uber.org/zap"

	"flowbuilder/application/ports"
	"flowbuilder/domain/core/aggregates"
	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/services"
	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
)

// MessageStorageFailed is shown when a valid flow could not be written
const MessageStorageFailed = services.MessagePrefix + "The flow could not be stored."

// Result describes the outcome of a save request
type Result struct {
	Persisted    bool
	Verdict      services.Verdict
	Notification ports.Notification
}

// Coordinator runs a save request: validate, then either persist and
// clear the error flags or flag the offending nodes. Either way it
// publishes a transient notification.
type Coordinator struct {
	flow         *aggregates.Flow
	validator    *services.FlowValidator
	store        ports.SnapshotStore
	notifier     *Notifier
	key          string
	savedMessage string
	logger       *zap.Logger
}

// NewCoordinator creates a save coordinator
func NewCoordinator(
	flow *aggregates.Flow,
	validator *services.FlowValidator,
	store ports.SnapshotStore,
	notifier *Notifier,
	key string,
	savedMessage string,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		flow:         flow,
		validator:    validator,
		store:        store,
		notifier:     notifier,
		key:          key,
		savedMessage: savedMessage,
		logger:       logger,
	}
}

// Save validates the flow and persists it when valid.
// A refused save is a normal outcome and returns a nil error; the error
// is reserved for a store that failed to write a valid flow.
func (c *Coordinator) Save(ctx context.Context) (*Result, error) {
	var verdict services.Verdict
	var snap snapshot.Snapshot

	c.flow.Revalidate(func(nodes []*entities.Node, edges []entities.Edge) valueobjects.NodeIssues {
		verdict = c.validator.Validate(nodes, edges)
		if verdict.Valid {
			snap = snapshot.FromFlow(nodes, edges)
		}
		return verdict.Issues()
	})

	if !verdict.Valid {
		c.flow.RecordValidationFailed(verdict.OffendingNodeIDs, verdict.Message)
		note := c.notifier.Publish(ctx, false, verdict.Message)

		c.logger.Info("Flow save refused",
			zap.String("key", c.key),
			zap.Int("offending", len(verdict.OffendingNodeIDs)),
			zap.Int("disconnected", len(verdict.Disconnected)),
			zap.Int("empty_content", len(verdict.EmptyContent)),
		)
		return &Result{Verdict: verdict, Notification: note}, nil
	}

	if err := c.store.Put(ctx, c.key, snap); err != nil {
		note := c.notifier.Publish(ctx, false, MessageStorageFailed)
		c.logger.Error("Failed to persist flow snapshot",
			zap.String("key", c.key),
			zap.Error(err),
		)
		return &Result{Verdict: verdict, Notification: note}, pkgerrors.NewStorageError("put snapshot", err)
	}

	c.flow.RecordSaved(c.key)
	note := c.notifier.Publish(ctx, true, c.savedMessage)

	c.logger.Info("Flow saved",
		zap.String("key", c.key),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)),
	)
	return &Result{Persisted: true, Verdict: verdict, Notification: note}, nil
}

// Check validates the flow without touching flags, storage or notifications
func (c *Coordinator) Check() services.Verdict {
	var verdict services.Verdict
	c.flow.Inspect(func(nodes []*entities.Node, edges []entities.Edge) {
		verdict = c.validator.Validate(nodes, edges)
	})
	return verdict
}

// Key returns the snapshot key the coordinator writes to
func (c *Coordinator) Key() string {
	return c.key
}
