package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	"flowbuilder/application/editor"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/pkg/observability"
)

// SelectionHandlers handles selection and settings panel commands
type SelectionHandlers struct {
	session *editor.Session
}

// NewSelectionHandlers creates selection command handlers
func NewSelectionHandlers(session *editor.Session) *SelectionHandlers {
	return &SelectionHandlers{session: session}
}

// Handle dispatches selection commands
func (h *SelectionHandlers) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	switch c := cmd.(type) {
	case commands.SelectNodeCommand:
		if !h.session.Select(valueobjects.MustNodeID(c.NodeID)) {
			return commands.Ignored(commands.ReasonUnknownNode), nil
		}
		return commands.Outcome{Applied: true, NodeID: c.NodeID}, nil

	case commands.ClearSelectionCommand:
		h.session.Deselect()
		return commands.Applied(), nil

	case commands.EditSelectedNodeCommand:
		_, selected := h.session.Selection()
		if !h.session.EditSelected(ctx, c.Text) {
			return commands.Ignored(commands.ReasonNothingSelected), nil
		}
		return commands.Outcome{Applied: true, NodeID: selected.String()}, nil

	default:
		return nil, fmt.Errorf("unexpected command %T", cmd)
	}
}

// SaveHandlers handles saving, restoring and notification commands
type SaveHandlers struct {
	session *editor.Session
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSaveHandlers creates save command handlers
func NewSaveHandlers(session *editor.Session, metrics *observability.Metrics, logger *zap.Logger) *SaveHandlers {
	return &SaveHandlers{session: session, metrics: metrics, logger: logger}
}

// Handle dispatches save commands. SaveFlowCommand returns *save.Result.
func (h *SaveHandlers) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	switch c := cmd.(type) {
	case commands.SaveFlowCommand:
		result, err := h.session.Save(ctx)
		switch {
		case err != nil:
			h.metrics.RecordSaveAttempt(ctx, "failed", 0)
		case result.Persisted:
			h.metrics.RecordSaveAttempt(ctx, "saved", 0)
		default:
			h.metrics.RecordSaveAttempt(ctx, "refused", len(result.Verdict.OffendingNodeIDs))
		}
		return result, err

	case commands.DismissNotificationCommand:
		h.session.DismissNotification(ctx)
		return commands.Applied(), nil

	case commands.RestoreFlowCommand:
		if err := h.session.Restore(ctx); err != nil {
			return nil, err
		}
		return commands.Applied(), nil

	case commands.ImportFlowCommand:
		if err := h.session.Load(ctx, c.Snapshot); err != nil {
			return nil, err
		}
		h.logger.Info("Flow imported", zap.Int("nodes", len(c.Snapshot.Nodes)))
		return commands.Applied(), nil

	default:
		return nil, fmt.Errorf("unexpected command %T", cmd)
	}
}
