package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	"flowbuilder/application/editor"
	"flowbuilder/domain/core/valueobjects"
)

// NodeHandlers handles commands that create, edit, move or remove nodes
type NodeHandlers struct {
	session *editor.Session
	logger  *zap.Logger
}

// NewNodeHandlers creates node command handlers
func NewNodeHandlers(session *editor.Session, logger *zap.Logger) *NodeHandlers {
	return &NodeHandlers{session: session, logger: logger}
}

// Handle dispatches node commands
func (h *NodeHandlers) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	switch c := cmd.(type) {
	case commands.AddNodeCommand:
		return h.add(ctx, c), nil
	case commands.DropNodeCommand:
		return h.drop(ctx, c), nil
	case commands.UpdateNodeContentCommand:
		return h.updateContent(ctx, c), nil
	case commands.MoveNodeCommand:
		return h.move(ctx, c), nil
	case commands.RemoveNodeCommand:
		return h.remove(ctx, c), nil
	default:
		return nil, fmt.Errorf("unexpected command %T", cmd)
	}
}

func (h *NodeHandlers) add(ctx context.Context, cmd commands.AddNodeCommand) commands.Outcome {
	kind, ok := h.session.Registry().Parse(cmd.Kind)
	if !ok {
		return commands.Ignored(commands.ReasonUnknownKind)
	}
	node, ok := h.session.AddNode(ctx, kind)
	if !ok {
		return commands.Ignored(commands.ReasonRejected)
	}
	return commands.Outcome{Applied: true, NodeID: node.ID().String()}
}

func (h *NodeHandlers) drop(ctx context.Context, cmd commands.DropNodeCommand) commands.Outcome {
	node, ok := h.session.Drop(ctx, cmd.Kind, valueobjects.NewPosition(cmd.X, cmd.Y))
	if !ok {
		return commands.Ignored(commands.ReasonUnknownKind)
	}
	return commands.Outcome{Applied: true, NodeID: node.ID().String()}
}

func (h *NodeHandlers) updateContent(ctx context.Context, cmd commands.UpdateNodeContentCommand) commands.Outcome {
	id := valueobjects.MustNodeID(cmd.NodeID)
	if !h.session.Flow().HasNode(id) {
		return commands.Ignored(commands.ReasonUnknownNode)
	}
	h.session.UpdateNodeContent(ctx, id, valueobjects.ContentPatch{Text: cmd.Text})
	return commands.Outcome{Applied: true, NodeID: cmd.NodeID}
}

func (h *NodeHandlers) move(ctx context.Context, cmd commands.MoveNodeCommand) commands.Outcome {
	id := valueobjects.MustNodeID(cmd.NodeID)
	if !h.session.Flow().HasNode(id) {
		return commands.Ignored(commands.ReasonUnknownNode)
	}
	h.session.MoveNode(ctx, id, valueobjects.NewPosition(cmd.X, cmd.Y))
	return commands.Outcome{Applied: true, NodeID: cmd.NodeID}
}

func (h *NodeHandlers) remove(ctx context.Context, cmd commands.RemoveNodeCommand) commands.Outcome {
	if !h.session.RemoveNode(ctx, valueobjects.MustNodeID(cmd.NodeID)) {
		return commands.Ignored(commands.ReasonUnknownNode)
	}
	h.logger.Debug("Node removed", zap.String("nodeID", cmd.NodeID))
	return commands.Outcome{Applied: true, NodeID: cmd.NodeID}
}
