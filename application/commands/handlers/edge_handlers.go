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

// EdgeHandlers handles connection commands
type EdgeHandlers struct {
	session *editor.Session
	logger  *zap.Logger
}

// NewEdgeHandlers creates edge command handlers
func NewEdgeHandlers(session *editor.Session, logger *zap.Logger) *EdgeHandlers {
	return &EdgeHandlers{session: session, logger: logger}
}

// Handle dispatches edge commands
func (h *EdgeHandlers) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	switch c := cmd.(type) {
	case commands.ConnectNodesCommand:
		edge, ok := h.session.Connect(ctx, valueobjects.MustNodeID(c.Source), valueobjects.MustNodeID(c.Target))
		if !ok {
			return commands.Ignored(commands.ReasonRejected), nil
		}
		return commands.Outcome{Applied: true, EdgeID: edge.ID}, nil

	case commands.RemoveEdgeCommand:
		if !h.session.RemoveEdge(ctx, c.EdgeID) {
			return commands.Ignored(commands.ReasonUnknownEdge), nil
		}
		return commands.Outcome{Applied: true, EdgeID: c.EdgeID}, nil

	default:
		return nil, fmt.Errorf("unexpected command %T", cmd)
	}
}
