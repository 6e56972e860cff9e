package handlers

import (
	"errors"

	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	"flowbuilder/application/editor"
	"flowbuilder/pkg/observability"
)

// RegisterAll registers every editor command on the bus
func RegisterAll(b *bus.CommandBus, session *editor.Session, metrics *observability.Metrics, logger *zap.Logger) error {
	nodes := NewNodeHandlers(session, logger)
	edges := NewEdgeHandlers(session, logger)
	selection := NewSelectionHandlers(session)
	saves := NewSaveHandlers(session, metrics, logger)

	return errors.Join(
		b.Register(commands.AddNodeCommand{}, nodes),
		b.Register(commands.DropNodeCommand{}, nodes),
		b.Register(commands.UpdateNodeContentCommand{}, nodes),
		b.Register(commands.MoveNodeCommand{}, nodes),
		b.Register(commands.RemoveNodeCommand{}, nodes),
		b.Register(commands.ConnectNodesCommand{}, edges),
		b.Register(commands.RemoveEdgeCommand{}, edges),
		b.Register(commands.SelectNodeCommand{}, selection),
		b.Register(commands.ClearSelectionCommand{}, selection),
		b.Register(commands.EditSelectedNodeCommand{}, selection),
		b.Register(commands.SaveFlowCommand{}, saves),
		b.Register(commands.DismissNotificationCommand{}, saves),
		b.Register(commands.RestoreFlowCommand{}, saves),
		b.Register(commands.ImportFlowCommand{}, saves),
	)
}
