package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	"flowbuilder/application/save"
	"flowbuilder/domain/services"
	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
	"flowbuilder/tests/harness"
)

func setup(t *testing.T) (*bus.CommandBus, *harness.Editor) {
	t.Helper()
	ed := harness.NewEditor()
	b := bus.NewCommandBus(bus.LoggingMiddleware(zap.NewNop()))
	require.NoError(t, RegisterAll(b, ed.Session, nil, zap.NewNop()))
	return b, ed
}

func send(t *testing.T, b *bus.CommandBus, cmd bus.Command) commands.Outcome {
	t.Helper()
	result, err := b.Send(context.Background(), cmd)
	require.NoError(t, err)
	outcome, ok := result.(commands.Outcome)
	require.True(t, ok, "unexpected result %T", result)
	return outcome
}

func TestNodeCommands(t *testing.T) {
	b, ed := setup(t)

	added := send(t, b, commands.AddNodeCommand{Kind: "textMessage"})
	require.True(t, added.Applied)
	assert.NotEmpty(t, added.NodeID)

	assert.Equal(t, commands.ReasonUnknownKind, send(t, b, commands.AddNodeCommand{Kind: "video"}).Reason)
	assert.False(t, send(t, b, commands.DropNodeCommand{Kind: ""}).Applied)

	dropped := send(t, b, commands.DropNodeCommand{Kind: "textMessage", X: 10, Y: 20})
	require.True(t, dropped.Applied)

	text := "Hello"
	assert.True(t, send(t, b, commands.UpdateNodeContentCommand{NodeID: dropped.NodeID, Text: &text}).Applied)
	assert.Equal(t, commands.ReasonUnknownNode,
		send(t, b, commands.UpdateNodeContentCommand{NodeID: "ghost", Text: &text}).Reason)

	assert.True(t, send(t, b, commands.MoveNodeCommand{NodeID: dropped.NodeID, X: 1, Y: 2}).Applied)
	assert.False(t, send(t, b, commands.MoveNodeCommand{NodeID: "ghost"}).Applied)

	view := ed.Session.View()
	require.Len(t, view.Nodes, 2)
	assert.Equal(t, "Hello", view.Nodes[1].Data.Text)
	assert.Equal(t, 1.0, view.Nodes[1].Position.X)

	assert.True(t, send(t, b, commands.RemoveNodeCommand{NodeID: added.NodeID}).Applied)
	assert.False(t, send(t, b, commands.RemoveNodeCommand{NodeID: added.NodeID}).Applied)
}

func TestNodeCommands_InvalidInput(t *testing.T) {
	b, _ := setup(t)

	_, err := b.Send(context.Background(), commands.MoveNodeCommand{NodeID: " "})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = b.Send(context.Background(), commands.AddNodeCommand{})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestEdgeCommands(t *testing.T) {
	b, _ := setup(t)

	a := send(t, b, commands.DropNodeCommand{Kind: "textMessage"})
	c := send(t, b, commands.DropNodeCommand{Kind: "textMessage"})
	d := send(t, b, commands.DropNodeCommand{Kind: "textMessage"})

	first := send(t, b, commands.ConnectNodesCommand{Source: a.NodeID, Target: c.NodeID})
	require.True(t, first.Applied)
	assert.NotEmpty(t, first.EdgeID)

	second := send(t, b, commands.ConnectNodesCommand{Source: a.NodeID, Target: d.NodeID})
	assert.False(t, second.Applied)
	assert.Equal(t, commands.ReasonRejected, second.Reason)

	assert.True(t, send(t, b, commands.RemoveEdgeCommand{EdgeID: first.EdgeID}).Applied)
	assert.Equal(t, commands.ReasonUnknownEdge, send(t, b, commands.RemoveEdgeCommand{EdgeID: first.EdgeID}).Reason)

	assert.True(t, send(t, b, commands.ConnectNodesCommand{Source: a.NodeID, Target: d.NodeID}).Applied)
}

func TestSelectionCommands(t *testing.T) {
	b, ed := setup(t)
	a := send(t, b, commands.DropNodeCommand{Kind: "textMessage"})

	assert.Equal(t, commands.ReasonNothingSelected, send(t, b, commands.EditSelectedNodeCommand{Text: "x"}).Reason)
	assert.Equal(t, commands.ReasonUnknownNode, send(t, b, commands.SelectNodeCommand{NodeID: "ghost"}).Reason)

	require.True(t, send(t, b, commands.SelectNodeCommand{NodeID: a.NodeID}).Applied)
	edited := send(t, b, commands.EditSelectedNodeCommand{Text: "typed"})
	assert.True(t, edited.Applied)
	assert.Equal(t, a.NodeID, edited.NodeID)

	send(t, b, commands.ClearSelectionCommand{})
	view := ed.Session.View()
	assert.Empty(t, view.Selection.NodeID)
	assert.Equal(t, "typed", view.Nodes[0].Data.Text)
}

func TestSaveCommands(t *testing.T) {
	b, ed := setup(t)
	ctx := context.Background()

	a := send(t, b, commands.DropNodeCommand{Kind: "textMessage"})
	send(t, b, commands.DropNodeCommand{Kind: "textMessage"})

	result, err := b.Send(ctx, commands.SaveFlowCommand{})
	require.NoError(t, err)
	refused := result.(*save.Result)
	assert.False(t, refused.Persisted)
	assert.Equal(t, services.MessageConnection, refused.Notification.Message)
	assert.Empty(t, ed.Memory.Keys())

	send(t, b, commands.DismissNotificationCommand{})
	_, shown := ed.Session.Notification()
	assert.False(t, shown)

	send(t, b, commands.RemoveNodeCommand{NodeID: a.NodeID})
	result, err = b.Send(ctx, commands.SaveFlowCommand{})
	require.NoError(t, err)
	assert.True(t, result.(*save.Result).Persisted)
	assert.Equal(t, []string{"chatbot-flow"}, ed.Memory.Keys())

	imported := snapshot.Snapshot{Nodes: []snapshot.NodeRecord{{ID: "n1", Type: "textMessage", Data: snapshot.DataRecord{Text: "imported"}}}}
	assert.True(t, send(t, b, commands.ImportFlowCommand{Snapshot: imported}).Applied)
	assert.Equal(t, 1, ed.Session.Flow().NodeCount())

	// restoring brings back what was saved
	assert.True(t, send(t, b, commands.RestoreFlowCommand{}).Applied)
	nodes := ed.Session.Flow().Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "New message", nodes[0].Content().Text())

	_, err = b.Send(ctx, commands.ImportFlowCommand{Snapshot: snapshot.Snapshot{
		Edges: []snapshot.EdgeRecord{{ID: "e", Source: "x", Target: "y"}},
	}})
	assert.True(t, pkgerrors.IsValidation(err))
}
