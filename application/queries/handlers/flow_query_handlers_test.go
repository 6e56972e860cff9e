package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flowbuilder/application/editor"
	"flowbuilder/application/queries"
	"flowbuilder/application/queries/bus"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/events"
	"flowbuilder/domain/services"
	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
	"flowbuilder/tests/harness"
)

func setup(t *testing.T) (*bus.QueryBus, *harness.Editor) {
	t.Helper()
	ed := harness.NewEditor()
	b := bus.NewQueryBus(bus.LoggingMiddleware(zap.NewNop()))
	require.NoError(t, RegisterAll(b, NewFlowQueryHandler(ed.Session, ed.Journal, zap.NewNop())))
	return b, ed
}

func ask[T any](t *testing.T, b *bus.QueryBus, q bus.Query) T {
	t.Helper()
	result, err := b.Ask(context.Background(), q)
	require.NoError(t, err)
	typed, ok := result.(T)
	require.True(t, ok, "unexpected result %T", result)
	return typed
}

func TestGetFlowAndNode(t *testing.T) {
	b, ed := setup(t)
	ctx := context.Background()

	require.True(t, ed.Session.Seed(ctx))
	node, ok := ed.Session.AddNode(ctx, valueobjects.KindTextMessage)
	require.True(t, ok)

	view := ask[editor.View](t, b, queries.GetFlowQuery{})
	require.Len(t, view.Nodes, 2)
	assert.Equal(t, "Start Message", view.Nodes[0].Data.Text)

	got := ask[*editor.NodeView](t, b, queries.GetNodeQuery{NodeID: node.ID().String()})
	assert.Equal(t, node.ID().String(), got.ID)
	assert.Equal(t, "textMessage", got.Type)

	_, err := b.Ask(ctx, queries.GetNodeQuery{NodeID: "ghost"})
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = b.Ask(ctx, queries.GetNodeQuery{})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestValidateFlowQuery_HasNoSideEffects(t *testing.T) {
	b, ed := setup(t)
	ctx := context.Background()

	_, _ = ed.Session.AddNode(ctx, valueobjects.KindTextMessage)
	c, _ := ed.Session.AddNode(ctx, valueobjects.KindTextMessage)
	empty := ""
	require.True(t, ed.Session.UpdateNodeContent(ctx, c.ID(), valueobjects.ContentPatch{Text: &empty}))

	verdict := ask[queries.VerdictResult](t, b, queries.ValidateFlowQuery{})
	assert.False(t, verdict.Valid)
	assert.Equal(t, services.MessageConnectionAndText, verdict.Message)
	assert.Equal(t, []string{c.ID().String()}, verdict.OffendingNodeIDs)
	assert.Equal(t, []string{c.ID().String()}, verdict.Disconnected)
	assert.Equal(t, []string{c.ID().String()}, verdict.EmptyContent)

	for _, n := range ed.Session.View().Nodes {
		assert.False(t, n.HasError, "check must not flag %s", n.ID)
	}
	_, visible := ed.Session.Notification()
	assert.False(t, visible)
}

func TestGetNotificationQuery(t *testing.T) {
	b, ed := setup(t)
	ctx := context.Background()

	hidden := ask[queries.NotificationResult](t, b, queries.GetNotificationQuery{})
	assert.False(t, hidden.Visible)
	assert.Nil(t, hidden.Notification)

	require.True(t, ed.Session.Seed(ctx))
	_, err := ed.Session.Save(ctx)
	require.NoError(t, err)

	shown := ask[queries.NotificationResult](t, b, queries.GetNotificationQuery{})
	require.True(t, shown.Visible)
	assert.True(t, shown.Notification.Success)
	assert.Equal(t, "Flow saved successfully!", shown.Notification.Message)

	ed.Scheduler.FirePending()
	assert.False(t, ask[queries.NotificationResult](t, b, queries.GetNotificationQuery{}).Visible)
}

func TestSnapshotAndUnsavedQueries(t *testing.T) {
	b, ed := setup(t)
	ctx := context.Background()

	require.True(t, ed.Session.Seed(ctx))
	snap := ask[snapshot.Snapshot](t, b, queries.GetSnapshotQuery{})
	require.Len(t, snap.Nodes, 1)

	diff := ask[snapshot.Diff](t, b, queries.GetUnsavedChangesQuery{})
	assert.Equal(t, []string{snap.Nodes[0].ID}, diff.NodesAdded)

	_, err := ed.Session.Save(ctx)
	require.NoError(t, err)
	assert.True(t, ask[snapshot.Diff](t, b, queries.GetUnsavedChangesQuery{}).IsEmpty())
}

func TestGetHistoryQuery(t *testing.T) {
	b, ed := setup(t)
	ctx := context.Background()

	node, _ := ed.Session.AddNode(ctx, valueobjects.KindTextMessage)
	require.True(t, ed.Session.MoveNode(ctx, node.ID(), valueobjects.NewPosition(1, 1)))
	require.True(t, ed.Session.RemoveNode(ctx, node.ID()))

	all := ask[*queries.HistoryResult](t, b, queries.GetHistoryQuery{})
	assert.Equal(t, ed.Config.SnapshotKey, all.FlowID)
	require.Len(t, all.Entries, 3)
	assert.Equal(t, events.TypeNodeAdded, all.Entries[0].EventType)
	assert.Equal(t, events.TypeNodeRemoved, all.Entries[2].EventType)

	last := ask[*queries.HistoryResult](t, b, queries.GetHistoryQuery{Limit: 1})
	require.Len(t, last.Entries, 1)
	assert.Equal(t, events.TypeNodeRemoved, last.Entries[0].EventType)

	_, err := b.Ask(ctx, queries.GetHistoryQuery{Limit: -1})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGetHistoryQuery_WithoutJournal(t *testing.T) {
	ed := harness.NewEditor()
	b := bus.NewQueryBus()
	require.NoError(t, RegisterAll(b, NewFlowQueryHandler(ed.Session, nil, zap.NewNop())))

	result := ask[*queries.HistoryResult](t, b, queries.GetHistoryQuery{Limit: 5})
	assert.Empty(t, result.Entries)
	assert.NotNil(t, result.Entries)
}

func TestListNodeKindsQuery(t *testing.T) {
	b, _ := setup(t)

	kinds := ask[[]queries.KindResult](t, b, queries.ListNodeKindsQuery{})
	require.Len(t, kinds, 1)
	assert.Equal(t, "textMessage", kinds[0].Type)
	assert.NotEmpty(t, kinds[0].Label)
}

func TestRegisterAll_RejectsDuplicates(t *testing.T) {
	ed := harness.NewEditor()
	b := bus.NewQueryBus()
	handler := NewFlowQueryHandler(ed.Session, nil, zap.NewNop())

	require.NoError(t, RegisterAll(b, handler))
	assert.Error(t, RegisterAll(b, handler))
}
