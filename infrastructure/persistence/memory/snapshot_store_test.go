package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
)

func TestSnapshotStore_PutGet(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "chatbot-flow")
	assert.True(t, errors.Is(err, pkgerrors.ErrSnapshotNotFound))
	assert.True(t, pkgerrors.IsNotFound(err))

	snap := snapshot.Snapshot{Nodes: []snapshot.NodeRecord{{ID: "a", Type: "textMessage"}}}
	require.NoError(t, store.Put(ctx, "chatbot-flow", snap))

	snap.Nodes[0].ID = "mutated"
	got, err := store.Get(ctx, "chatbot-flow")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Nodes[0].ID, "stored snapshots are copies")
	assert.NotNil(t, got.Edges)

	require.NoError(t, store.Put(ctx, "chatbot-flow", snapshot.Snapshot{}))
	got, err = store.Get(ctx, "chatbot-flow")
	require.NoError(t, err)
	assert.Empty(t, got.Nodes, "put overwrites")

	assert.Equal(t, []string{"chatbot-flow"}, store.Keys())
	require.NoError(t, store.Delete(ctx, "chatbot-flow"))
	assert.Empty(t, store.Keys())
}

func TestSnapshotStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewSnapshotStore().Put(ctx, "k", snapshot.Snapshot{}), context.Canceled)
}
