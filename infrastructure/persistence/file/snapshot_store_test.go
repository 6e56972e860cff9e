package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
	"flowbuilder/pkg/serialization"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		serializer *serialization.Serializer
		wantFile   string
	}{
		{name: "json", serializer: nil, wantFile: "chatbot-flow.json"},
		{name: "msgpack zstd", serializer: serialization.NewSerializer(serialization.MsgPackCodec{}, serialization.CompressionZstd), wantFile: "chatbot-flow.msgpack.zstd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewSnapshotStore(dir, tt.serializer, nil)
			require.NoError(t, err)
			ctx := context.Background()

			_, err = store.Get(ctx, "chatbot-flow")
			assert.True(t, pkgerrors.IsNotFound(err))

			snap := snapshot.Snapshot{
				Nodes: []snapshot.NodeRecord{{ID: "a", Type: "textMessage", Data: snapshot.DataRecord{Text: "hi"}}},
				Edges: []snapshot.EdgeRecord{},
			}
			require.NoError(t, store.Put(ctx, "chatbot-flow", snap))
			assert.FileExists(t, filepath.Join(dir, tt.wantFile))

			got, err := store.Get(ctx, "chatbot-flow")
			require.NoError(t, err)
			assert.Equal(t, snap.Nodes, got.Nodes)
			assert.Empty(t, got.Edges)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary files are cleaned up")
		})
	}
}

func TestSnapshotStore_PutReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	long := snapshot.Snapshot{Nodes: []snapshot.NodeRecord{
		{ID: "a", Type: "textMessage", Data: snapshot.DataRecord{Text: "a much longer message than the next one"}},
		{ID: "b", Type: "textMessage"},
	}}
	short := snapshot.Snapshot{Nodes: []snapshot.NodeRecord{{ID: "c", Type: "textMessage"}}}

	require.NoError(t, store.Put(ctx, "chatbot-flow", long))
	require.NoError(t, store.Put(ctx, "chatbot-flow", short))

	got, err := store.Get(ctx, "chatbot-flow")
	require.NoError(t, err)
	assert.Equal(t, short.Nodes, got.Nodes)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshotStore_PutCancelled(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "chatbot-flow", snapshot.Snapshot{}), context.Canceled)
	assert.NoFileExists(t, store.Path("chatbot-flow"))
}

func TestSnapshotStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir, nil, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path("chatbot-flow"), []byte("{not json"), 0o644))

	_, err = store.Get(context.Background(), "chatbot-flow")
	assert.ErrorIs(t, err, pkgerrors.ErrSnapshotMalformed)
}

func TestSnapshotStore_KeysAreEscaped(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "a%2Fb.json", filepath.Base(store.Path("a/b")))
}
