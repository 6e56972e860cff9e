package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowbuilder/domain/snapshot"
	"flowbuilder/infrastructure/persistence/file"
	"flowbuilder/pkg/auth"
)

func node(id, text string) snapshot.NodeRecord {
	return snapshot.NodeRecord{ID: id, Type: "textMessage", Data: snapshot.DataRecord{Text: text}}
}

var (
	connected = snapshot.Snapshot{
		Nodes: []snapshot.NodeRecord{node("1", "Start Message"), node("textMessage-2", "Bye")},
		Edges: []snapshot.EdgeRecord{{ID: "e1-textMessage-2", Source: "1", Target: "textMessage-2"}},
	}
	broken = snapshot.Snapshot{
		Nodes: []snapshot.NodeRecord{node("1", "Start Message"), node("textMessage-2", " ")},
		Edges: []snapshot.EdgeRecord{},
	}
)

func writeSnapshot(t *testing.T, snap snapshot.Snapshot) string {
	t.Helper()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", writeSnapshot(t, connected))
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 nodes, 1 edges\n", out)

	out, err = run(t, "validate", writeSnapshot(t, broken))
	assert.ErrorIs(t, err, errInvalidFlow)
	assert.Contains(t, out, "Cannot save Flow. The highlighted nodes have connection and text issues.")
	assert.Contains(t, out, "not connected: textMessage-2")
	assert.Contains(t, out, "empty text:    textMessage-2")
}

func TestValidate_JSON(t *testing.T) {
	out, err := run(t, "validate", "--json", writeSnapshot(t, broken))
	assert.ErrorIs(t, err, errInvalidFlow)

	var verdict map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	assert.Equal(t, false, verdict["valid"])
	assert.Equal(t, []interface{}{"textMessage-2"}, verdict["offendingNodeIds"])
}

func TestValidate_StructuralErrors(t *testing.T) {
	dangling := snapshot.Snapshot{
		Nodes: []snapshot.NodeRecord{node("1", "hi")},
		Edges: []snapshot.EdgeRecord{{ID: "e", Source: "1", Target: "ghost"}},
	}
	_, err := run(t, "validate", writeSnapshot(t, dangling))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errInvalidFlow)
}

func TestDiff(t *testing.T) {
	out, err := run(t, "diff", writeSnapshot(t, connected), writeSnapshot(t, broken))
	require.NoError(t, err)
	assert.Equal(t, "~ node textMessage-2\n- edge e1-textMessage-2\n", out)

	out, err = run(t, "diff", writeSnapshot(t, connected), writeSnapshot(t, connected))
	require.NoError(t, err)
	assert.Equal(t, "no changes\n", out)
}

func TestShow_FileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := file.NewSnapshotStore(dir, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "chatbot-flow", connected))

	out, err := run(t, "show", "--dir", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "chatbot-flow  2 nodes  1 edges  sha256:"))
	assert.Contains(t, out, "-> textMessage-2")

	_, err = run(t, "show", "--dir", dir, "--key", "missing")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	_, err := run(t, "token", "user-1")
	assert.Error(t, err)

	out, err := run(t, "token", "user-1", "--jwt-secret", "s3cret", "--email", "a@b.c")
	require.NoError(t, err)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "s3cret", Issuer: "flowbuilder"})
	require.NoError(t, err)
	claims, err := validator.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, []string{"editor"}, claims.Roles)
}
