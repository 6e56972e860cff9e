package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID(t *testing.T) {
	id := NewNodeID(KindTextMessage, 1712345678901)

	assert.Equal(t, "textMessage-1712345678901", id.String())
	assert.False(t, id.IsZero())

	seq, ok := id.Sequence()
	require.True(t, ok)
	assert.Equal(t, int64(1712345678901), seq)
}

func TestNewNodeIDFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "factory style id", input: "textMessage-42"},
		{name: "arbitrary restored id", input: "1"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewNodeIDFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestNodeID_Sequence(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		want   int64
		wantOK bool
	}{
		{name: "kind and number", id: "textMessage-17", want: 17, wantOK: true},
		{name: "hyphenated kind", id: "quick-reply-3", want: 3, wantOK: true},
		{name: "no separator", id: "node", wantOK: false},
		{name: "trailing separator", id: "node-", wantOK: false},
		{name: "non numeric suffix", id: "node-abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, ok := MustNodeID(tt.id).Sequence()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, seq)
			}
		})
	}
}

func TestNodeID_JSON(t *testing.T) {
	payload := struct {
		ID NodeID `json:"id"`
	}{ID: MustNodeID("textMessage-5")}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"textMessage-5"}`, string(data))

	var decoded struct {
		ID NodeID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.ID.Equals(payload.ID))

	assert.Error(t, json.Unmarshal([]byte(`{"id":5}`), &decoded))
}

func TestKindRegistry(t *testing.T) {
	registry := DefaultKindRegistry("New message")

	t.Run("text message is registered", func(t *testing.T) {
		def, ok := registry.Lookup(KindTextMessage)
		require.True(t, ok)
		assert.Equal(t, "Text Message", def.Label)
		assert.Equal(t, "New message", def.DefaultContent().Text())
	})

	t.Run("parse drag payloads", func(t *testing.T) {
		kind, ok := registry.Parse("textMessage")
		assert.True(t, ok)
		assert.Equal(t, KindTextMessage, kind)

		_, ok = registry.Parse("")
		assert.False(t, ok)

		_, ok = registry.Parse("  ")
		assert.False(t, ok)

		_, ok = registry.Parse("imageMessage")
		assert.False(t, ok)
	})

	t.Run("emptiness falls back to blank text for unknown kinds", func(t *testing.T) {
		assert.True(t, registry.IsEmpty(KindTextMessage, NewTextContent(" ")))
		assert.False(t, registry.IsEmpty(KindTextMessage, NewTextContent("hi")))
		assert.True(t, registry.IsEmpty(NodeKind("legacy"), NewTextContent("")))
	})

	t.Run("custom kinds can override emptiness", func(t *testing.T) {
		custom := NewKindRegistry()
		custom.Register(KindDefinition{
			Kind:           NodeKind("handoff"),
			Label:          "Handoff",
			DefaultContent: func() NodeContent { return NewTextContent("") },
			IsEmpty:        func(NodeContent) bool { return false },
		})

		assert.False(t, custom.IsEmpty(NodeKind("handoff"), NewTextContent("")))
		assert.Len(t, custom.Definitions(), 1)
	})
}

func TestPosition(t *testing.T) {
	p := NewPosition(3, 4)
	assert.Equal(t, 5.0, p.DistanceTo(Position{}))
	assert.True(t, p.Equals(Position{X: 3, Y: 4}))
}
