package validators

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/snapshot"
	"flowbuilder/pkg/errors"
)

func record(id, kind, text string) snapshot.NodeRecord {
	return snapshot.NodeRecord{ID: id, Type: kind, Data: snapshot.DataRecord{Text: text}}
}

func TestSnapshotValidator_Validate(t *testing.T) {
	registry := valueobjects.DefaultKindRegistry("New message")

	tests := []struct {
		name       string
		opts       []SnapshotValidatorOption
		snap       snapshot.Snapshot
		wantFields []string
	}{
		{
			name: "valid snapshot",
			snap: snapshot.Snapshot{
				Nodes: []snapshot.NodeRecord{record("a", "textMessage", "hi"), record("b", "textMessage", "")},
				Edges: []snapshot.EdgeRecord{{ID: "e1", Source: "a", Target: "b"}},
			},
		},
		{
			name: "empty snapshot",
			snap: snapshot.Snapshot{},
		},
		{
			name: "duplicate and blank node ids",
			snap: snapshot.Snapshot{
				Nodes: []snapshot.NodeRecord{record("a", "textMessage", ""), record("a", "textMessage", ""), record(" ", "textMessage", "")},
			},
			wantFields: []string{"nodes[1].id", "nodes[2].id"},
		},
		{
			name: "dangling edge and second outgoing edge",
			snap: snapshot.Snapshot{
				Nodes: []snapshot.NodeRecord{record("a", "textMessage", ""), record("b", "textMessage", "")},
				Edges: []snapshot.EdgeRecord{
					{ID: "e1", Source: "a", Target: "b"},
					{ID: "e2", Source: "a", Target: "ghost"},
					{ID: "e1", Source: "b", Target: "a"},
				},
			},
			wantFields: []string{"edges[1].target", "edges[1].source", "edges[2].id"},
		},
		{
			name: "unknown kind only rejected when strict",
			opts: []SnapshotValidatorOption{WithStrictKinds()},
			snap: snapshot.Snapshot{
				Nodes: []snapshot.NodeRecord{record("a", "imageMessage", "x"), record("b", "", "x")},
			},
			wantFields: []string{"nodes[0].type", "nodes[1].type"},
		},
		{
			name: "text too long",
			opts: []SnapshotValidatorOption{WithTextMaxLength(3)},
			snap: snapshot.Snapshot{
				Nodes: []snapshot.NodeRecord{record("a", "textMessage", "four")},
			},
			wantFields: []string{"nodes[0].data.text"},
		},
		{
			name: "limits",
			opts: []SnapshotValidatorOption{WithFlowLimits(1, 1)},
			snap: snapshot.Snapshot{
				Nodes: []snapshot.NodeRecord{record("a", "textMessage", ""), record("b", "textMessage", "")},
			},
			wantFields: []string{"nodes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSnapshotValidator(registry, tt.opts...).Validate(tt.snap)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var verrs *errors.ValidationErrors
			require.ErrorAs(t, err, &verrs)

			fields := verrs.ToMap()
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
			assert.Len(t, fields, len(tt.wantFields))
		})
	}
}

func TestSnapshotValidator_LenientKinds(t *testing.T) {
	v := NewSnapshotValidator(valueobjects.DefaultKindRegistry("x"))
	assert.NoError(t, v.ValidateKind("imageMessage"))
	assert.Error(t, v.ValidateKind(""))
}

func TestSnapshotValidator_ValidatePosition(t *testing.T) {
	v := NewSnapshotValidator(nil)

	assert.NoError(t, v.ValidatePosition(-10, 1e9))
	assert.Error(t, v.ValidatePosition(math.NaN(), 0))
	assert.Error(t, v.ValidatePosition(0, math.Inf(-1)))
}

func TestSnapshotValidator_ErrorsConvertToAppError(t *testing.T) {
	v := NewSnapshotValidator(nil, WithTextMaxLength(1))
	err := v.Validate(snapshot.Snapshot{Nodes: []snapshot.NodeRecord{record("a", "textMessage", strings.Repeat("x", 2))}})

	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, 400, appErr.HTTPStatus)
}
