package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/events"
)

func TestEventJournal_CapacityAndLimit(t *testing.T) {
	journal := NewEventJournal(3)
	ctx := context.Background()

	var evts []events.DomainEvent
	for i := 1; i <= 5; i++ {
		evts = append(evts, events.NewEdgeRemoved("flow", i, "e", valueobjects.MustNodeID("a"), valueobjects.MustNodeID("b"), time.Now()))
	}
	require.NoError(t, journal.Append(ctx, evts))
	require.NoError(t, journal.Append(ctx, []events.DomainEvent{
		events.NewFlowSaved("other", 1, "other", 0, 0, time.Now()),
	}))

	history, err := journal.History(ctx, "flow", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Version)
	assert.Equal(t, 5, history[2].Version)
	assert.Equal(t, events.TypeEdgeRemoved, history[0].EventType)
	assert.Equal(t, "e", history[0].Data["edge_id"])

	latest, err := journal.History(ctx, "flow", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 5, latest[0].Version)

	other, err := journal.History(ctx, "other", 0)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
