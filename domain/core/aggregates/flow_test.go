package aggregates

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/events"
)

func newTestFlow(opts ...Option) *Flow {
	return NewFlow("chatbot-flow", valueobjects.DefaultKindRegistry("New message"), opts...)
}

func node(id, text string) *entities.Node {
	return entities.NewNode(
		valueobjects.MustNodeID(id),
		valueobjects.KindTextMessage,
		valueobjects.NewPosition(0, 0),
		valueobjects.NewTextContent(text),
		time.Now(),
	)
}

func edge(id, source, target string) entities.Edge {
	return entities.Edge{ID: id, Source: valueobjects.MustNodeID(source), Target: valueobjects.MustNodeID(target)}
}

func nid(id string) valueobjects.NodeID {
	return valueobjects.MustNodeID(id)
}

func issuesOf(pairs map[string][]valueobjects.IssueClass) func([]*entities.Node, []entities.Edge) valueobjects.NodeIssues {
	return func([]*entities.Node, []entities.Edge) valueobjects.NodeIssues {
		out := make(valueobjects.NodeIssues)
		for id, classes := range pairs {
			out[nid(id)] = classes
		}
		return out
	}
}

func TestFlow_AddNode(t *testing.T) {
	flow := newTestFlow()

	assert.True(t, flow.AddNode(node("A", "hi")))
	assert.True(t, flow.AddNode(node("B", "there")))
	assert.False(t, flow.AddNode(node("A", "again")), "duplicate ids are dropped")
	assert.False(t, flow.AddNode(nil))

	nodes := flow.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "A", nodes[0].ID().String())
	assert.Equal(t, "B", nodes[1].ID().String())
	assert.Equal(t, "hi", nodes[0].Content().Text())
	assert.Equal(t, 2, flow.Version())
}

func TestFlow_AddNodeRespectsLimit(t *testing.T) {
	flow := newTestFlow(WithLimits(1, 0))

	assert.True(t, flow.AddNode(node("A", "hi")))
	assert.False(t, flow.AddNode(node("B", "hi")))
	assert.Equal(t, 1, flow.NodeCount())
}

func TestFlow_NodesAreCopies(t *testing.T) {
	flow := newTestFlow()
	original := node("A", "hi")
	flow.AddNode(original)

	original.UpdateContent(valueobjects.TextPatch("changed outside"))
	got, ok := flow.Node(nid("A"))
	require.True(t, ok)
	assert.Equal(t, "hi", got.Content().Text())

	got.UpdateContent(valueobjects.TextPatch("changed copy"))
	again, _ := flow.Node(nid("A"))
	assert.Equal(t, "hi", again.Content().Text())
}

func TestFlow_UpdateNodeContent(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "hi"))

	t.Run("merges text", func(t *testing.T) {
		assert.True(t, flow.UpdateNodeContent(nid("A"), valueobjects.TextPatch("hello")))
		got, _ := flow.Node(nid("A"))
		assert.Equal(t, "hello", got.Content().Text())
	})

	t.Run("unknown id is a silent no-op", func(t *testing.T) {
		before := flow.Version()
		assert.False(t, flow.UpdateNodeContent(nid("missing"), valueobjects.TextPatch("x")))
		assert.Equal(t, before, flow.Version())
		assert.Equal(t, 1, flow.NodeCount())
	})
}

func TestFlow_AddEdge(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "hi"))
	flow.AddNode(node("B", "b"))
	flow.AddNode(node("C", "c"))

	assert.True(t, flow.AddEdge(edge("e1", "A", "B")))

	t.Run("second outgoing edge leaves the edge set unchanged", func(t *testing.T) {
		before := flow.Edges()
		assert.False(t, flow.AddEdge(edge("e2", "A", "C")))
		assert.Equal(t, before, flow.Edges())
	})

	t.Run("unknown endpoints are dropped", func(t *testing.T) {
		assert.False(t, flow.AddEdge(edge("e3", "B", "missing")))
		assert.False(t, flow.AddEdge(edge("e4", "missing", "B")))
	})

	t.Run("duplicate edge id is dropped", func(t *testing.T) {
		assert.False(t, flow.AddEdge(edge("e1", "B", "C")))
	})

	t.Run("many incoming edges are fine", func(t *testing.T) {
		assert.True(t, flow.AddEdge(edge("e5", "C", "B")))
		assert.Equal(t, 2, flow.EdgeCount())
	})

	out, ok := flow.OutgoingEdge(nid("A"))
	require.True(t, ok)
	assert.Equal(t, "e1", out.ID)
}

func TestFlow_AddEdgeRespectsLimit(t *testing.T) {
	flow := newTestFlow(WithLimits(0, 1))
	flow.AddNode(node("A", "a"))
	flow.AddNode(node("B", "b"))

	assert.True(t, flow.AddEdge(edge("e1", "A", "B")))
	assert.False(t, flow.AddEdge(edge("e2", "B", "A")))
}

func TestFlow_ErrorFlags(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "hi"))
	flow.AddNode(node("B", ""))
	flow.AddNode(node("C", "ok"))

	flow.Revalidate(issuesOf(map[string][]valueobjects.IssueClass{
		"B": {valueobjects.IssueDisconnected, valueobjects.IssueEmptyContent},
		"C": {valueobjects.IssueDisconnected},
		"Z": {valueobjects.IssueDisconnected},
	}))

	assert.Equal(t, []valueobjects.NodeID{nid("B"), nid("C")}, flow.FlaggedNodeIDs())
	assert.False(t, flow.HasError(nid("Z")), "flags for unknown nodes are ignored")

	t.Run("incoming edge resolves only the connection issue", func(t *testing.T) {
		require.True(t, flow.AddEdge(edge("e1", "A", "B")))
		assert.True(t, flow.HasError(nid("B")))
		assert.Equal(t, []valueobjects.IssueClass{valueobjects.IssueEmptyContent}, flow.IssuesOf(nid("B")))
	})

	t.Run("non-blank text resolves the content issue", func(t *testing.T) {
		flow.UpdateNodeContent(nid("B"), valueobjects.TextPatch("filled"))
		assert.False(t, flow.HasError(nid("B")))
	})

	t.Run("blank text does not resolve", func(t *testing.T) {
		flow.Revalidate(issuesOf(map[string][]valueobjects.IssueClass{
			"B": {valueobjects.IssueEmptyContent},
		}))
		flow.UpdateNodeContent(nid("B"), valueobjects.TextPatch("   "))
		assert.True(t, flow.HasError(nid("B")))
	})

	t.Run("clear error flag removes every issue", func(t *testing.T) {
		flow.ClearErrorFlag(nid("B"))
		assert.False(t, flow.HasError(nid("B")))
		assert.Empty(t, flow.FlaggedNodeIDs())
	})

	t.Run("revalidation replaces previous flags", func(t *testing.T) {
		flow.Revalidate(issuesOf(map[string][]valueobjects.IssueClass{"C": {valueobjects.IssueDisconnected}}))
		flow.Revalidate(issuesOf(nil))
		assert.Empty(t, flow.FlaggedNodeIDs())
	})
}

func TestFlow_MoveNode(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "hi"))
	flow.MarkEventsAsCommitted()

	assert.True(t, flow.MoveNode(nid("A"), valueobjects.NewPosition(10, 20)))
	assert.False(t, flow.MoveNode(nid("missing"), valueobjects.NewPosition(1, 1)))

	got, _ := flow.Node(nid("A"))
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, got.Position())

	evts := flow.GetUncommittedEvents()
	require.Len(t, evts, 1)
	moved, ok := evts[0].(events.NodeMoved)
	require.True(t, ok)
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, moved.NewPosition)
}

func TestFlow_RemoveNode(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "a"))
	flow.AddNode(node("B", "b"))
	flow.AddNode(node("C", "c"))
	flow.AddEdge(edge("e1", "A", "B"))
	flow.AddEdge(edge("e2", "B", "C"))
	flow.Revalidate(issuesOf(map[string][]valueobjects.IssueClass{"B": {valueobjects.IssueEmptyContent}}))

	assert.True(t, flow.RemoveNode(nid("B")))
	assert.False(t, flow.RemoveNode(nid("B")))

	assert.Equal(t, 2, flow.NodeCount())
	assert.Empty(t, flow.Edges())
	assert.False(t, flow.HasError(nid("B")))

	evts := flow.DrainEvents()
	removed, ok := evts[len(evts)-1].(events.NodeRemoved)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"e1", "e2"}, removed.RemovedEdgeIDs)

	assert.True(t, flow.AddEdge(edge("e3", "A", "C")), "A may connect again once its edge is gone")
}

func TestFlow_RemoveEdge(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "a"))
	flow.AddNode(node("B", "b"))
	flow.AddEdge(edge("e1", "A", "B"))

	assert.False(t, flow.RemoveEdge("missing"))
	assert.True(t, flow.RemoveEdge("e1"))
	assert.Zero(t, flow.EdgeCount())
}

func TestFlow_Events(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "a"))
	flow.AddNode(node("B", "b"))
	flow.AddEdge(edge("e1", "A", "B"))
	flow.AddEdge(edge("e2", "A", "B"))
	flow.UpdateNodeContent(nid("B"), valueobjects.TextPatch("b2"))
	flow.RecordSaved("chatbot-flow")

	var types []string
	for _, e := range flow.GetUncommittedEvents() {
		types = append(types, e.GetEventType())
		assert.Equal(t, "chatbot-flow", e.GetAggregateID())
	}
	assert.Equal(t, []string{
		events.TypeNodeAdded,
		events.TypeNodeAdded,
		events.TypeEdgeAdded,
		events.TypeNodeContentUpdated,
		events.TypeFlowSaved,
	}, types)

	flow.MarkEventsAsCommitted()
	assert.Empty(t, flow.GetUncommittedEvents())
}

func TestFlow_RecordValidationFailedOrdersIDs(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "a"))
	flow.AddNode(node("B", "b"))
	flow.AddNode(node("C", "c"))
	flow.MarkEventsAsCommitted()

	flow.RecordValidationFailed([]valueobjects.NodeID{nid("C"), nid("B")}, "nope")

	evts := flow.DrainEvents()
	require.Len(t, evts, 1)
	failed := evts[0].(events.ValidationFailed)
	assert.Equal(t, []valueobjects.NodeID{nid("B"), nid("C")}, failed.OffendingNodeIDs)
}

func TestFlow_Restore(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("old", "x"))
	flow.Revalidate(issuesOf(map[string][]valueobjects.IssueClass{"old": {valueobjects.IssueEmptyContent}}))

	dropped := flow.Restore(
		[]*entities.Node{node("A", "a"), node("B", "b"), node("A", "dup"), nil},
		[]entities.Edge{
			edge("e1", "A", "B"),
			edge("e2", "A", "B"),
			edge("e3", "B", "ghost"),
			edge("", "B", "A"),
		},
	)

	assert.Equal(t, 3, dropped)
	assert.Equal(t, 2, flow.NodeCount())
	assert.Equal(t, []entities.Edge{edge("e1", "A", "B")}, flow.Edges())
	assert.False(t, flow.HasNode(nid("old")))
	assert.Empty(t, flow.FlaggedNodeIDs())
	assert.Empty(t, flow.GetUncommittedEvents())
}

func TestFlow_ConcurrentConnectKeepsSingleOutgoingEdge(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "a"))
	targets := []string{"B", "C", "D", "E", "F", "G", "H", "I"}
	for _, id := range targets {
		flow.AddNode(node(id, id))
	}

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			flow.AddEdge(edge("e"+target, "A", target))
		}(target)
	}
	wg.Wait()

	assert.Equal(t, 1, flow.EdgeCount())
}

func TestFlow_InspectSeesConsistentCopy(t *testing.T) {
	flow := newTestFlow()
	flow.AddNode(node("A", "a"))
	flow.AddNode(node("B", "b"))
	flow.AddEdge(edge("e1", "A", "B"))

	flow.Inspect(func(nodes []*entities.Node, edges []entities.Edge) {
		assert.Len(t, nodes, 2)
		assert.Len(t, edges, 1)
		nodes[0].UpdateContent(valueobjects.TextPatch("mutated copy"))
	})

	got, _ := flow.Node(nid("A"))
	assert.Equal(t, "a", got.Content().Text())
}
