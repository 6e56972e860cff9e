package entities

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowbuilder/domain/core/valueobjects"
)

func frozenClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestNodeFactory_CreateNode(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	factory := NewNodeFactoryWithClock(valueobjects.DefaultKindRegistry("New message"), frozenClock(now))

	node := factory.CreateNode(valueobjects.KindTextMessage, valueobjects.NewPosition(10, 20))

	assert.Equal(t, "textMessage-1700000000000", node.ID().String())
	assert.Equal(t, valueobjects.KindTextMessage, node.Kind())
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, node.Position())
	assert.Equal(t, "New message", node.Content().Text())
	assert.Equal(t, now, node.CreatedAt())
}

func TestNodeFactory_UniqueWithinSameTick(t *testing.T) {
	factory := NewNodeFactoryWithClock(
		valueobjects.DefaultKindRegistry("New message"),
		frozenClock(time.UnixMilli(5000)),
	)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := factory.CreateNode(valueobjects.KindTextMessage, valueobjects.Position{}).ID().String()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	assert.True(t, seen["textMessage-5000"])
	assert.True(t, seen["textMessage-5999"])
}

func TestNodeFactory_ClockGoingBackwards(t *testing.T) {
	ticks := []int64{9000, 8000, 8500}
	i := 0
	clock := func() time.Time {
		now := time.UnixMilli(ticks[i])
		i++
		return now
	}
	factory := NewNodeFactoryWithClock(valueobjects.DefaultKindRegistry("x"), clock)

	var ids []string
	for range ticks {
		ids = append(ids, factory.CreateNode(valueobjects.KindTextMessage, valueobjects.Position{}).ID().String())
	}

	assert.Equal(t, []string{"textMessage-9000", "textMessage-9001", "textMessage-9002"}, ids)
}

func TestNodeFactory_Concurrent(t *testing.T) {
	factory := NewNodeFactory(valueobjects.DefaultKindRegistry("New message"))

	const workers, perWorker = 8, 200
	ids := make(chan string, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- factory.CreateNode(valueobjects.KindTextMessage, valueobjects.Position{}).ID().String()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestNodeFactory_Reserve(t *testing.T) {
	factory := NewNodeFactoryWithClock(valueobjects.DefaultKindRegistry("x"), frozenClock(time.UnixMilli(100)))

	factory.Reserve(valueobjects.MustNodeID("textMessage-500"))
	factory.Reserve(valueobjects.MustNodeID("not-a-sequence"))
	factory.Reserve(valueobjects.MustNodeID("textMessage-200"))

	node := factory.CreateNode(valueobjects.KindTextMessage, valueobjects.Position{})
	assert.Equal(t, "textMessage-501", node.ID().String())
}

func TestNodeFactory_UnknownKind(t *testing.T) {
	factory := NewNodeFactory(valueobjects.NewKindRegistry())

	node := factory.CreateNode(valueobjects.NodeKind("mystery"), valueobjects.Position{})

	assert.Equal(t, valueobjects.NodeKind("mystery"), node.Kind())
	assert.True(t, node.Content().IsBlank())
}

func TestNode_UpdateContent(t *testing.T) {
	node := NewNode(
		valueobjects.MustNodeID("textMessage-1"),
		valueobjects.KindTextMessage,
		valueobjects.Position{},
		valueobjects.NewTextContent("hi"),
		time.Now(),
	)

	old, changed := node.UpdateContent(valueobjects.TextPatch("hello"))
	assert.True(t, changed)
	assert.Equal(t, "hi", old.Text())
	assert.Equal(t, "hello", node.Content().Text())

	_, changed = node.UpdateContent(valueobjects.TextPatch("hello"))
	assert.False(t, changed)

	_, changed = node.UpdateContent(valueobjects.ContentPatch{})
	assert.False(t, changed)
}

func TestEdge(t *testing.T) {
	a := valueobjects.MustNodeID("a")
	b := valueobjects.MustNodeID("b")

	edge := NewEdge(a, b)
	assert.NotEmpty(t, edge.ID)
	assert.NotEqual(t, edge.ID, NewEdge(a, b).ID)
	assert.True(t, edge.Touches(a))
	assert.True(t, edge.Touches(b))
	assert.False(t, edge.IsSelfLoop())
	assert.True(t, NewEdge(a, a).IsSelfLoop())
}
