package entities

import (
	"sync"
	"time"

	"flowbuilder/domain/core/valueobjects"
)

// Clock returns the current time
type Clock func() time.Time

// NodeFactory mints nodes with identifiers of the form "<kind>-<n>".
// n is the creation time in milliseconds, bumped past the last issued value
// when two creations land in the same tick, so identifiers stay unique
// for the lifetime of the process.
type NodeFactory struct {
	mu       sync.Mutex
	registry *valueobjects.KindRegistry
	clock    Clock
	last     int64
}

// NewNodeFactory creates a factory backed by the given kind registry
func NewNodeFactory(registry *valueobjects.KindRegistry) *NodeFactory {
	return NewNodeFactoryWithClock(registry, time.Now)
}

// NewNodeFactoryWithClock creates a factory with an injectable clock
func NewNodeFactoryWithClock(registry *valueobjects.KindRegistry, clock Clock) *NodeFactory {
	if clock == nil {
		clock = time.Now
	}
	return &NodeFactory{
		registry: registry,
		clock:    clock,
	}
}

// CreateNode builds a node of the given kind with the kind's default content.
// Kinds missing from the registry get empty text content.
func (f *NodeFactory) CreateNode(kind valueobjects.NodeKind, position valueobjects.Position) *Node {
	now := f.clock()
	seq := f.next(now)

	content := valueobjects.NewTextContent("")
	if def, ok := f.registry.Lookup(kind); ok && def.DefaultContent != nil {
		content = def.DefaultContent()
	}

	return NewNode(valueobjects.NewNodeID(kind, seq), kind, position, content, now)
}

// CreateNodeWithContent builds a node with explicit content instead of the default
func (f *NodeFactory) CreateNodeWithContent(
	kind valueobjects.NodeKind,
	position valueobjects.Position,
	content valueobjects.NodeContent,
) *Node {
	now := f.clock()
	return NewNode(valueobjects.NewNodeID(kind, f.next(now)), kind, position, content, now)
}

// Reserve makes sure identifiers already in use, e.g. restored from a
// snapshot, are never issued again.
func (f *NodeFactory) Reserve(id valueobjects.NodeID) {
	seq, ok := id.Sequence()
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq > f.last {
		f.last = seq
	}
}

// Registry returns the kind registry the factory uses
func (f *NodeFactory) Registry() *valueobjects.KindRegistry {
	return f.registry
}

func (f *NodeFactory) next(now time.Time) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	seq := now.UnixMilli()
	if seq <= f.last {
		seq = f.last + 1
	}
	f.last = seq
	return seq
}
