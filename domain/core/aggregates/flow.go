package aggregates

import (
	"sort"
	"sync"
	"time"

	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/policy"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/events"
)

// Flow is the aggregate root of a conversational flow and the only place
// its nodes and edges are mutated. Every method holds the aggregate lock
// for its whole check-then-act sequence, so no caller can observe a
// half-applied mutation.
//
// Rejected mutations (unknown ids, policy violations) are silent: the
// boolean results exist for callers that want to know, never as errors.
type Flow struct {
	mu sync.RWMutex

	id       string
	policy   policy.ConnectionPolicy
	registry *valueobjects.KindRegistry
	maxNodes int
	maxEdges int

	order  []valueobjects.NodeID
	nodes  map[valueobjects.NodeID]*entities.Node
	edges  []entities.Edge
	issues valueobjects.NodeIssues

	updatedAt time.Time
	version   int
	events    []events.DomainEvent
}

// Option configures a Flow
type Option func(*Flow)

// WithLimits caps the number of nodes and edges. Zero means unlimited.
func WithLimits(maxNodes, maxEdges int) Option {
	return func(f *Flow) {
		f.maxNodes = maxNodes
		f.maxEdges = maxEdges
	}
}

// WithConnectionPolicy overrides the single-outgoing-edge policy
func WithConnectionPolicy(p policy.ConnectionPolicy) Option {
	return func(f *Flow) {
		f.policy = p
	}
}

// NewFlow creates an empty flow
func NewFlow(id string, registry *valueobjects.KindRegistry, opts ...Option) *Flow {
	if registry == nil {
		registry = valueobjects.NewKindRegistry()
	}

	f := &Flow{
		id:        id,
		policy:    policy.NewSingleOutgoingPolicy(),
		registry:  registry,
		nodes:     make(map[valueobjects.NodeID]*entities.Node),
		issues:    make(valueobjects.NodeIssues),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ID returns the flow identifier
func (f *Flow) ID() string {
	return f.id
}

// Version increases with every applied mutation
func (f *Flow) Version() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// UpdatedAt returns the time of the last applied mutation
func (f *Flow) UpdatedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.updatedAt
}

// AddNode appends a node. Nodes with an identifier already in the flow,
// or beyond the node limit, are dropped.
func (f *Flow) AddNode(node *entities.Node) bool {
	if node == nil || node.ID().IsZero() {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.nodes[node.ID()]; exists {
		return false
	}
	if f.maxNodes > 0 && len(f.order) >= f.maxNodes {
		return false
	}

	stored := node.Clone()
	f.nodes[stored.ID()] = stored
	f.order = append(f.order, stored.ID())

	f.touch()
	f.addEvent(events.NewNodeAdded(
		f.id, f.version, stored.ID(), stored.Kind(), stored.Position(), stored.Content().Text(), f.updatedAt,
	))
	return true
}

// UpdateNodeContent merges a patch into a node's content.
// Unknown ids are ignored. When the new content is no longer empty the
// node's empty-content flag is resolved.
func (f *Flow) UpdateNodeContent(id valueobjects.NodeID, patch valueobjects.ContentPatch) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.nodes[id]
	if !ok {
		return false
	}

	old, changed := node.UpdateContent(patch)
	if !f.registry.IsEmpty(node.Kind(), node.Content()) {
		f.resolve(id, valueobjects.IssueEmptyContent)
	}
	if !changed {
		return true
	}

	f.touch()
	f.addEvent(events.NewNodeContentUpdated(
		f.id, f.version, id, old.Text(), node.Content().Text(), f.updatedAt,
	))
	return true
}

// MoveNode changes a node's position. Unknown ids are ignored.
func (f *Flow) MoveNode(id valueobjects.NodeID, position valueobjects.Position) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.nodes[id]
	if !ok {
		return false
	}
	if node.Position().Equals(position) {
		return true
	}

	old := node.MoveTo(position)
	f.touch()
	f.addEvent(events.NewNodeMoved(f.id, f.version, id, old, position, f.updatedAt))
	return true
}

// RemoveNode deletes a node together with its incident edges and flags
func (f *Flow) RemoveNode(id valueobjects.NodeID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.nodes[id]; !ok {
		return false
	}

	delete(f.nodes, id)
	delete(f.issues, id)
	for i, nid := range f.order {
		if nid.Equals(id) {
			f.order = append(f.order[:i:i], f.order[i+1:]...)
			break
		}
	}

	var removed []string
	kept := f.edges[:0:0]
	for _, edge := range f.edges {
		if edge.Touches(id) {
			removed = append(removed, edge.ID)
			continue
		}
		kept = append(kept, edge)
	}
	f.edges = kept

	f.touch()
	f.addEvent(events.NewNodeRemoved(f.id, f.version, id, removed, f.updatedAt))
	return true
}

// AddEdge adds a connection if both endpoints exist and the connection
// policy accepts it. A rejected edge leaves the flow untouched. An accepted
// edge resolves the target's disconnected flag.
func (f *Flow) AddEdge(proposed entities.Edge) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if proposed.ID == "" {
		return false
	}
	if _, ok := f.nodes[proposed.Source]; !ok {
		return false
	}
	if _, ok := f.nodes[proposed.Target]; !ok {
		return false
	}
	if f.maxEdges > 0 && len(f.edges) >= f.maxEdges {
		return false
	}
	for _, edge := range f.edges {
		if edge.ID == proposed.ID {
			return false
		}
	}
	if !f.policy.CanConnect(f.edges, proposed) {
		return false
	}

	f.edges = append(f.edges, proposed)
	f.resolve(proposed.Target, valueobjects.IssueDisconnected)

	f.touch()
	f.addEvent(events.NewEdgeAdded(f.id, f.version, proposed.ID, proposed.Source, proposed.Target, f.updatedAt))
	return true
}

// RemoveEdge deletes an edge by id. Unknown ids are ignored.
func (f *Flow) RemoveEdge(edgeID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, edge := range f.edges {
		if edge.ID != edgeID {
			continue
		}
		f.edges = append(f.edges[:i:i], f.edges[i+1:]...)
		f.touch()
		f.addEvent(events.NewEdgeRemoved(f.id, f.version, edge.ID, edge.Source, edge.Target, f.updatedAt))
		return true
	}
	return false
}

// ClearErrorFlag unflags a node regardless of which issues it carried
func (f *Flow) ClearErrorFlag(id valueobjects.NodeID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.issues, id)
}

// ClearAllErrorFlags unflags every node
func (f *Flow) ClearAllErrorFlags() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues = make(valueobjects.NodeIssues)
}

// HasError reports whether the node is flagged by the last validation
// and has not been locally resolved since
func (f *Flow) HasError(id valueobjects.NodeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.issues[id]) > 0
}

// IssuesOf returns the open issues of a node
func (f *Flow) IssuesOf(id valueobjects.NodeID) []valueobjects.IssueClass {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]valueobjects.IssueClass(nil), f.issues[id]...)
}

// FlaggedNodeIDs lists flagged nodes in flow order
func (f *Flow) FlaggedNodeIDs() []valueobjects.NodeID {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var flagged []valueobjects.NodeID
	for _, id := range f.order {
		if len(f.issues[id]) > 0 {
			flagged = append(flagged, id)
		}
	}
	return flagged
}

// Revalidate runs check against a consistent copy of the flow and replaces
// the error flags with the issues it reports, all under one lock. Issues for
// ids that are not in the flow are ignored.
func (f *Flow) Revalidate(check func(nodes []*entities.Node, edges []entities.Edge) valueobjects.NodeIssues) {
	f.mu.Lock()
	defer f.mu.Unlock()

	found := check(f.cloneNodes(), f.cloneEdges())

	issues := make(valueobjects.NodeIssues, len(found))
	for id, classes := range found {
		if _, ok := f.nodes[id]; !ok || len(classes) == 0 {
			continue
		}
		issues[id] = append([]valueobjects.IssueClass(nil), classes...)
	}
	f.issues = issues
}

// Inspect hands a consistent copy of the flow to fn without changing anything
func (f *Flow) Inspect(fn func(nodes []*entities.Node, edges []entities.Edge)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn(f.cloneNodes(), f.cloneEdges())
}

// Nodes returns copies of the nodes in creation order
func (f *Flow) Nodes() []*entities.Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cloneNodes()
}

// Edges returns a copy of the edges in insertion order
func (f *Flow) Edges() []entities.Edge {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cloneEdges()
}

// Node returns a copy of a single node
func (f *Flow) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	node, ok := f.nodes[id]
	if !ok {
		return nil, false
	}
	return node.Clone(), true
}

// HasNode reports whether the node exists
func (f *Flow) HasNode(id valueobjects.NodeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.nodes[id]
	return ok
}

// OutgoingEdge returns the single edge leaving a node, if any
func (f *Flow) OutgoingEdge(id valueobjects.NodeID) (entities.Edge, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, edge := range f.edges {
		if edge.Source.Equals(id) {
			return edge, true
		}
	}
	return entities.Edge{}, false
}

// NodeCount returns the number of nodes
func (f *Flow) NodeCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}

// EdgeCount returns the number of edges
func (f *Flow) EdgeCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.edges)
}

// Restore replaces the whole flow with previously saved nodes and edges.
// Edges are replayed through the same endpoint and policy checks as
// AddEdge, so a tampered snapshot cannot break the one-outgoing-edge rule.
// Flags and pending events are discarded.
func (f *Flow) Restore(nodes []*entities.Node, edges []entities.Edge) (droppedEdges int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.order = nil
	f.nodes = make(map[valueobjects.NodeID]*entities.Node, len(nodes))
	f.edges = nil
	f.issues = make(valueobjects.NodeIssues)
	f.events = nil

	for _, node := range nodes {
		if node == nil || node.ID().IsZero() {
			continue
		}
		if _, dup := f.nodes[node.ID()]; dup {
			continue
		}
		f.nodes[node.ID()] = node.Clone()
		f.order = append(f.order, node.ID())
	}

	seen := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		_, srcOK := f.nodes[edge.Source]
		_, dstOK := f.nodes[edge.Target]
		_, dup := seen[edge.ID]
		if edge.ID == "" || !srcOK || !dstOK || dup || !f.policy.CanConnect(f.edges, edge) {
			droppedEdges++
			continue
		}
		seen[edge.ID] = struct{}{}
		f.edges = append(f.edges, edge)
	}

	f.touch()
	return droppedEdges
}

// RecordSaved notes that the current state was persisted under key
func (f *Flow) RecordSaved(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addEvent(events.NewFlowSaved(f.id, f.version, key, len(f.order), len(f.edges), time.Now()))
}

// RecordValidationFailed notes that a save was refused
func (f *Flow) RecordValidationFailed(offending []valueobjects.NodeID, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := append([]valueobjects.NodeID(nil), offending...)
	sort.SliceStable(ids, func(i, j int) bool { return f.position(ids[i]) < f.position(ids[j]) })
	f.addEvent(events.NewValidationFailed(f.id, f.version, ids, message, time.Now()))
}

// GetUncommittedEvents returns events raised since the last commit
func (f *Flow) GetUncommittedEvents() []events.DomainEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]events.DomainEvent(nil), f.events...)
}

// MarkEventsAsCommitted clears the pending events
func (f *Flow) MarkEventsAsCommitted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// DrainEvents returns pending events and clears them in one step
func (f *Flow) DrainEvents() []events.DomainEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	drained := f.events
	f.events = nil
	return drained
}

// resolve removes one issue class from a node and unflags it when nothing is left
func (f *Flow) resolve(id valueobjects.NodeID, class valueobjects.IssueClass) {
	classes, ok := f.issues[id]
	if !ok {
		return
	}

	remaining := classes[:0:0]
	for _, c := range classes {
		if c != class {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		delete(f.issues, id)
		return
	}
	f.issues[id] = remaining
}

func (f *Flow) position(id valueobjects.NodeID) int {
	for i, nid := range f.order {
		if nid.Equals(id) {
			return i
		}
	}
	return len(f.order)
}

func (f *Flow) cloneNodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(f.order))
	for _, id := range f.order {
		nodes = append(nodes, f.nodes[id].Clone())
	}
	return nodes
}

func (f *Flow) cloneEdges() []entities.Edge {
	return append([]entities.Edge(nil), f.edges...)
}

func (f *Flow) touch() {
	f.version++
	f.updatedAt = time.Now()
}

func (f *Flow) addEvent(event events.DomainEvent) {
	f.events = append(f.events, event)
}
