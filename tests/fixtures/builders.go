package fixtures

import (
	"fmt"
	"time"

	"flowbuilder/domain/core/aggregates"
	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/valueobjects"
)

// NodeBuilder helps create test nodes with default values
type NodeBuilder struct {
	id   string
	kind valueobjects.NodeKind
	text string
	x, y float64
}

func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		id:   fmt.Sprintf("textMessage-%d", time.Now().UnixNano()),
		kind: valueobjects.KindTextMessage,
		text: "Test message",
	}
}

func (b *NodeBuilder) WithID(id string) *NodeBuilder {
	b.id = id
	return b
}

func (b *NodeBuilder) WithKind(kind valueobjects.NodeKind) *NodeBuilder {
	b.kind = kind
	return b
}

func (b *NodeBuilder) WithText(text string) *NodeBuilder {
	b.text = text
	return b
}

func (b *NodeBuilder) WithPosition(x, y float64) *NodeBuilder {
	b.x, b.y = x, y
	return b
}

func (b *NodeBuilder) Build() (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(b.id)
	if err != nil {
		return nil, err
	}
	return entities.NewNode(
		id,
		b.kind,
		valueobjects.NewPosition(b.x, b.y),
		valueobjects.NewTextContent(b.text),
		time.Now(),
	), nil
}

func (b *NodeBuilder) MustBuild() *entities.Node {
	node, err := b.Build()
	if err != nil {
		panic(err)
	}
	return node
}

// FlowBuilder helps create test flows
type FlowBuilder struct {
	id       string
	registry *valueobjects.KindRegistry
	nodes    []*entities.Node
	edges    [][2]string
}

func NewFlowBuilder() *FlowBuilder {
	return &FlowBuilder{
		id:       "chatbot-flow",
		registry: valueobjects.DefaultKindRegistry("New message"),
	}
}

func (b *FlowBuilder) WithID(id string) *FlowBuilder {
	b.id = id
	return b
}

// WithTextNode adds a text node; the first one added is the entry node
func (b *FlowBuilder) WithTextNode(id, text string) *FlowBuilder {
	b.nodes = append(b.nodes, NewNodeBuilder().WithID(id).WithText(text).MustBuild())
	return b
}

func (b *FlowBuilder) WithNodes(nodes ...*entities.Node) *FlowBuilder {
	b.nodes = append(b.nodes, nodes...)
	return b
}

// WithEdge connects two nodes; the edge id is "<source>-><target>"
func (b *FlowBuilder) WithEdge(source, target string) *FlowBuilder {
	b.edges = append(b.edges, [2]string{source, target})
	return b
}

func (b *FlowBuilder) Build() (*aggregates.Flow, error) {
	flow := aggregates.NewFlow(b.id, b.registry)
	for _, node := range b.nodes {
		if !flow.AddNode(node) {
			return nil, fmt.Errorf("node %s rejected", node.ID())
		}
	}
	for _, e := range b.edges {
		edge := Edge(e[0], e[1])
		if !flow.AddEdge(edge) {
			return nil, fmt.Errorf("edge %s rejected", edge.ID)
		}
	}
	// Mark build events as committed so tests don't see them
	flow.MarkEventsAsCommitted()
	return flow, nil
}

func (b *FlowBuilder) MustBuild() *aggregates.Flow {
	flow, err := b.Build()
	if err != nil {
		panic(err)
	}
	return flow
}

// Edge builds an edge with the id "<source>-><target>"
func Edge(source, target string) entities.Edge {
	return entities.Edge{
		ID:     source + "->" + target,
		Source: valueobjects.MustNodeID(source),
		Target: valueobjects.MustNodeID(target),
	}
}
