package entities

import (
	"time"

	"flowbuilder/domain/core/valueobjects"
)

// Node is a single step of a conversational flow.
// The identifier and kind are fixed at creation; position and content are mutable.
type Node struct {
	id        valueobjects.NodeID
	kind      valueobjects.NodeKind
	position  valueobjects.Position
	content   valueobjects.NodeContent
	createdAt time.Time
	updatedAt time.Time
}

// NewNode creates a node from its parts. Callers outside the factory use
// this only to rebuild nodes from a stored snapshot.
func NewNode(
	id valueobjects.NodeID,
	kind valueobjects.NodeKind,
	position valueobjects.Position,
	content valueobjects.NodeContent,
	createdAt time.Time,
) *Node {
	return &Node{
		id:        id,
		kind:      kind,
		position:  position,
		content:   content,
		createdAt: createdAt,
		updatedAt: createdAt,
	}
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Kind returns the node's kind tag
func (n *Node) Kind() valueobjects.NodeKind {
	return n.kind
}

// Position returns the node's position
func (n *Node) Position() valueobjects.Position {
	return n.position
}

// Content returns the node's content
func (n *Node) Content() valueobjects.NodeContent {
	return n.content
}

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node was last changed
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// UpdateContent merges a patch into the content and returns the previous value.
// The second result is false when the patch changed nothing.
func (n *Node) UpdateContent(patch valueobjects.ContentPatch) (valueobjects.NodeContent, bool) {
	old := n.content
	merged := old.Merge(patch)
	if merged.Equals(old) {
		return old, false
	}
	n.content = merged
	n.updatedAt = time.Now()
	return old, true
}

// MoveTo changes the node's position and returns the previous one
func (n *Node) MoveTo(position valueobjects.Position) valueobjects.Position {
	old := n.position
	n.position = position
	n.updatedAt = time.Now()
	return old
}

// Clone returns a detached copy of the node
func (n *Node) Clone() *Node {
	clone := *n
	return &clone
}
