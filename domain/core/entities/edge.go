package entities

import (
	"github.com/google/uuid"

	"flowbuilder/domain/core/valueobjects"
)

// Edge is a directed connection from one step of the flow to the next
type Edge struct {
	ID     string
	Source valueobjects.NodeID
	Target valueobjects.NodeID
}

// NewEdge creates an edge with a fresh identifier
func NewEdge(source, target valueobjects.NodeID) Edge {
	return Edge{
		ID:     "e-" + uuid.New().String(),
		Source: source,
		Target: target,
	}
}

// IsSelfLoop reports whether the edge points back at its source
func (e Edge) IsSelfLoop() bool {
	return e.Source.Equals(e.Target)
}

// Touches reports whether the node is either endpoint of the edge
func (e Edge) Touches(id valueobjects.NodeID) bool {
	return e.Source.Equals(id) || e.Target.Equals(id)
}
