package policy

import "flowbuilder/domain/core/entities"

// ConnectionPolicy decides whether a proposed edge may join the flow.
// Implementations are pure predicates and must not mutate their inputs.
type ConnectionPolicy interface {
	CanConnect(existing []entities.Edge, proposed entities.Edge) bool
}

// SingleOutgoingPolicy allows at most one outgoing edge per node.
// Self-loops and repeated targets are not restricted.
type SingleOutgoingPolicy struct{}

// NewSingleOutgoingPolicy creates the default connection policy
func NewSingleOutgoingPolicy() SingleOutgoingPolicy {
	return SingleOutgoingPolicy{}
}

// CanConnect returns false when the proposed source already has an outgoing edge
func (SingleOutgoingPolicy) CanConnect(existing []entities.Edge, proposed entities.Edge) bool {
	for _, edge := range existing {
		if edge.Source.Equals(proposed.Source) {
			return false
		}
	}
	return true
}

// Func adapts a plain function to ConnectionPolicy
type Func func(existing []entities.Edge, proposed entities.Edge) bool

// CanConnect calls f
func (f Func) CanConnect(existing []entities.Edge, proposed entities.Edge) bool {
	return f(existing, proposed)
}
