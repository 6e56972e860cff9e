package services

import (
	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/valueobjects"
)

// Diagnostic messages. All failures share the same prefix.
const (
	MessagePrefix            = "Cannot save Flow. "
	MessageConnectionAndText = MessagePrefix + "The highlighted nodes have connection and text issues."
	MessageConnection        = MessagePrefix + "The highlighted nodes are not connected properly."
	MessageText              = MessagePrefix + "The highlighted nodes have empty text messages."
)

// Verdict is the outcome of validating a flow
type Verdict struct {
	Valid bool
	// OffendingNodeIDs is the union of both issue classes in flow order,
	// each node listed once
	OffendingNodeIDs []valueobjects.NodeID
	Disconnected     []valueobjects.NodeID
	EmptyContent     []valueobjects.NodeID
	Message          string
}

// Issues returns the verdict as per-node issue classes
func (v Verdict) Issues() valueobjects.NodeIssues {
	issues := make(valueobjects.NodeIssues, len(v.OffendingNodeIDs))
	for _, id := range v.Disconnected {
		issues.Add(id, valueobjects.IssueDisconnected)
	}
	for _, id := range v.EmptyContent {
		issues.Add(id, valueobjects.IssueEmptyContent)
	}
	return issues
}

// IsOffending reports whether a node is in the offending set
func (v Verdict) IsOffending(id valueobjects.NodeID) bool {
	for _, off := range v.OffendingNodeIDs {
		if off.Equals(id) {
			return true
		}
	}
	return false
}

// FlowValidator checks that a flow is fit to be saved.
//
// A node other than the first one must have at least one incoming edge.
// This is a local check: a node fed only by another unreachable node still
// counts as connected. Every node must also have non-empty content, judged
// by its kind. Flows with zero or one node are always valid.
type FlowValidator struct {
	registry *valueobjects.KindRegistry
}

// NewFlowValidator creates a validator that judges emptiness through registry
func NewFlowValidator(registry *valueobjects.KindRegistry) *FlowValidator {
	if registry == nil {
		registry = valueobjects.NewKindRegistry()
	}
	return &FlowValidator{registry: registry}
}

// Validate inspects nodes, in creation order, and edges. It never mutates
// its inputs and returns a verdict for any input, cyclic graphs included.
func (v *FlowValidator) Validate(nodes []*entities.Node, edges []entities.Edge) Verdict {
	if len(nodes) <= 1 {
		return Verdict{Valid: true}
	}

	targets := make(map[valueobjects.NodeID]struct{}, len(edges))
	for _, edge := range edges {
		targets[edge.Target] = struct{}{}
	}

	var verdict Verdict
	seen := make(map[valueobjects.NodeID]struct{}, len(nodes))
	for i, node := range nodes {
		if node == nil {
			continue
		}
		id := node.ID()

		disconnected := false
		if i > 0 {
			_, hasIncoming := targets[id]
			disconnected = !hasIncoming
		}
		empty := v.registry.IsEmpty(node.Kind(), node.Content())

		if disconnected {
			verdict.Disconnected = append(verdict.Disconnected, id)
		}
		if empty {
			verdict.EmptyContent = append(verdict.EmptyContent, id)
		}
		if disconnected || empty {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				verdict.OffendingNodeIDs = append(verdict.OffendingNodeIDs, id)
			}
		}
	}

	switch {
	case len(verdict.Disconnected) > 0 && len(verdict.EmptyContent) > 0:
		verdict.Message = MessageConnectionAndText
	case len(verdict.Disconnected) > 0:
		verdict.Message = MessageConnection
	case len(verdict.EmptyContent) > 0:
		verdict.Message = MessageText
	default:
		verdict.Valid = true
	}
	return verdict
}
