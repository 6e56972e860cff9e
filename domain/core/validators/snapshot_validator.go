package validators

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/snapshot"
	"flowbuilder/pkg/errors"
)

// SnapshotValidator checks the structure of snapshots and raw node input
// before they reach the flow. It answers "can this be loaded", not "can
// this be saved"; the latter is the flow validator's job.
type SnapshotValidator struct {
	registry      *valueobjects.KindRegistry
	textMaxLength int
	maxNodes      int
	maxEdges      int
	strictKinds   bool
}

// SnapshotValidatorOption configures a SnapshotValidator
type SnapshotValidatorOption func(*SnapshotValidator)

// WithTextMaxLength caps node text length in runes
func WithTextMaxLength(n int) SnapshotValidatorOption {
	return func(v *SnapshotValidator) { v.textMaxLength = n }
}

// WithFlowLimits caps node and edge counts. Zero disables a cap.
func WithFlowLimits(maxNodes, maxEdges int) SnapshotValidatorOption {
	return func(v *SnapshotValidator) {
		v.maxNodes = maxNodes
		v.maxEdges = maxEdges
	}
}

// WithStrictKinds rejects node types missing from the registry
func WithStrictKinds() SnapshotValidatorOption {
	return func(v *SnapshotValidator) { v.strictKinds = true }
}

// NewSnapshotValidator creates a validator with default rules
func NewSnapshotValidator(registry *valueobjects.KindRegistry, opts ...SnapshotValidatorOption) *SnapshotValidator {
	v := &SnapshotValidator{
		registry:      registry,
		textMaxLength: 4096,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateText checks a single node text
func (v *SnapshotValidator) ValidateText(text string) error {
	if v.textMaxLength > 0 && utf8.RuneCountInString(text) > v.textMaxLength {
		return errors.ErrNodeTextTooLong.WithDetail("max_length", v.textMaxLength)
	}
	return nil
}

// ValidatePosition checks canvas coordinates
func (v *SnapshotValidator) ValidatePosition(x, y float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return errors.ErrInvalidNodePosition
	}
	return nil
}

// ValidateKind checks that a node type can be created
func (v *SnapshotValidator) ValidateKind(kind string) error {
	if strings.TrimSpace(kind) == "" {
		return errors.ErrUnknownNodeKind.WithDetail("type", kind)
	}
	if v.strictKinds && v.registry != nil {
		if _, ok := v.registry.Lookup(valueobjects.NodeKind(kind)); !ok {
			return errors.ErrUnknownNodeKind.WithDetail("type", kind)
		}
	}
	return nil
}

// Validate checks every record of a snapshot and reports all problems at once
func (v *SnapshotValidator) Validate(snap snapshot.Snapshot) error {
	validationErrors := errors.NewValidationErrors()

	if v.maxNodes > 0 && len(snap.Nodes) > v.maxNodes {
		validationErrors.AddFieldError("nodes", errors.ErrFlowLimitExceeded.WithDetail("limit", v.maxNodes))
	}
	if v.maxEdges > 0 && len(snap.Edges) > v.maxEdges {
		validationErrors.AddFieldError("edges", errors.ErrFlowLimitExceeded.WithDetail("limit", v.maxEdges))
	}

	nodeIDs := make(map[string]struct{}, len(snap.Nodes))
	for i, node := range snap.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)

		if strings.TrimSpace(node.ID) == "" {
			validationErrors.AddFieldError(field+".id", errors.ErrNodeIDRequired)
		} else if _, dup := nodeIDs[node.ID]; dup {
			validationErrors.AddFieldError(field+".id", errors.ErrDuplicateNodeID.WithDetail("id", node.ID))
		} else {
			nodeIDs[node.ID] = struct{}{}
		}

		if err := v.ValidateKind(node.Type); err != nil {
			validationErrors.AddFieldError(field+".type", err.(*errors.DomainError))
		}
		if err := v.ValidatePosition(node.Position.X, node.Position.Y); err != nil {
			validationErrors.AddFieldError(field+".position", err.(*errors.DomainError))
		}
		if err := v.ValidateText(node.Data.Text); err != nil {
			validationErrors.AddFieldError(field+".data.text", err.(*errors.DomainError))
		}
	}

	edgeIDs := make(map[string]struct{}, len(snap.Edges))
	sources := make(map[string]string, len(snap.Edges))
	for i, edge := range snap.Edges {
		field := fmt.Sprintf("edges[%d]", i)

		if strings.TrimSpace(edge.ID) == "" {
			validationErrors.Add(field+".id", "Edge id is required")
		} else if _, dup := edgeIDs[edge.ID]; dup {
			validationErrors.AddFieldError(field+".id", errors.ErrDuplicateEdgeID.WithDetail("id", edge.ID))
		} else {
			edgeIDs[edge.ID] = struct{}{}
		}

		if _, ok := nodeIDs[edge.Source]; !ok {
			validationErrors.AddFieldError(field+".source", errors.ErrDanglingEdge.WithDetail("node", edge.Source))
		}
		if _, ok := nodeIDs[edge.Target]; !ok {
			validationErrors.AddFieldError(field+".target", errors.ErrDanglingEdge.WithDetail("node", edge.Target))
		}

		if first, taken := sources[edge.Source]; taken {
			validationErrors.AddFieldError(field+".source", errors.ErrMultipleOutgoingEdges.
				WithDetail("node", edge.Source).
				WithDetail("first_edge", first))
		} else {
			sources[edge.Source] = edge.ID
		}
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}
