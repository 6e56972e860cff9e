package events

import (
	"time"

	"flowbuilder/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event type names
const (
	TypeNodeAdded          = "flow.node_added"
	TypeNodeMoved          = "flow.node_moved"
	TypeNodeContentUpdated = "flow.node_content_updated"
	TypeNodeRemoved        = "flow.node_removed"
	TypeEdgeAdded          = "flow.edge_added"
	TypeEdgeRemoved        = "flow.edge_removed"
	TypeFlowSaved          = "flow.saved"
	TypeValidationFailed   = "flow.validation_failed"
)

func newBase(flowID, eventType string, version int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: flowID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     version,
	}
}

// Node Events

// NodeAdded is raised when a node joins the flow
type NodeAdded struct {
	BaseEvent
	NodeID   valueobjects.NodeID   `json:"node_id"`
	Kind     string                `json:"kind"`
	Position valueobjects.Position `json:"position"`
	Text     string                `json:"text"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(flowID string, version int, nodeID valueobjects.NodeID, kind valueobjects.NodeKind, pos valueobjects.Position, text string, timestamp time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: newBase(flowID, TypeNodeAdded, version, timestamp),
		NodeID:    nodeID,
		Kind:      kind.String(),
		Position:  pos,
		Text:      text,
	}
}

// NodeMoved is raised when a node is moved to a new position
type NodeMoved struct {
	BaseEvent
	NodeID      valueobjects.NodeID   `json:"node_id"`
	OldPosition valueobjects.Position `json:"old_position"`
	NewPosition valueobjects.Position `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(flowID string, version int, nodeID valueobjects.NodeID, oldPos, newPos valueobjects.Position, timestamp time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent:   newBase(flowID, TypeNodeMoved, version, timestamp),
		NodeID:      nodeID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}

// NodeContentUpdated is raised when node content is updated
type NodeContentUpdated struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"node_id"`
	OldText string              `json:"old_text"`
	NewText string              `json:"new_text"`
}

// NewNodeContentUpdated creates a NodeContentUpdated event
func NewNodeContentUpdated(flowID string, version int, nodeID valueobjects.NodeID, oldText, newText string, timestamp time.Time) NodeContentUpdated {
	return NodeContentUpdated{
		BaseEvent: newBase(flowID, TypeNodeContentUpdated, version, timestamp),
		NodeID:    nodeID,
		OldText:   oldText,
		NewText:   newText,
	}
}

// NodeRemoved is raised when a node and its incident edges leave the flow
type NodeRemoved struct {
	BaseEvent
	NodeID         valueobjects.NodeID `json:"node_id"`
	RemovedEdgeIDs []string            `json:"removed_edge_ids"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(flowID string, version int, nodeID valueobjects.NodeID, removedEdges []string, timestamp time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent:      newBase(flowID, TypeNodeRemoved, version, timestamp),
		NodeID:         nodeID,
		RemovedEdgeIDs: removedEdges,
	}
}

// Edge Events

// EdgeAdded is raised when two nodes are connected
type EdgeAdded struct {
	BaseEvent
	EdgeID   string              `json:"edge_id"`
	SourceID valueobjects.NodeID `json:"source_id"`
	TargetID valueobjects.NodeID `json:"target_id"`
}

// NewEdgeAdded creates an EdgeAdded event
func NewEdgeAdded(flowID string, version int, edgeID string, sourceID, targetID valueobjects.NodeID, timestamp time.Time) EdgeAdded {
	return EdgeAdded{
		BaseEvent: newBase(flowID, TypeEdgeAdded, version, timestamp),
		EdgeID:    edgeID,
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// EdgeRemoved is raised when an edge is deleted
type EdgeRemoved struct {
	BaseEvent
	EdgeID   string              `json:"edge_id"`
	SourceID valueobjects.NodeID `json:"source_id"`
	TargetID valueobjects.NodeID `json:"target_id"`
}

// NewEdgeRemoved creates an EdgeRemoved event
func NewEdgeRemoved(flowID string, version int, edgeID string, sourceID, targetID valueobjects.NodeID, timestamp time.Time) EdgeRemoved {
	return EdgeRemoved{
		BaseEvent: newBase(flowID, TypeEdgeRemoved, version, timestamp),
		EdgeID:    edgeID,
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// Flow Events

// FlowSaved is raised after a valid flow was persisted
type FlowSaved struct {
	BaseEvent
	SnapshotKey string `json:"snapshot_key"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
}

// NewFlowSaved creates a FlowSaved event
func NewFlowSaved(flowID string, version int, key string, nodeCount, edgeCount int, timestamp time.Time) FlowSaved {
	return FlowSaved{
		BaseEvent:   newBase(flowID, TypeFlowSaved, version, timestamp),
		SnapshotKey: key,
		NodeCount:   nodeCount,
		EdgeCount:   edgeCount,
	}
}

// ValidationFailed is raised when a save was refused
type ValidationFailed struct {
	BaseEvent
	OffendingNodeIDs []valueobjects.NodeID `json:"offending_node_ids"`
	Message          string                `json:"message"`
}

// NewValidationFailed creates a ValidationFailed event
func NewValidationFailed(flowID string, version int, offending []valueobjects.NodeID, message string, timestamp time.Time) ValidationFailed {
	return ValidationFailed{
		BaseEvent:        newBase(flowID, TypeValidationFailed, version, timestamp),
		OffendingNodeIDs: offending,
		Message:          message,
	}
}
