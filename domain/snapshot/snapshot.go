package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"flowbuilder/domain/core/entities"
	"flowbuilder/domain/core/valueobjects"
)

// Snapshot is the persisted form of a flow. Field names match the stored
// document: {nodes: [{id, type, position: {x, y}, data: {text}}], edges: [{id, source, target}]}.
type Snapshot struct {
	Nodes []NodeRecord `json:"nodes" msgpack:"nodes"`
	Edges []EdgeRecord `json:"edges" msgpack:"edges"`
}

// NodeRecord is a stored node
type NodeRecord struct {
	ID       string         `json:"id" msgpack:"id"`
	Type     string         `json:"type" msgpack:"type"`
	Position PositionRecord `json:"position" msgpack:"position"`
	Data     DataRecord     `json:"data" msgpack:"data"`
}

// PositionRecord is a stored canvas position
type PositionRecord struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// DataRecord is the stored node payload
type DataRecord struct {
	Text string `json:"text" msgpack:"text"`
}

// EdgeRecord is a stored edge
type EdgeRecord struct {
	ID     string `json:"id" msgpack:"id"`
	Source string `json:"source" msgpack:"source"`
	Target string `json:"target" msgpack:"target"`
}

// FromFlow captures nodes, in creation order, and edges as a snapshot.
// Transient state such as error flags is never part of it.
func FromFlow(nodes []*entities.Node, edges []entities.Edge) Snapshot {
	snap := Snapshot{
		Nodes: make([]NodeRecord, 0, len(nodes)),
		Edges: make([]EdgeRecord, 0, len(edges)),
	}

	for _, node := range nodes {
		snap.Nodes = append(snap.Nodes, NodeRecord{
			ID:       node.ID().String(),
			Type:     node.Kind().String(),
			Position: PositionRecord{X: node.Position().X, Y: node.Position().Y},
			Data:     DataRecord{Text: node.Content().Text()},
		})
	}
	for _, edge := range edges {
		snap.Edges = append(snap.Edges, EdgeRecord{
			ID:     edge.ID,
			Source: edge.Source.String(),
			Target: edge.Target.String(),
		})
	}
	return snap
}

// ToDomain rebuilds nodes and edges. Records with blank identifiers are
// rejected; structural checks beyond that belong to the snapshot validator.
func (s Snapshot) ToDomain(restoredAt time.Time) ([]*entities.Node, []entities.Edge, error) {
	nodes := make([]*entities.Node, 0, len(s.Nodes))
	for i, rec := range s.Nodes {
		id, err := valueobjects.NewNodeIDFromString(rec.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes = append(nodes, entities.NewNode(
			id,
			valueobjects.NodeKind(rec.Type),
			valueobjects.NewPosition(rec.Position.X, rec.Position.Y),
			valueobjects.NewTextContent(rec.Data.Text),
			restoredAt,
		))
	}

	edges := make([]entities.Edge, 0, len(s.Edges))
	for i, rec := range s.Edges {
		source, err := valueobjects.NewNodeIDFromString(rec.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %d source: %w", i, err)
		}
		target, err := valueobjects.NewNodeIDFromString(rec.Target)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %d target: %w", i, err)
		}
		edges = append(edges, entities.Edge{ID: rec.ID, Source: source, Target: target})
	}

	return nodes, edges, nil
}

// IsEmpty reports whether the snapshot holds no nodes
func (s Snapshot) IsEmpty() bool {
	return len(s.Nodes) == 0
}

// Checksum returns a stable digest of the snapshot content
func (s Snapshot) Checksum() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// Diff summarises what changed between two snapshots
type Diff struct {
	NodesAdded   []string `json:"nodes_added,omitempty"`
	NodesRemoved []string `json:"nodes_removed,omitempty"`
	NodesUpdated []string `json:"nodes_updated,omitempty"`
	EdgesAdded   []string `json:"edges_added,omitempty"`
	EdgesRemoved []string `json:"edges_removed,omitempty"`
}

// IsEmpty reports whether the snapshots were identical
func (d Diff) IsEmpty() bool {
	return len(d.NodesAdded)+len(d.NodesRemoved)+len(d.NodesUpdated)+
		len(d.EdgesAdded)+len(d.EdgesRemoved) == 0
}

// Compare lists the nodes and edges that differ from base to next.
// Results follow the order of the snapshot they were found in.
func Compare(base, next Snapshot) Diff {
	var diff Diff

	baseNodes := make(map[string]NodeRecord, len(base.Nodes))
	for _, n := range base.Nodes {
		baseNodes[n.ID] = n
	}
	nextNodes := make(map[string]struct{}, len(next.Nodes))
	for _, n := range next.Nodes {
		nextNodes[n.ID] = struct{}{}
		old, ok := baseNodes[n.ID]
		switch {
		case !ok:
			diff.NodesAdded = append(diff.NodesAdded, n.ID)
		case old != n:
			diff.NodesUpdated = append(diff.NodesUpdated, n.ID)
		}
	}
	for _, n := range base.Nodes {
		if _, ok := nextNodes[n.ID]; !ok {
			diff.NodesRemoved = append(diff.NodesRemoved, n.ID)
		}
	}

	baseEdges := make(map[EdgeRecord]struct{}, len(base.Edges))
	for _, e := range base.Edges {
		baseEdges[e] = struct{}{}
	}
	nextEdges := make(map[EdgeRecord]struct{}, len(next.Edges))
	for _, e := range next.Edges {
		nextEdges[e] = struct{}{}
		if _, ok := baseEdges[e]; !ok {
			diff.EdgesAdded = append(diff.EdgesAdded, e.ID)
		}
	}
	for _, e := range base.Edges {
		if _, ok := nextEdges[e]; !ok {
			diff.EdgesRemoved = append(diff.EdgesRemoved, e.ID)
		}
	}

	return diff
}
