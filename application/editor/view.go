package editor

import (
	"flowbuilder/application/ports"
	"flowbuilder/application/selection"
	"flowbuilder/domain/core/entities"
)

// View is what a renderer needs to draw the flow
type View struct {
	Nodes        []NodeView          `json:"nodes"`
	Edges        []EdgeView          `json:"edges"`
	Selection    SelectionView       `json:"selection"`
	Notification *ports.Notification `json:"notification,omitempty"`
	Version      int                 `json:"version"`
}

// NodeView is a node with its transient editor state
type NodeView struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Position PositionView `json:"position"`
	Data     DataView     `json:"data"`
	HasError bool         `json:"hasError"`
	Selected bool         `json:"selected"`
}

// PositionView is a canvas position
type PositionView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DataView is the node payload
type DataView struct {
	Text string `json:"text"`
}

// EdgeView is a connection between two nodes
type EdgeView struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// SelectionView is the selection controller state
type SelectionView struct {
	State  selection.State `json:"state"`
	NodeID string          `json:"nodeId,omitempty"`
}

// View captures the flow, flags, selection and notification.
// Nodes and edges come from one consistent read of the flow.
func (s *Session) View() View {
	var view View
	s.flow.Inspect(func(nodes []*entities.Node, edges []entities.Edge) {
		view.Nodes = make([]NodeView, 0, len(nodes))
		for _, n := range nodes {
			view.Nodes = append(view.Nodes, NodeView{
				ID:       n.ID().String(),
				Type:     n.Kind().String(),
				Position: PositionView{X: n.Position().X, Y: n.Position().Y},
				Data:     DataView{Text: n.Content().Text()},
			})
		}
		view.Edges = make([]EdgeView, 0, len(edges))
		for _, e := range edges {
			view.Edges = append(view.Edges, EdgeView{ID: e.ID, Source: e.Source.String(), Target: e.Target.String()})
		}
	})

	flagged := make(map[string]struct{})
	for _, id := range s.flow.FlaggedNodeIDs() {
		flagged[id.String()] = struct{}{}
	}

	state, selected := s.Selection()
	for i := range view.Nodes {
		_, view.Nodes[i].HasError = flagged[view.Nodes[i].ID]
		view.Nodes[i].Selected = state == selection.Editing && selected.String() == view.Nodes[i].ID
	}

	view.Selection = SelectionView{State: state}
	if state == selection.Editing {
		view.Selection.NodeID = selected.String()
	}
	if note, ok := s.notifier.Current(); ok {
		view.Notification = &note
	}
	view.Version = s.flow.Version()
	return view
}
