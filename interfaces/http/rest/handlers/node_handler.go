package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	"flowbuilder/application/queries"
	querybus "flowbuilder/application/queries/bus"
	pkgerrors "flowbuilder/pkg/errors"
)

// NodeHandler handles node gestures
type NodeHandler struct {
	base
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// AddNodeRequest is a click on a panel button
type AddNodeRequest struct {
	Type string `json:"type"`
}

// DropNodeRequest is a panel item released over the canvas
type DropNodeRequest struct {
	Payload string  `json:"payload"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// UpdateNodeDataRequest patches node content. A missing text leaves it as is.
type UpdateNodeDataRequest struct {
	Text *string `json:"text"`
}

// MoveNodeRequest is a node dragged to a new position
type MoveNodeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AddNode handles POST /nodes
func (h *NodeHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	var req AddNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.sendOutcome(w, r, commands.AddNodeCommand{Kind: req.Type}, http.StatusCreated)
}

// DropNode handles POST /nodes/drop
func (h *NodeHandler) DropNode(w http.ResponseWriter, r *http.Request) {
	var req DropNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.sendOutcome(w, r, commands.DropNodeCommand{Kind: req.Payload, X: req.X, Y: req.Y}, http.StatusCreated)
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetNodeQuery{NodeID: chi.URLParam(r, "nodeID")})
}

// UpdateNodeData handles PATCH /nodes/{nodeID}/data
func (h *NodeHandler) UpdateNodeData(w http.ResponseWriter, r *http.Request) {
	var req UpdateNodeDataRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.sendOutcome(w, r, commands.UpdateNodeContentCommand{
		NodeID: chi.URLParam(r, "nodeID"),
		Text:   req.Text,
	}, http.StatusOK)
}

// MoveNode handles PUT /nodes/{nodeID}/position
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req MoveNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.sendOutcome(w, r, commands.MoveNodeCommand{
		NodeID: chi.URLParam(r, "nodeID"),
		X:      req.X,
		Y:      req.Y,
	}, http.StatusOK)
}

// DeleteNode handles DELETE /nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	h.sendOutcome(w, r, commands.RemoveNodeCommand{NodeID: chi.URLParam(r, "nodeID")}, http.StatusOK)
}

// ListKinds handles GET /kinds
func (h *NodeHandler) ListKinds(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.ListNodeKindsQuery{})
}
