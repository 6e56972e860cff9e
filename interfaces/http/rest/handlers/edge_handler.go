package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	pkgerrors "flowbuilder/pkg/errors"
)

// EdgeHandler handles connection gestures
type EdgeHandler struct {
	base
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(commandBus *bus.CommandBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{base: newBase(commandBus, nil, errs, logger)}
}

// ConnectRequest proposes a connection from source to target
type ConnectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ConnectResponse reports whether the connection was made
type ConnectResponse struct {
	Connected bool   `json:"connected"`
	EdgeID    string `json:"edgeId,omitempty"`
}

// Connect handles POST /edges. A refused connection is 200 with connected false.
func (h *EdgeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, ok := h.send(w, r, commands.ConnectNodesCommand{Source: req.Source, Target: req.Target})
	if !ok {
		return
	}
	outcome, _ := result.(commands.Outcome)
	if !outcome.Applied {
		h.logger.Debug("Connection refused",
			zap.String("source", req.Source),
			zap.String("target", req.Target),
		)
		h.respondJSON(w, http.StatusOK, ConnectResponse{})
		return
	}
	h.respondJSON(w, http.StatusCreated, ConnectResponse{Connected: true, EdgeID: outcome.EdgeID})
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	h.sendOutcome(w, r, commands.RemoveEdgeCommand{EdgeID: chi.URLParam(r, "edgeID")}, http.StatusOK)
}
