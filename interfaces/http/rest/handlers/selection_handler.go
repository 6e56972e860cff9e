package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	pkgerrors "flowbuilder/pkg/errors"
)

// SelectionHandler drives the settings panel
type SelectionHandler struct {
	base
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(commandBus *bus.CommandBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *SelectionHandler {
	return &SelectionHandler{base: newBase(commandBus, nil, errs, logger)}
}

// SelectRequest picks the node shown in the settings panel
type SelectRequest struct {
	NodeID string `json:"nodeId"`
}

// EditTextRequest replaces the selected node's text
type EditTextRequest struct {
	Text string `json:"text"`
}

// Select handles PUT /selection. An empty nodeId clears the selection.
func (h *SelectionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.NodeID) == "" {
		h.sendOutcome(w, r, commands.ClearSelectionCommand{}, http.StatusOK)
		return
	}
	h.sendOutcome(w, r, commands.SelectNodeCommand{NodeID: req.NodeID}, http.StatusOK)
}

// Clear handles DELETE /selection
func (h *SelectionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.sendOutcome(w, r, commands.ClearSelectionCommand{}, http.StatusOK)
}

// EditText handles PATCH /selection/text
func (h *SelectionHandler) EditText(w http.ResponseWriter, r *http.Request) {
	var req EditTextRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.sendOutcome(w, r, commands.EditSelectedNodeCommand{Text: req.Text}, http.StatusOK)
}
