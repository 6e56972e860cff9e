package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	"flowbuilder/application/ports"
	"flowbuilder/application/queries"
	querybus "flowbuilder/application/queries/bus"
	"flowbuilder/application/save"
	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
)

// FlowHandler handles whole-flow requests: viewing, saving and restoring
type FlowHandler struct {
	base
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *FlowHandler {
	return &FlowHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// SaveResponse reports a save request. A refused save is still a 200.
type SaveResponse struct {
	Saved            bool               `json:"saved"`
	Message          string             `json:"message"`
	OffendingNodeIDs []string           `json:"offendingNodeIds"`
	Notification     ports.Notification `json:"notification"`
}

// ImportRequest replaces the flow with a snapshot
type ImportRequest struct {
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

// GetFlow handles GET /flow
func (h *FlowHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetFlowQuery{})
}

// Save handles POST /flow/save
func (h *FlowHandler) Save(w http.ResponseWriter, r *http.Request) {
	result, ok := h.send(w, r, commands.SaveFlowCommand{})
	if !ok {
		return
	}
	res, _ := result.(*save.Result)
	if res == nil {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("save produced no result"))
		return
	}

	offending := make([]string, 0, len(res.Verdict.OffendingNodeIDs))
	for _, id := range res.Verdict.OffendingNodeIDs {
		offending = append(offending, id.String())
	}
	h.respondJSON(w, http.StatusOK, SaveResponse{
		Saved:            res.Persisted,
		Message:          res.Notification.Message,
		OffendingNodeIDs: offending,
		Notification:     res.Notification,
	})
}

// Validate handles GET /flow/validation
func (h *FlowHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.ValidateFlowQuery{})
}

// GetSnapshot handles GET /flow/snapshot
func (h *FlowHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetSnapshotQuery{})
}

// Import handles PUT /flow/snapshot
func (h *FlowHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.sendOutcome(w, r, commands.ImportFlowCommand{Snapshot: req.Snapshot}, http.StatusOK)
}

// Restore handles POST /flow/restore
func (h *FlowHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.sendOutcome(w, r, commands.RestoreFlowCommand{}, http.StatusOK)
}

// Changes handles GET /flow/changes
func (h *FlowHandler) Changes(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetUnsavedChangesQuery{})
}

// History handles GET /flow/history?limit=n
func (h *FlowHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("limit must be an integer"))
			return
		}
		limit = n
	}
	h.query(w, r, queries.GetHistoryQuery{Limit: limit})
}

// GetNotification handles GET /notification
func (h *FlowHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetNotificationQuery{})
}

// DismissNotification handles DELETE /notification
func (h *FlowHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.sendOutcome(w, r, commands.DismissNotificationCommand{}, http.StatusOK)
}
