package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"flowbuilder/application/commands"
	"flowbuilder/application/commands/bus"
	querybus "flowbuilder/application/queries/bus"
	"flowbuilder/pkg/common"
	pkgerrors "flowbuilder/pkg/errors"
)

// base carries what every handler needs to reach the buses and answer
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func newBase(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) base {
	return base{commandBus: commandBus, queryBus: queryBus, errors: errs, logger: logger}
}

// send runs a command and writes the error response itself when it fails
func (h base) send(w http.ResponseWriter, r *http.Request, cmd bus.Command) (interface{}, bool) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return nil, false
	}
	return result, true
}

// sendOutcome runs a command that reports a commands.Outcome and writes it.
// Applied outcomes answer with okStatus, refused ones with 200.
func (h base) sendOutcome(w http.ResponseWriter, r *http.Request, cmd bus.Command, okStatus int) {
	result, ok := h.send(w, r, cmd)
	if !ok {
		return
	}
	outcome, _ := result.(commands.Outcome)
	status := http.StatusOK
	if outcome.Applied {
		status = okStatus
	}
	h.respondJSON(w, status, outcome)
}

func (h base) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) (interface{}, bool) {
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return nil, false
	}
	return result, true
}

func (h base) query(w http.ResponseWriter, r *http.Request, q querybus.Query) {
	result, ok := h.ask(w, r, q)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, common.MaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return false
	}
	return true
}

func (h base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := common.RespondJSON(w, status, data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
