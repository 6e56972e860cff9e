package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"flowbuilder/application/editor"
	"flowbuilder/application/ports"
	"flowbuilder/application/queries"
	"flowbuilder/application/queries/bus"
	"flowbuilder/domain/core/valueobjects"
	pkgerrors "flowbuilder/pkg/errors"
	"flowbuilder/pkg/utils"
)

// FlowQueryHandler answers read-only questions about the flow
type FlowQueryHandler struct {
	session *editor.Session
	journal ports.EventJournal
	logger  *zap.Logger
	now     func() time.Time
}

// NewFlowQueryHandler creates a query handler. The journal is optional.
func NewFlowQueryHandler(session *editor.Session, journal ports.EventJournal, logger *zap.Logger) *FlowQueryHandler {
	return &FlowQueryHandler{
		session: session,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle dispatches flow queries
func (h *FlowQueryHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	switch q := query.(type) {
	case queries.GetFlowQuery:
		return h.session.View(), nil

	case queries.GetNodeQuery:
		return h.node(q)

	case queries.ValidateFlowQuery:
		return h.verdict(), nil

	case queries.GetNotificationQuery:
		return h.notification(), nil

	case queries.GetSnapshotQuery:
		return h.session.Snapshot(), nil

	case queries.GetUnsavedChangesQuery:
		return h.session.Unsaved(ctx)

	case queries.GetHistoryQuery:
		return h.history(ctx, q)

	case queries.ListNodeKindsQuery:
		defs := h.session.Registry().Definitions()
		kinds := make([]queries.KindResult, 0, len(defs))
		for _, def := range defs {
			kinds = append(kinds, queries.KindResult{
				Type:        def.Kind.String(),
				Label:       def.Label,
				Description: def.Description,
			})
		}
		return kinds, nil

	default:
		return nil, fmt.Errorf("unexpected query %T", query)
	}
}

func (h *FlowQueryHandler) node(q queries.GetNodeQuery) (*editor.NodeView, error) {
	for _, n := range h.session.View().Nodes {
		if n.ID == q.NodeID {
			return &n, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("node")
}

func (h *FlowQueryHandler) verdict() queries.VerdictResult {
	v := h.session.Check()
	return queries.VerdictResult{
		Valid:            v.Valid,
		Message:          v.Message,
		OffendingNodeIDs: idStrings(v.OffendingNodeIDs),
		Disconnected:     idStrings(v.Disconnected),
		EmptyContent:     idStrings(v.EmptyContent),
	}
}

func (h *FlowQueryHandler) notification() queries.NotificationResult {
	n, ok := h.session.Notification()
	if !ok {
		return queries.NotificationResult{}
	}
	return queries.NotificationResult{
		Visible:      true,
		Notification: &n,
		RemainingMS:  utils.MillisUntil(h.now(), n.ExpiresAt),
	}
}

func (h *FlowQueryHandler) history(ctx context.Context, q queries.GetHistoryQuery) (*queries.HistoryResult, error) {
	flowID := h.session.Flow().ID()
	result := &queries.HistoryResult{FlowID: flowID, Entries: []ports.JournalEntry{}, AsOf: h.now()}
	if h.journal == nil {
		return result, nil
	}

	entries, err := h.journal.History(ctx, flowID, q.Limit)
	if err != nil {
		h.logger.Error("Failed to read flow history", zap.String("flowID", flowID), zap.Error(err))
		return nil, pkgerrors.NewStorageError("read history", err)
	}
	if entries != nil {
		result.Entries = entries
	}
	return result, nil
}

func idStrings(ids []valueobjects.NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// RegisterAll registers every flow query on the bus
func RegisterAll(b *bus.QueryBus, handler *FlowQueryHandler) error {
	for _, q := range []bus.Query{
		queries.GetFlowQuery{},
		queries.GetNodeQuery{},
		queries.ValidateFlowQuery{},
		queries.GetNotificationQuery{},
		queries.GetSnapshotQuery{},
		queries.GetUnsavedChangesQuery{},
		queries.GetHistoryQuery{},
		queries.ListNodeKindsQuery{},
	} {
		if err := b.Register(q, handler); err != nil {
			return err
		}
	}
	return nil
}
