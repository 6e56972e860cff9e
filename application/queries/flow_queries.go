package queries

import (
	"time"

	"flowbuilder/application/ports"
	"flowbuilder/pkg/utils"
)

// GetFlowQuery returns the flow as the editor renders it
type GetFlowQuery struct{}

func (q GetFlowQuery) Validate() error { return nil }

// GetNodeQuery returns a single node
type GetNodeQuery struct {
	NodeID string `validate:"required,nodeid"`
}

func (q GetNodeQuery) Validate() error { return utils.ValidateStruct(q) }

// ValidateFlowQuery checks the flow without flagging nodes or saving
type ValidateFlowQuery struct{}

func (q ValidateFlowQuery) Validate() error { return nil }

// GetNotificationQuery returns the notification on display
type GetNotificationQuery struct{}

func (q GetNotificationQuery) Validate() error { return nil }

// GetSnapshotQuery returns the current flow in its persisted form
type GetSnapshotQuery struct{}

func (q GetSnapshotQuery) Validate() error { return nil }

// GetUnsavedChangesQuery compares the flow with the stored snapshot
type GetUnsavedChangesQuery struct{}

func (q GetUnsavedChangesQuery) Validate() error { return nil }

// GetHistoryQuery returns recent flow events
type GetHistoryQuery struct {
	Limit int `validate:"min=0,max=1000"`
}

func (q GetHistoryQuery) Validate() error { return utils.ValidateStruct(q) }

// ListNodeKindsQuery lists the node types the panel offers
type ListNodeKindsQuery struct{}

func (q ListNodeKindsQuery) Validate() error { return nil }

// VerdictResult is a validation verdict
type VerdictResult struct {
	Valid            bool     `json:"valid"`
	Message          string   `json:"message,omitempty"`
	OffendingNodeIDs []string `json:"offendingNodeIds"`
	Disconnected     []string `json:"disconnected"`
	EmptyContent     []string `json:"emptyContent"`
}

// NotificationResult is the notification state
type NotificationResult struct {
	Visible      bool                `json:"visible"`
	Notification *ports.Notification `json:"notification,omitempty"`
	RemainingMS  int64               `json:"remainingMs"`
}

// KindResult describes a node type
type KindResult struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// HistoryResult is a page of flow events
type HistoryResult struct {
	FlowID  string               `json:"flowId"`
	Entries []ports.JournalEntry `json:"entries"`
	AsOf    time.Time            `json:"asOf"`
}
