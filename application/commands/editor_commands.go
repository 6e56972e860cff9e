package commands

import (
	"flowbuilder/domain/snapshot"
	"flowbuilder/pkg/utils"
)

// SelectNodeCommand opens a node in the settings panel
type SelectNodeCommand struct {
	NodeID string `json:"nodeId" validate:"required,nodeid"`
}

func (c SelectNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// ClearSelectionCommand returns the editor to the node panel
type ClearSelectionCommand struct{}

func (c ClearSelectionCommand) Validate() error { return nil }

// EditSelectedNodeCommand replaces the text of the selected node
type EditSelectedNodeCommand struct {
	Text string `json:"text" validate:"max=4096"`
}

func (c EditSelectedNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// SaveFlowCommand validates the flow and persists it when valid
type SaveFlowCommand struct{}

func (c SaveFlowCommand) Validate() error { return nil }

// DismissNotificationCommand hides the notification before it expires
type DismissNotificationCommand struct{}

func (c DismissNotificationCommand) Validate() error { return nil }

// RestoreFlowCommand reloads the flow from the snapshot store
type RestoreFlowCommand struct{}

func (c RestoreFlowCommand) Validate() error { return nil }

// ImportFlowCommand replaces the flow with a snapshot supplied by a client
type ImportFlowCommand struct {
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

func (c ImportFlowCommand) Validate() error { return nil }
