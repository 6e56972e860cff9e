package commands

import "flowbuilder/pkg/utils"

// ConnectNodesCommand proposes an edge from Source to Target
type ConnectNodesCommand struct {
	Source string `json:"source" validate:"required,nodeid"`
	Target string `json:"target" validate:"required,nodeid"`
}

func (c ConnectNodesCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveEdgeCommand deletes an edge
type RemoveEdgeCommand struct {
	EdgeID string `json:"-" validate:"required"`
}

func (c RemoveEdgeCommand) Validate() error { return utils.ValidateStruct(c) }
