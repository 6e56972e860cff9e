package commands

import (
	"flowbuilder/pkg/utils"
)

// AddNodeCommand adds a node at a random spot in the placement area
type AddNodeCommand struct {
	Kind string `json:"type" validate:"required"`
}

func (c AddNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// DropNodeCommand places a node dragged from the panel. An empty or
// unknown kind is not an error; the drop is ignored.
type DropNodeCommand struct {
	Kind string  `json:"payload"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (c DropNodeCommand) Validate() error { return nil }

// UpdateNodeContentCommand merges a content patch into a node
type UpdateNodeContentCommand struct {
	NodeID string  `json:"-" validate:"required,nodeid"`
	Text   *string `json:"text" validate:"omitempty,max=4096"`
}

func (c UpdateNodeContentCommand) Validate() error { return utils.ValidateStruct(c) }

// MoveNodeCommand repositions a node on the canvas
type MoveNodeCommand struct {
	NodeID string  `json:"-" validate:"required,nodeid"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (c MoveNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveNodeCommand deletes a node along with its edges
type RemoveNodeCommand struct {
	NodeID string `json:"-" validate:"required,nodeid"`
}

func (c RemoveNodeCommand) Validate() error { return utils.ValidateStruct(c) }
