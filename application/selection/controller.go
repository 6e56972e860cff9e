package selection

import (
	"sync"

	"flowbuilder/domain/core/valueobjects"
)

// State is the selection state of the editor
type State string

const (
	// Idle means no node is selected
	Idle State = "idle"
	// Editing means exactly one node is selected and receives edits
	Editing State = "editing"
)

// NodeEditor is the part of the flow the controller writes to
type NodeEditor interface {
	HasNode(id valueobjects.NodeID) bool
	UpdateNodeContent(id valueobjects.NodeID, patch valueobjects.ContentPatch) bool
	RemoveNode(id valueobjects.NodeID) bool
}

// Controller tracks the single node being edited and forwards every edit
// to the flow as it happens. Selecting and removing nodes both go through
// its lock, so the selected node always exists in the flow.
type Controller struct {
	mu       sync.RWMutex
	editor   NodeEditor
	selected valueobjects.NodeID
}

// NewController creates a controller in the Idle state
func NewController(editor NodeEditor) *Controller {
	return &Controller{editor: editor}
}

// Select moves to Editing(id). Selecting another node while editing
// switches directly. Unknown nodes are ignored.
func (c *Controller) Select(id valueobjects.NodeID) bool {
	if id.IsZero() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editor.HasNode(id) {
		return false
	}
	c.selected = id
	return true
}

// Deselect returns to Idle
func (c *Controller) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = valueobjects.NodeID{}
}

// RemoveNode deletes id from the flow and deselects it if it was selected
func (c *Controller) RemoveNode(id valueobjects.NodeID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editor.RemoveNode(id) {
		return false
	}
	if c.selected.Equals(id) {
		c.selected = valueobjects.NodeID{}
	}
	return true
}

// State returns Idle or Editing
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected.IsZero() {
		return Idle
	}
	return Editing
}

// Selected returns the node being edited
func (c *Controller) Selected() (valueobjects.NodeID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected, !c.selected.IsZero()
}

// IsSelected reports whether id is the node being edited
func (c *Controller) IsSelected(id valueobjects.NodeID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.selected.IsZero() && c.selected.Equals(id)
}

// Edit replaces the text of the selected node. It is a no-op while Idle.
func (c *Controller) Edit(text string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.selected.IsZero() {
		return false
	}
	return c.editor.UpdateNodeContent(c.selected, valueobjects.TextPatch(text))
}
