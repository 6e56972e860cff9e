package selection

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"flowbuilder/domain/core/valueobjects"
)

type MockNodeEditor struct {
	mock.Mock
}

func (m *MockNodeEditor) HasNode(id valueobjects.NodeID) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *MockNodeEditor) RemoveNode(id valueobjects.NodeID) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *MockNodeEditor) UpdateNodeContent(id valueobjects.NodeID, patch valueobjects.ContentPatch) bool {
	args := m.Called(id, patch)
	return args.Bool(0)
}

func TestController_Transitions(t *testing.T) {
	a := valueobjects.MustNodeID("a")
	b := valueobjects.MustNodeID("b")
	ghost := valueobjects.MustNodeID("ghost")

	editor := new(MockNodeEditor)
	editor.On("HasNode", a).Return(true)
	editor.On("HasNode", b).Return(true)
	editor.On("HasNode", ghost).Return(false)

	c := NewController(editor)
	assert.Equal(t, Idle, c.State())

	assert.True(t, c.Select(a))
	assert.Equal(t, Editing, c.State())
	assert.True(t, c.IsSelected(a))

	assert.True(t, c.Select(b), "switching nodes goes straight to the new node")
	selected, ok := c.Selected()
	assert.True(t, ok)
	assert.Equal(t, b, selected)

	assert.False(t, c.Select(ghost))
	assert.True(t, c.IsSelected(b), "failed select keeps the current node")

	c.Deselect()
	assert.Equal(t, Idle, c.State())
	_, ok = c.Selected()
	assert.False(t, ok)

	editor.AssertExpectations(t)
}

func TestController_EditRoutesToSelectedNode(t *testing.T) {
	a := valueobjects.MustNodeID("a")

	editor := new(MockNodeEditor)
	editor.On("HasNode", a).Return(true)
	editor.On("UpdateNodeContent", a, valueobjects.TextPatch("h")).Return(true).Once()
	editor.On("UpdateNodeContent", a, valueobjects.TextPatch("hi")).Return(true).Once()

	c := NewController(editor)
	assert.False(t, c.Edit("ignored while idle"))

	c.Select(a)
	assert.True(t, c.Edit("h"))
	assert.True(t, c.Edit("hi"))

	editor.AssertExpectations(t)
	editor.AssertNumberOfCalls(t, "UpdateNodeContent", 2)
}

func TestController_RemoveNode(t *testing.T) {
	a := valueobjects.MustNodeID("a")
	b := valueobjects.MustNodeID("b")
	ghost := valueobjects.MustNodeID("ghost")

	editor := new(MockNodeEditor)
	editor.On("HasNode", mock.Anything).Return(true)
	editor.On("RemoveNode", b).Return(true).Once()
	editor.On("RemoveNode", ghost).Return(false).Once()
	editor.On("RemoveNode", a).Return(true).Once()

	c := NewController(editor)
	c.Select(a)

	assert.True(t, c.RemoveNode(b))
	assert.True(t, c.IsSelected(a), "removing another node keeps the selection")

	assert.False(t, c.RemoveNode(ghost))
	assert.True(t, c.IsSelected(a))

	assert.True(t, c.RemoveNode(a))
	assert.Equal(t, Idle, c.State())
	editor.AssertExpectations(t)
}

func TestController_SelectWaitsForRemoval(t *testing.T) {
	a := valueobjects.MustNodeID("a")

	removing := make(chan struct{})
	release := make(chan struct{})
	var removed atomic.Bool

	editor := new(MockNodeEditor)
	editor.On("RemoveNode", a).Run(func(mock.Arguments) {
		close(removing)
		<-release
		removed.Store(true)
	}).Return(true)
	editor.On("HasNode", a).Run(func(mock.Arguments) {
		assert.True(t, removed.Load(), "existence is checked only after the removal finished")
	}).Return(false)

	c := NewController(editor)

	done := make(chan bool)
	go func() { done <- c.RemoveNode(a) }()
	<-removing

	selected := make(chan bool)
	go func() { selected <- c.Select(a) }()

	select {
	case <-selected:
		t.Fatal("select finished while the node was being removed")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	assert.True(t, <-done)
	assert.False(t, <-selected, "the removed node cannot be selected")
	assert.Equal(t, Idle, c.State())
}
