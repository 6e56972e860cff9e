package valueobjects

import (
	"sort"
	"strings"
	"sync"
)

// NodeKind tags the capability set of a node
type NodeKind string

const (
	// KindTextMessage is a node that sends a single text message
	KindTextMessage NodeKind = "textMessage"
)

// String returns the string representation
func (k NodeKind) String() string {
	return string(k)
}

// KindDefinition describes how a node kind behaves in the editor.
// Only emptiness is kind-specific; connection rules ignore kinds.
type KindDefinition struct {
	Kind        NodeKind
	Label       string
	Description string
	// DefaultContent returns the content of a freshly created node
	DefaultContent func() NodeContent
	// IsEmpty reports whether content counts as missing for validation
	IsEmpty func(NodeContent) bool
}

// KindRegistry maps kind tags to their definitions
type KindRegistry struct {
	mu    sync.RWMutex
	kinds map[NodeKind]KindDefinition
}

// NewKindRegistry creates an empty registry
func NewKindRegistry() *KindRegistry {
	return &KindRegistry{kinds: make(map[NodeKind]KindDefinition)}
}

// DefaultKindRegistry returns a registry with the built-in kinds
func DefaultKindRegistry(defaultText string) *KindRegistry {
	registry := NewKindRegistry()
	registry.Register(TextMessageKind(defaultText))
	return registry
}

// TextMessageKind defines the text message node
func TextMessageKind(defaultText string) KindDefinition {
	return KindDefinition{
		Kind:        KindTextMessage,
		Label:       "Text Message",
		Description: "Send a text message",
		DefaultContent: func() NodeContent {
			return NewTextContent(defaultText)
		},
		IsEmpty: func(c NodeContent) bool {
			return c.IsBlank()
		},
	}
}

// Register adds or replaces a kind definition
func (r *KindRegistry) Register(def KindDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[def.Kind] = def
}

// Lookup returns the definition of a kind
func (r *KindRegistry) Lookup(kind NodeKind) (KindDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.kinds[kind]
	return def, ok
}

// Parse resolves a raw kind tag, as carried by a drag payload
func (r *KindRegistry) Parse(raw string) (NodeKind, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	kind := NodeKind(raw)
	if _, ok := r.Lookup(kind); !ok {
		return "", false
	}
	return kind, true
}

// IsEmpty applies the kind's emptiness rule, falling back to the text rule
// for kinds that are not registered (e.g. restored from an older snapshot).
func (r *KindRegistry) IsEmpty(kind NodeKind, content NodeContent) bool {
	if def, ok := r.Lookup(kind); ok && def.IsEmpty != nil {
		return def.IsEmpty(content)
	}
	return content.IsBlank()
}

// Definitions lists the registered kinds ordered by tag
func (r *KindRegistry) Definitions() []KindDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]KindDefinition, 0, len(r.kinds))
	for _, def := range r.kinds {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Kind < defs[j].Kind })
	return defs
}
