package memory

import (
	"context"
	"sort"
	"sync"

	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
)

// SnapshotStore keeps snapshots in process memory
type SnapshotStore struct {
	mu    sync.RWMutex
	items map[string]snapshot.Snapshot
}

// NewSnapshotStore creates an empty store
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{items: make(map[string]snapshot.Snapshot)}
}

// Put replaces the snapshot stored under key
func (s *SnapshotStore) Put(ctx context.Context, key string, snap snapshot.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = clone(snap)
	return nil
}

// Get returns the snapshot stored under key
func (s *SnapshotStore) Get(ctx context.Context, key string) (snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.items[key]
	if !ok {
		return snapshot.Snapshot{}, pkgerrors.ErrSnapshotNotFound.WithDetail("key", key)
	}
	return clone(snap), nil
}

// Delete removes the snapshot stored under key
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Keys lists stored keys in order
func (s *SnapshotStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clone(snap snapshot.Snapshot) snapshot.Snapshot {
	return snapshot.Snapshot{
		Nodes: append([]snapshot.NodeRecord{}, snap.Nodes...),
		Edges: append([]snapshot.EdgeRecord{}, snap.Edges...),
	}
}
