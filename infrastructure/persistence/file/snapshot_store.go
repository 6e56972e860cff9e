package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
	"flowbuilder/pkg/serialization"
)

// SnapshotStore keeps one file per key in a directory. Writes are atomic:
// readers see either the old snapshot or the new one.
type SnapshotStore struct {
	dir        string
	serializer *serialization.Serializer
	logger     *zap.Logger
}

// NewSnapshotStore creates the directory if needed
func NewSnapshotStore(dir string, serializer *serialization.Serializer, logger *zap.Logger) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if serializer == nil {
		serializer = serialization.NewSerializer(nil, serialization.CompressionNone)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{dir: dir, serializer: serializer, logger: logger}, nil
}

// Put replaces the snapshot stored under key
func (s *SnapshotStore) Put(ctx context.Context, key string, snap snapshot.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.serializer.Serialize(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := s.path(key)
	if err := renameio.WriteFile(path, data, 0o644, renameio.WithTempDir(s.dir)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.logger.Debug("Snapshot written",
		zap.String("key", key),
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Get returns the snapshot stored under key
func (s *SnapshotStore) Get(ctx context.Context, key string) (snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.Snapshot{}, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return snapshot.Snapshot{}, pkgerrors.ErrSnapshotNotFound.WithDetail("key", key)
	}
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap snapshot.Snapshot
	if err := s.serializer.Deserialize(data, &snap); err != nil {
		return snapshot.Snapshot{}, pkgerrors.ErrSnapshotMalformed.WithCause(err).WithDetail("key", key)
	}
	return snap, nil
}

// Path returns the file a key is stored in
func (s *SnapshotStore) Path(key string) string {
	return s.path(key)
}

func (s *SnapshotStore) path(key string) string {
	name := url.PathEscape(key) + "." + s.serializer.Codec()
	if c := s.serializer.Compression(); c != serialization.CompressionNone {
		name += "." + string(c)
	}
	return filepath.Join(s.dir, name)
}
