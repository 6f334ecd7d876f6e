package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/reviewforge/internal/domain/model"
	"github.com/okian/reviewforge/pkg/logger"
	"github.com/okian/reviewforge/pkg/metrics"
)

const snapshotFileMode = 0o644

// SnapshotStore owns the current MetricsSnapshot. Every mutation goes
// through Update or TryStart, which hold the store lock across the
// mutate-and-persist sequence, so readers always observe a complete,
// self-consistent snapshot. Persistence writes a temp file and renames it
// into place; readers of the file never see a partial write.
type SnapshotStore struct {
	mu   sync.Mutex
	path string
	snap model.MetricsSnapshot

	logger logger.Logger
}

// SnapshotOption applies a configuration option to the SnapshotStore.
type SnapshotOption func(*SnapshotStore)

// WithSnapshotLogger sets a custom logger for the snapshot store.
func WithSnapshotLogger(l logger.Logger) SnapshotOption {
	return func(s *SnapshotStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSnapshotStore creates a store persisting to path. A previously
// persisted snapshot is restored when present and parseable; otherwise the
// store starts from the initial idle snapshot and persists it.
func NewSnapshotStore(ctx context.Context, path string, totalEpochs int, opts ...SnapshotOption) (*SnapshotStore, error) {
	s := &SnapshotStore{
		path:   path,
		snap:   model.NewMetricsSnapshot(totalEpochs),
		logger: logger.Get().Named("snapshot"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if data, err := os.ReadFile(path); err == nil {
		var prev model.MetricsSnapshot
		if err := json.Unmarshal(data, &prev); err == nil {
			s.snap = prev
			s.logger.Info(ctx, "restored persisted snapshot",
				logger.String("status", string(prev.Status)),
				logger.Int("epoch", prev.Epoch),
			)
		} else {
			s.logger.Warn(ctx, "ignoring corrupt snapshot file", logger.Error(err))
		}
	}

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns a deep copy of the current snapshot.
func (s *SnapshotStore) Snapshot(_ context.Context) model.MetricsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Update applies fn to the snapshot and persists the result before
// returning. The lock is held for the full read-modify-persist sequence.
func (s *SnapshotStore) Update(_ context.Context, fn func(*model.MetricsSnapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	return s.persistLocked()
}

// TryStart atomically claims the right to run a training task. When no run
// is in flight it resets the snapshot to the starting state, persists, and
// returns true; when a run is already in flight it returns false and
// leaves the snapshot untouched. The status check and the reset happen in
// one critical section so two concurrent starts can never both succeed.
func (s *SnapshotStore) TryStart(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Status.Running() {
		return false, nil
	}
	s.snap.Reset()
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// persistLocked writes the snapshot with a temp-file-and-rename so the
// on-disk file is replaced atomically. Callers must hold s.mu.
func (s *SnapshotStore) persistLocked() error {
	start := time.Now()

	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := os.Chmod(tmpPath, snapshotFileMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	metrics.RecordSnapshotPersist(float64(time.Since(start).Milliseconds()))
	return nil
}

// Path returns the snapshot file location.
func (s *SnapshotStore) Path() string {
	return s.path
}
