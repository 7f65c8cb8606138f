package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Store serves the current dataset snapshot. Reload swaps the whole
// snapshot atomically, so a request that took a Snapshot keeps seeing a
// consistent dataset for its lifetime.
type Store struct {
	loader  Loader
	logger  *slog.Logger
	current atomic.Pointer[Dataset]

	reloadMu sync.Mutex
}

// NewStore loads the initial snapshot. A dataset that fails validation is
// fatal here: the process must not serve requests against it.
func NewStore(ctx context.Context, loader Loader, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{loader: loader, logger: logger}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore wraps an already prepared snapshot. Reload is a no-op.
func NewStaticStore(d *Dataset) *Store {
	s := &Store{logger: slog.Default()}
	s.current.Store(d)
	return s
}

// Snapshot returns the current dataset.
func (s *Store) Snapshot() *Dataset {
	return s.current.Load()
}

// Reload fetches a new dataset and swaps it in. On failure the previous
// snapshot stays in place.
func (s *Store) Reload(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	raw, err := s.loader.LoadDataset(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	snap, err := Prepare(*raw)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	prev := s.current.Swap(snap)
	attrs := []any{
		slog.String("version", snap.Version),
		slog.Int("festivals", len(snap.Festivals)),
		slog.Int("congregations", len(snap.Congregations)),
		slog.Int("topics", len(snap.Topics)),
	}
	if prev != nil {
		attrs = append(attrs, slog.String("previous_version", prev.Version))
	}
	s.logger.Info("dataset loaded", attrs...)
	return nil
}
