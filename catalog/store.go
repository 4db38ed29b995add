package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/satishbabariya/dataql/internal/debug"
)

// Loader builds a fresh snapshot, typically by introspecting the database.
type Loader func(ctx context.Context) (*Snapshot, error)

// Store publishes the current snapshot. Readers never block; a refresh swaps
// in a new snapshot atomically.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	group   singleflight.Group
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the latest snapshot, or nil before the first install.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Install publishes a snapshot under the next version. The caller's value is
// copied so that it is never modified after publication.
func (s *Store) Install(snap *Snapshot) *Snapshot {
	next := *snap
	for {
		current := s.current.Load()
		next.Version = s.version.Add(1)
		if s.current.CompareAndSwap(current, &next) {
			break
		}
	}
	debug.Debug("Catalog installed", "version", next.Version, "tables", len(next.Tables))
	return &next
}

// Update derives a new snapshot from the current one with fn and publishes
// it. When another install lands while fn runs, fn is applied again to the
// newer snapshot, so a concurrent rebuild is never overwritten. fn must not
// block and must not modify its argument.
func (s *Store) Update(fn func(current *Snapshot) (*Snapshot, error)) (*Snapshot, error) {
	for {
		current := s.current.Load()
		if current == nil {
			return nil, ErrEmptyCatalog
		}
		derived, err := fn(current)
		if err != nil {
			return nil, err
		}
		next := *derived
		next.Version = s.version.Add(1)
		if s.current.CompareAndSwap(current, &next) {
			debug.Debug("Catalog updated", "version", next.Version, "from", current.Version)
			return &next, nil
		}
		debug.Debug("Catalog changed during update, retrying", "from", current.Version)
	}
}

// Refresh rebuilds the snapshot with load. Concurrent refreshes share one
// load. On failure the previous snapshot stays current.
func (s *Store) Refresh(ctx context.Context, load Loader) (*Snapshot, error) {
	v, err, shared := s.group.Do("refresh", func() (any, error) {
		snap, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, ErrEmptyCatalog
		}
		return s.Install(snap), nil
	})
	if err != nil {
		debug.Warn("Catalog refresh failed", "error", err, "kept_version", s.versionOf(s.Current()))
		return nil, fmt.Errorf("failed to refresh catalog: %w", err)
	}
	if shared {
		debug.Debug("Catalog refresh shared", "version", v.(*Snapshot).Version)
	}
	return v.(*Snapshot), nil
}

// Ensure returns the current snapshot, loading one first if none exists.
func (s *Store) Ensure(ctx context.Context, load Loader) (*Snapshot, error) {
	if snap := s.Current(); snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx, load)
}

func (s *Store) versionOf(snap *Snapshot) uint64 {
	if snap == nil {
		return 0
	}
	return snap.Version
}
