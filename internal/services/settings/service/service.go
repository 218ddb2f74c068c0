// Package service owns the live settings snapshot.
// The snapshot is swapped atomically so readers never observe a torn
// settings object, and watchers are fanned out on every swap
package service

import (
	"context"
	"sync"
	"sync/atomic"

	"modguard/internal/platform/logger"
	"modguard/internal/services/settings/domain"
)

// Svc implements the settings reader, writer and watch ports
type Svc struct {
	store domain.StorePort

	cur atomic.Pointer[domain.Snapshot]

	mu       sync.Mutex // serializes Update and Watch registration
	watchers []func(*domain.Snapshot)
}

var (
	_ domain.ReaderPort = (*Svc)(nil)
	_ domain.WriterPort = (*Svc)(nil)
	_ domain.WatchPort  = (*Svc)(nil)
)

// New constructs the service seeded with defaults.
// store may be nil, in which case settings live in memory only
func New(store domain.StorePort) *Svc {
	s := &Svc{store: store}
	s.cur.Store(domain.NewSnapshot(domain.Defaults()))
	return s
}

// Start loads persisted settings. A load failure keeps the defaults in
// place so detection stays operational on the last good snapshot
func (s *Svc) Start(ctx context.Context) {
	if s.store == nil {
		return
	}
	loaded, ok, err := s.store.Load(ctx)
	if err != nil {
		logger.Named("settings").Warn().Err(err).
			Msg("settings load failed, running on defaults")
		return
	}
	if !ok {
		return
	}
	s.swap(domain.NewSnapshot(loaded))
}

// Current returns the live snapshot
func (s *Svc) Current() *domain.Snapshot {
	return s.cur.Load()
}

// Update applies a patch, persists the result and swaps the snapshot.
// Persistence failure is logged but the in-memory swap still happens; the
// engine keeps operating on what the moderator asked for
func (s *Svc) Update(ctx context.Context, p domain.Patch) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.NewSnapshot(p.Apply(s.cur.Load().Settings))
	if s.store != nil {
		if err := s.store.Save(ctx, next.Settings); err != nil {
			logger.C(ctx).Error().Err(err).
				Msg("settings save failed, keeping in-memory snapshot")
		}
	}
	s.swapLocked(next)
	return next, nil
}

// Watch registers fn to run on every snapshot swap, including one immediate
// call with the current snapshot
func (s *Svc) Watch(fn func(*domain.Snapshot)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	cur := s.cur.Load()
	s.mu.Unlock()
	fn(cur)
}

func (s *Svc) swap(next *domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapLocked(next)
}

func (s *Svc) swapLocked(next *domain.Snapshot) {
	s.cur.Store(next)
	for _, fn := range s.watchers {
		fn(next)
	}
}
