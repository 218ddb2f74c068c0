package service

import (
	"context"
	"time"

	"modguard/internal/core/suspicion"
	"modguard/internal/platform/logger"
	setdom "modguard/internal/services/settings/domain"
)

// Sweep schedules. Decay runs on its own tick so suspicion ages independent
// of event arrival rate; window and raid sweeps bound idle memory
const (
	decayInterval = 5 * time.Minute
	decayStep     = 0.1

	windowSweepInterval = 2 * time.Minute

	raidPruneInterval = time.Minute
)

// sweepLoop drives the periodic background tasks until ctx is done.
// Each task locks at most one shard at a time, never the hot path globally
func (s *Svc) sweepLoop(ctx context.Context) {
	decay, stopDecay := s.deps.Clock.Ticker(decayInterval)
	defer stopDecay()
	winSweep, stopWin := s.deps.Clock.Ticker(windowSweepInterval)
	defer stopWin()
	raidPrune, stopRaid := s.deps.Clock.Ticker(raidPruneInterval)
	defer stopRaid()

	log := logger.Named("engine")
	for {
		select {
		case <-ctx.Done():
			return
		case <-decay:
			removed := s.suspicion.DecayAll(decayStep)
			s.decaySweeps.Add(1)
			if removed > 0 {
				log.Debug().Int("removed", removed).Msg("suspicion decay tick")
			}
		case <-winSweep:
			s.sweepIdleWindows()
		case <-raidPrune:
			s.raid.Prune(s.deps.Settings.Current().Raid)
		}
	}
}

// sweepIdleWindows removes keys idle longer than any configured window.
// Retention follows the live snapshot so widening a window in settings never
// lets the sweep delete history still inside it
func (s *Svc) sweepIdleWindows() {
	maxIdle := windowRetention(s.deps.Settings.Current())
	if removed := s.windows.Sweep(maxIdle); removed > 0 {
		logger.Named("engine").Debug().Int("removed", removed).Msg("idle window sweep")
	}
}

// windowRetention is the largest configured detector or raid window plus one
// sweep interval, so a key is swept only after its window has fully elapsed
// with no new writes
func windowRetention(sn *setdom.Snapshot) time.Duration {
	maxWin := sn.Raid.Window
	for _, w := range []time.Duration{
		sn.Detect.RapidWindow,
		sn.Detect.IdenticalWindow,
		sn.Detect.LinkWindow,
		sn.Detect.MentionWindow,
	} {
		if w > maxWin {
			maxWin = w
		}
	}
	return maxWin + windowSweepInterval
}

// Suspicion exposes an actor's current suspicion value
func (s *Svc) Suspicion(scopeID, actorID string) float64 {
	return s.suspicion.Value(suspicion.Key{ScopeID: scopeID, ActorID: actorID})
}
