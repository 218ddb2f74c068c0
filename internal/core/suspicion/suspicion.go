// Package suspicion tracks a decaying per-actor reputation score.
// Scores are created lazily on the first bump, clamped to [0,1], decayed by a
// single periodic tick, and removed once they reach zero
package suspicion

import (
	"hash/fnv"
	"sync"
	"time"

	"modguard/internal/platform/clock"
)

const shardCount = 16

// Key identifies one tracked actor within a scope
type Key struct {
	ScopeID string
	ActorID string
}

type score struct {
	value   float64
	updated time.Time
}

type shard struct {
	mu     sync.Mutex
	scores map[Key]score
}

// Tracker is a concurrency-safe decaying score map
type Tracker struct {
	shards [shardCount]*shard
	clk    clock.Clock
}

// NewTracker builds an empty Tracker using clk as its time source
func NewTracker(clk clock.Clock) *Tracker {
	t := &Tracker{clk: clk}
	for i := range t.shards {
		t.shards[i] = &shard{scores: make(map[Key]score)}
	}
	return t
}

func (t *Tracker) shardFor(k Key) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.ScopeID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.ActorID))
	return t.shards[h.Sum32()%shardCount]
}

// Bump raises k's score by delta, clamped to 1, and returns the new value.
// Non-positive deltas leave the score untouched
func (t *Tracker) Bump(k Key, delta float64) float64 {
	if delta <= 0 {
		return t.Value(k)
	}
	sh := t.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s := sh.scores[k]
	s.value += delta
	if s.value > 1 {
		s.value = 1
	}
	s.updated = t.clk.Now()
	sh.scores[k] = s
	return s.value
}

// Value returns k's current score, zero when untracked
func (t *Tracker) Value(k Key) float64 {
	sh := t.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.scores[k].value
}

// DecayAll lowers every tracked score by dec, removing entries at or below
// zero. Returns how many entries were removed. Shards are locked one at a
// time so the hot path never waits behind a full scan
func (t *Tracker) DecayAll(dec float64) int {
	now := t.clk.Now()
	removed := 0
	for _, sh := range t.shards {
		sh.mu.Lock()
		for k, s := range sh.scores {
			s.value -= dec
			if s.value <= 0 {
				delete(sh.scores, k)
				removed++
				continue
			}
			s.updated = now
			sh.scores[k] = s
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len reports the number of tracked actors
func (t *Tracker) Len() int {
	n := 0
	for _, sh := range t.shards {
		sh.mu.Lock()
		n += len(sh.scores)
		sh.mu.Unlock()
	}
	return n
}
