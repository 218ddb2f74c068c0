// Package window implements keyed sliding time windows over event traffic.
// Entries older than the caller's window are pruned on every read so
// detectors never observe stale data regardless of write order
package window

import (
	"hash/fnv"
	"sync"
	"time"

	"modguard/internal/platform/clock"
)

// shardCount trades lock granularity against map overhead; must be a power of two
const shardCount = 32

// Key identifies one sliding buffer
type Key struct {
	Detector string
	ScopeID  string
	ActorID  string
}

// Entry is one timestamped observation inside a window.
// Only the fields relevant to the owning detector are populated
type Entry struct {
	At           time.Time
	Content      string
	Links        []string
	MentionCount int
	MassMention  bool
}

type shard struct {
	mu   sync.Mutex
	keys map[Key][]Entry
}

// Store is a concurrency-safe keyed window store.
// Different keys never contend on the same lock beyond shard collisions;
// updates to a single key are serialized by its shard mutex
type Store struct {
	shards [shardCount]*shard
	clk    clock.Clock
}

// NewStore builds an empty Store using clk as its time source
func NewStore(clk clock.Clock) *Store {
	s := &Store{clk: clk}
	for i := range s.shards {
		s.shards[i] = &shard{keys: make(map[Key][]Entry)}
	}
	return s
}

func (s *Store) shardFor(k Key) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.Detector))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.ScopeID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.ActorID))
	return s.shards[h.Sum32()&(shardCount-1)]
}

// Append records e under k
func (s *Store) Append(k Key, e Entry) {
	sh := s.shardFor(k)
	sh.mu.Lock()
	sh.keys[k] = append(sh.keys[k], e)
	sh.mu.Unlock()
}

// Recent prunes entries older than win and returns a copy of the survivors.
// The copy keeps callers from racing the next append
func (s *Store) Recent(k Key, win time.Duration) []Entry {
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	kept := s.pruneLocked(sh, k, win)
	if len(kept) == 0 {
		return nil
	}
	out := make([]Entry, len(kept))
	copy(out, kept)
	return out
}

// AppendRecent appends e and returns the pruned window in one critical
// section, keeping update + read atomic for the key
func (s *Store) AppendRecent(k Key, e Entry, win time.Duration) []Entry {
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.keys[k] = append(sh.keys[k], e)
	kept := s.pruneLocked(sh, k, win)
	out := make([]Entry, len(kept))
	copy(out, kept)
	return out
}

// pruneLocked drops entries older than win and removes empty keys.
// Entries may arrive out of order, so it filters rather than slicing a prefix
func (s *Store) pruneLocked(sh *shard, k Key, win time.Duration) []Entry {
	cutoff := s.clk.Now().Add(-win)
	es := sh.keys[k]
	kept := es[:0]
	for _, e := range es {
		if !e.At.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(sh.keys, k)
		return nil
	}
	sh.keys[k] = kept
	return kept
}

// Sweep removes keys whose newest entry is older than maxIdle.
// Intended for a periodic background task; each shard is locked briefly
// and independently so the hot path never stalls behind a full scan
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := s.clk.Now().Add(-maxIdle)
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, es := range sh.keys {
			newest := time.Time{}
			for _, e := range es {
				if e.At.After(newest) {
					newest = e.At
				}
			}
			if newest.Before(cutoff) {
				delete(sh.keys, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len reports the number of live keys (for tests and health reporting)
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.keys)
		sh.mu.Unlock()
	}
	return n
}
