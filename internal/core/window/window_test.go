package window

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"modguard/internal/platform/clock"
)

func testKey(actor string) Key {
	return Key{Detector: "rapid_message", ScopeID: "scope-1", ActorID: actor}
}

func TestStore_RecentPrunesOldEntries(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s := NewStore(clk)
	k := testKey("actor-1")

	s.Append(k, Entry{At: clk.Now()})
	clk.Advance(20 * time.Second)
	s.Append(k, Entry{At: clk.Now()})
	clk.Advance(15 * time.Second)
	// first entry is now 35s old, second 15s old

	got := s.Recent(k, 30*time.Second)
	if len(got) != 1 {
		t.Fatalf("Recent returned %d entries, want 1", len(got))
	}
}

func TestStore_RecentIgnoresInsertionOrder(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s := NewStore(clk)
	k := testKey("actor-1")
	now := clk.Now()

	// append newest first, then stale, then mid
	s.Append(k, Entry{At: now})
	s.Append(k, Entry{At: now.Add(-2 * time.Minute)})
	s.Append(k, Entry{At: now.Add(-10 * time.Second)})

	got := s.Recent(k, 30*time.Second)
	if len(got) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(got))
	}
	for _, e := range got {
		if now.Sub(e.At) > 30*time.Second {
			t.Fatalf("stale entry survived prune: %v", e.At)
		}
	}
}

func TestStore_AppendRecentIncludesNewEntry(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	s := NewStore(clk)
	k := testKey("actor-2")

	for i := 0; i < 4; i++ {
		s.Append(k, Entry{At: clk.Now(), Content: "hi"})
	}
	got := s.AppendRecent(k, Entry{At: clk.Now(), Content: "hi"}, time.Minute)
	if len(got) != 5 {
		t.Fatalf("AppendRecent returned %d entries, want 5", len(got))
	}
}

func TestStore_RecentReturnsCopy(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	s := NewStore(clk)
	k := testKey("actor-3")
	s.Append(k, Entry{At: clk.Now(), Content: "original"})

	got := s.Recent(k, time.Minute)
	got[0].Content = "mutated"

	again := s.Recent(k, time.Minute)
	if again[0].Content != "original" {
		t.Fatalf("caller mutation leaked into the store")
	}
}

func TestStore_SweepDropsIdleKeys(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	s := NewStore(clk)

	s.Append(testKey("idle"), Entry{At: clk.Now()})
	clk.Advance(10 * time.Minute)
	s.Append(testKey("busy"), Entry{At: clk.Now()})

	removed := s.Sweep(5 * time.Minute)
	if removed != 1 {
		t.Fatalf("Sweep removed %d keys, want 1", removed)
	}
	if got := s.Recent(testKey("busy"), time.Hour); len(got) != 1 {
		t.Fatalf("busy key lost entries: %d", len(got))
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestStore_EmptyKeyRemovedAfterFullPrune(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	s := NewStore(clk)
	k := testKey("actor-4")
	s.Append(k, Entry{At: clk.Now()})
	clk.Advance(time.Hour)

	if got := s.Recent(k, time.Minute); got != nil {
		t.Fatalf("expected nil window, got %d entries", len(got))
	}
	if s.Len() != 0 {
		t.Fatalf("fully pruned key not removed, Len = %d", s.Len())
	}
}

func TestStore_ConcurrentKeysDoNotInterfere(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	s := NewStore(clk)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := testKey(fmt.Sprintf("actor-%d", i))
			for j := 0; j < 100; j++ {
				s.AppendRecent(k, Entry{At: clk.Now()}, time.Minute)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		k := testKey(fmt.Sprintf("actor-%d", i))
		if got := s.Recent(k, time.Minute); len(got) != 100 {
			t.Fatalf("key %d holds %d entries, want 100", i, len(got))
		}
	}
}
