package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"modguard/internal/core/detect"
	"modguard/internal/platform/clock"
	"modguard/internal/services/detections/domain"
)

type fakeArchive struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (f *fakeArchive) Archive(_ context.Context, d domain.Detection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("ch down")
	}
	f.ids = append(f.ids, d.ID)
	return nil
}

func spamDetection(i int, at time.Time) domain.Detection {
	return domain.Detection{
		ID:        fmt.Sprintf("det-%d", i),
		Kind:      domain.KindSpam,
		ScopeID:   "scope-1",
		ActorID:   "actor-1",
		At:        at,
		Composite: 0.9,
	}
}

func TestAppend_EvictsOldestPastCapacity(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	svc := New(clk, nil)

	for i := 0; i < domain.SpamCapacity+1; i++ {
		clk.Advance(time.Second)
		svc.Append(spamDetection(i, clk.Now()))
	}

	got := svc.Recent(domain.Query{Kind: domain.KindSpam})
	if len(got) != domain.SpamCapacity {
		t.Fatalf("log holds %d detections, want %d", len(got), domain.SpamCapacity)
	}
	// newest first; det-0 must be the evicted one
	if got[0].ID != fmt.Sprintf("det-%d", domain.SpamCapacity) {
		t.Fatalf("newest = %s", got[0].ID)
	}
	if got[len(got)-1].ID != "det-1" {
		t.Fatalf("oldest survivor = %s, want det-1", got[len(got)-1].ID)
	}
}

func TestAppend_AssignsID(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	svc := New(clk, nil)

	svc.Append(domain.Detection{Kind: domain.KindSpam, ScopeID: "s"})
	got := svc.Recent(domain.Query{})
	if len(got) != 1 || got[0].ID == "" {
		t.Fatalf("appended detection missing id: %+v", got)
	}
	if got[0].At.IsZero() {
		t.Fatalf("appended detection missing timestamp")
	}
}

func TestRecent_Filters(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	svc := New(clk, nil)

	svc.Append(domain.Detection{ID: "a", Kind: domain.KindSpam, ScopeID: "s1", At: clk.Now()})
	clk.Advance(time.Minute)
	svc.Append(domain.Detection{ID: "b", Kind: domain.KindSpam, ScopeID: "s2", At: clk.Now()})
	clk.Advance(time.Minute)
	svc.Append(domain.Detection{ID: "c", Kind: domain.KindRaid, ScopeID: "s1", At: clk.Now()})

	if got := svc.Recent(domain.Query{ScopeID: "s1"}); len(got) != 2 {
		t.Fatalf("scope filter returned %d, want 2", len(got))
	}
	if got := svc.Recent(domain.Query{Kind: domain.KindRaid}); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("kind filter returned %+v", got)
	}
	since := time.Unix(1000, 0).Add(30 * time.Second)
	if got := svc.Recent(domain.Query{Since: since}); len(got) != 2 {
		t.Fatalf("since filter returned %d, want 2", len(got))
	}
	if got := svc.Recent(domain.Query{Limit: 1}); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("limit returned %+v, want newest only", got)
	}
}

func TestStats_TrailingDayWindow(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	svc := New(clk, nil)

	stale := domain.Detection{
		ID: "old", Kind: domain.KindSpam, ScopeID: "s1",
		At: clk.Now().Add(-30 * time.Hour), Composite: 0.5,
	}
	svc.Append(stale)
	svc.Append(domain.Detection{
		ID: "d1", Kind: domain.KindSpam, ScopeID: "s1", At: clk.Now().Add(-time.Hour),
		Composite: 0.8, ThreatKinds: []detect.Kind{detect.KindRapidMessage},
	})
	svc.Append(domain.Detection{
		ID: "d2", Kind: domain.KindSpam, ScopeID: "s1", At: clk.Now().Add(-time.Minute),
		Composite: 1.2, ThreatKinds: []detect.Kind{detect.KindRapidMessage, detect.KindLinkSpam},
	})
	svc.Append(domain.Detection{
		ID: "r1", Kind: domain.KindRaid, ScopeID: "s1", At: clk.Now().Add(-time.Minute),
		Composite: 0.9,
	})

	st := svc.Stats("s1", 1)
	if st.SpamCount != 2 || st.RaidCount != 1 {
		t.Fatalf("counts = %d spam / %d raid, want 2 / 1", st.SpamCount, st.RaidCount)
	}
	if st.AvgSpamScore != 1.0 {
		t.Fatalf("AvgSpamScore = %v, want 1.0", st.AvgSpamScore)
	}
	if len(st.TopThreats) == 0 || st.TopThreats[0].Kind != detect.KindRapidMessage ||
		st.TopThreats[0].Count != 2 {
		t.Fatalf("TopThreats = %+v", st.TopThreats)
	}
}

func TestAppend_ArchiveFailureKeepsDetection(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	svc := New(clk, &fakeArchive{fail: true})

	svc.Append(spamDetection(1, clk.Now()))

	// archive write runs out of band; the log entry must be there regardless
	if got := svc.Recent(domain.Query{}); len(got) != 1 {
		t.Fatalf("detection lost on archive failure")
	}
}

func TestAppend_ArchivesOutOfBand(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	ar := &fakeArchive{}
	svc := New(clk, ar)

	svc.Append(spamDetection(1, clk.Now()))

	deadline := time.Now().Add(2 * time.Second)
	for {
		ar.mu.Lock()
		n := len(ar.ids)
		ar.mu.Unlock()
		if n == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("archive never received the detection")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
