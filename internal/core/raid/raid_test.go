package raid

import (
	"fmt"
	"testing"
	"time"

	"modguard/internal/platform/clock"
)

func botJoin(i int, at time.Time) Join {
	return Join{
		ActorID:    fmt.Sprintf("actor-%d", i),
		Username:   fmt.Sprintf("user%04d", i),
		At:         at,
		AccountAge: 12 * time.Hour,
		AvatarSet:  true,
		HasAvatar:  false,
	}
}

func TestObserve_TwelveFreshJoinsTriggerRaid(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(clk)
	cfg := DefaultConfig()

	var burst Burst
	fired := 0
	for i := 0; i < 12; i++ {
		clk.Advance(10 * time.Second)
		if b, ok := a.Observe("scope-1", botJoin(i, clk.Now()), cfg); ok {
			burst = b
			fired++
		}
	}

	if fired != 1 {
		t.Fatalf("burst fired %d times, want exactly 1 per contiguous burst", fired)
	}
	if burst.Score < 0.7 {
		t.Fatalf("score = %v, want >= 0.7 (new accounts + no avatars)", burst.Score)
	}
	if burst.NewAccountRatio != 1 || burst.NoAvatarRatio != 1 {
		t.Fatalf("ratios = %v / %v, want 1 / 1", burst.NewAccountRatio, burst.NoAvatarRatio)
	}
	if len(burst.Joiners) != 10 {
		t.Fatalf("burst captured %d joiners, want 10 at trigger", len(burst.Joiners))
	}
}

func TestObserve_BelowThresholdStaysQuiet(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	a := NewAnalyzer(clk)
	cfg := DefaultConfig()

	for i := 0; i < 9; i++ {
		if _, ok := a.Observe("scope-1", botJoin(i, clk.Now()), cfg); ok {
			t.Fatalf("burst fired at %d joins, threshold is 10", i+1)
		}
	}
}

func TestObserve_RetriggersAfterWindowDrains(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	a := NewAnalyzer(clk)
	cfg := DefaultConfig()

	fired := 0
	for i := 0; i < 10; i++ {
		if _, ok := a.Observe("scope-1", botJoin(i, clk.Now()), cfg); ok {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("first burst fired %d times", fired)
	}

	// window drains fully, a second wave is a new burst
	clk.Advance(10 * time.Minute)
	for i := 100; i < 110; i++ {
		if _, ok := a.Observe("scope-1", botJoin(i, clk.Now()), cfg); ok {
			fired++
		}
	}
	if fired != 2 {
		t.Fatalf("second wave did not re-trigger, fired = %d", fired)
	}
}

func TestObserve_OrganicJoinersScoreLow(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	a := NewAnalyzer(clk)
	cfg := DefaultConfig()

	names := []string{
		"alice", "bob_the_builder", "charlie", "daphne", "edmund",
		"frieda", "gustav", "henrietta", "ivan", "jolene",
	}
	var burst Burst
	ok := false
	for i, name := range names {
		j := Join{
			ActorID:    fmt.Sprintf("actor-%d", i),
			Username:   name,
			At:         clk.Now(),
			AccountAge: 400 * 24 * time.Hour,
			AvatarSet:  true,
			HasAvatar:  true,
		}
		burst, ok = a.Observe("scope-1", j, cfg)
	}
	if !ok {
		t.Fatalf("threshold join count did not evaluate the window")
	}
	if burst.Score != 0 {
		t.Fatalf("organic joiners scored %v, want 0", burst.Score)
	}
}

func TestScoreBurst_SimilarUsernames(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	a := NewAnalyzer(clk)
	cfg := DefaultConfig()

	var burst Burst
	ok := false
	for i := 0; i < 10; i++ {
		j := Join{
			ActorID:    fmt.Sprintf("actor-%d", i),
			Username:   fmt.Sprintf("CoolGuy%d", i),
			At:         clk.Now(),
			AccountAge: 400 * 24 * time.Hour,
			AvatarSet:  true,
			HasAvatar:  true,
		}
		burst, ok = a.Observe("scope-1", j, cfg)
	}
	if !ok {
		t.Fatalf("burst did not trigger")
	}
	if burst.SimilarUsernameRatio != 1 {
		t.Fatalf("SimilarUsernameRatio = %v, want 1 for digit-variant names", burst.SimilarUsernameRatio)
	}
	if diff := burst.Score - 0.3; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("score = %v, want 0.3 from username clustering alone", burst.Score)
	}
}

func TestObserve_UnknownMetadataIsLeastSuspicious(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	a := NewAnalyzer(clk)
	cfg := DefaultConfig()

	var burst Burst
	ok := false
	for i := 0; i < 10; i++ {
		j := Join{
			ActorID:  fmt.Sprintf("actor-%d", i),
			Username: fmt.Sprintf("member-%c", 'a'+i),
			At:       clk.Now(),
			// AccountAge and AvatarSet left unreported
		}
		burst, ok = a.Observe("scope-1", j, cfg)
	}
	if !ok {
		t.Fatalf("burst did not trigger")
	}
	if burst.NewAccountRatio != 0 || burst.NoAvatarRatio != 0 {
		t.Fatalf("unreported metadata counted as suspicious: %v / %v",
			burst.NewAccountRatio, burst.NoAvatarRatio)
	}
}

func TestPrune_ClearsStaleScopes(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	a := NewAnalyzer(clk)
	cfg := DefaultConfig()

	for i := 0; i < 3; i++ {
		a.Observe("scope-1", botJoin(i, clk.Now()), cfg)
	}
	if a.Scopes() != 1 {
		t.Fatalf("Scopes = %d, want 1", a.Scopes())
	}

	clk.Advance(10 * time.Minute)
	a.Prune(cfg)
	if a.Scopes() != 0 {
		t.Fatalf("stale scope survived prune, Scopes = %d", a.Scopes())
	}
}
