package suspicion

import (
	"testing"
	"time"

	"modguard/internal/platform/clock"
)

func key(actor string) Key {
	return Key{ScopeID: "scope-1", ActorID: actor}
}

func TestBump_ClampsAtOne(t *testing.T) {
	tr := NewTracker(clock.NewManual(time.Unix(1000, 0)))
	tr.Bump(key("a"), 0.7)
	if got := tr.Bump(key("a"), 0.7); got != 1 {
		t.Fatalf("Bump returned %v, want clamp at 1", got)
	}
	if got := tr.Value(key("a")); got != 1 {
		t.Fatalf("Value = %v, want 1", got)
	}
}

func TestBump_IgnoresNonPositiveDelta(t *testing.T) {
	tr := NewTracker(clock.NewManual(time.Unix(1000, 0)))
	tr.Bump(key("a"), 0.4)
	if got := tr.Bump(key("a"), 0); got != 0.4 {
		t.Fatalf("zero delta changed value to %v", got)
	}
	if got := tr.Bump(key("a"), -0.2); got != 0.4 {
		t.Fatalf("negative delta changed value to %v", got)
	}
}

func TestDecay_TwoTicksFromHalf(t *testing.T) {
	tr := NewTracker(clock.NewManual(time.Unix(1000, 0)))
	tr.Bump(key("a"), 0.5)

	tr.DecayAll(0.1)
	tr.DecayAll(0.1)

	got := tr.Value(key("a"))
	if diff := got - 0.3; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("value after two decay ticks = %v, want 0.3", got)
	}
}

func TestDecay_RemovesAtZero(t *testing.T) {
	tr := NewTracker(clock.NewManual(time.Unix(1000, 0)))
	tr.Bump(key("a"), 0.25)

	ticks := 0
	for tr.Len() > 0 {
		tr.DecayAll(0.1)
		ticks++
		if ticks > 10 {
			t.Fatalf("entry never removed after %d ticks", ticks)
		}
	}
	if ticks != 3 {
		t.Fatalf("removed after %d ticks, want 3", ticks)
	}
	if got := tr.Value(key("a")); got != 0 {
		t.Fatalf("removed actor still reports %v", got)
	}
}

func TestDecay_ReportsRemovedCount(t *testing.T) {
	tr := NewTracker(clock.NewManual(time.Unix(1000, 0)))
	tr.Bump(key("low"), 0.05)
	tr.Bump(key("high"), 0.9)

	if removed := tr.DecayAll(0.1); removed != 1 {
		t.Fatalf("DecayAll removed %d, want 1", removed)
	}
	if tr.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tr.Len())
	}
}

func TestValue_UntrackedIsZero(t *testing.T) {
	tr := NewTracker(clock.NewManual(time.Unix(1000, 0)))
	if got := tr.Value(key("nobody")); got != 0 {
		t.Fatalf("untracked actor reports %v", got)
	}
}
