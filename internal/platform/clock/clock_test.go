package clock

import (
	"testing"
	"time"
)

func TestManual_AdvanceAndNow(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewManual(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now = %v, want %v", got, start)
	}
	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("Now after Advance = %v", got)
	}
}

func TestManual_TickFiresTickers(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	ch, stop := c.Ticker(time.Minute)
	defer stop()

	c.Tick(time.Minute)
	select {
	case ts := <-ch:
		if !ts.Equal(time.Unix(60, 0)) {
			t.Fatalf("tick time = %v", ts)
		}
	default:
		t.Fatalf("expected a tick")
	}
}

func TestReal_TickerStops(t *testing.T) {
	c := New()
	ch, stop := c.Ticker(time.Millisecond)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("real ticker never fired")
	}
	stop()
}
