package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"modguard/internal/core/detect"
	"modguard/internal/core/event"
	"modguard/internal/platform/clock"
	detdom "modguard/internal/services/detections/domain"
	detsvc "modguard/internal/services/detections/service"
	setdom "modguard/internal/services/settings/domain"
)

type fixedSettings struct{ sn *setdom.Snapshot }

func (f fixedSettings) Current() *setdom.Snapshot { return f.sn }

func newEngine(clk clock.Clock, s setdom.Settings) (*Svc, *detsvc.Svc) {
	log := detsvc.New(clk, nil)
	eng := New(Deps{
		Settings: fixedSettings{sn: setdom.NewSnapshot(s)},
		Log:      log,
		Clock:    clk,
	})
	return eng, log
}

func msg(actor, content string, at time.Time) event.Event {
	return event.Event{
		Kind: event.KindMessage, ScopeID: "scope-1", ActorID: actor,
		ChannelID: "chan-1", MessageID: "m-" + actor, At: at, Content: content,
	}
}

func TestHandle_RapidFloodEmitsDetection(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	eng, log := newEngine(clk, setdom.Defaults())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		clk.Advance(time.Second)
		eng.Handle(ctx, msg("flooder", fmt.Sprintf("msg %d", i), clk.Now()))
	}

	got := log.Recent(detdom.Query{Kind: detdom.KindSpam})
	if len(got) == 0 {
		t.Fatalf("rapid flood produced no detection")
	}
	d := got[0]
	if d.ActorID != "flooder" || !hasThreat(d, detect.KindRapidMessage) {
		t.Fatalf("detection = %+v", d)
	}
	if eng.Suspicion("scope-1", "flooder") == 0 {
		t.Fatalf("suspicion not bumped for flooder")
	}
}

func TestHandle_WhitelistedActorNeverMutatesState(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	s := setdom.Defaults()
	s.WhitelistActors = []string{"staff-bot"}
	eng, log := newEngine(clk, s)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		clk.Advance(time.Second)
		eng.Handle(ctx, msg("staff-bot", "spam spam spam", clk.Now()))
	}

	if got := log.Recent(detdom.Query{}); len(got) != 0 {
		t.Fatalf("whitelisted actor produced %d detections", len(got))
	}
	if st := eng.Stats(); st.LiveWindows != 0 {
		t.Fatalf("whitelisted actor created %d windows", st.LiveWindows)
	}
	if eng.Suspicion("scope-1", "staff-bot") != 0 {
		t.Fatalf("whitelisted actor gained suspicion")
	}
}

func TestHandle_MalformedEventCountedAndDropped(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	eng, log := newEngine(clk, setdom.Defaults())

	eng.Handle(context.Background(), event.Event{Kind: event.KindMessage})
	eng.Handle(context.Background(), event.Event{Kind: "bogus", ScopeID: "s", ActorID: "a", At: clk.Now()})

	st := eng.Stats()
	if st.IngestErrors != 2 {
		t.Fatalf("IngestErrors = %d, want 2", st.IngestErrors)
	}
	if st.Processed != 0 {
		t.Fatalf("malformed events counted as processed")
	}
	if got := log.Recent(detdom.Query{}); len(got) != 0 {
		t.Fatalf("malformed events produced detections")
	}
}

func TestHandle_DisabledScopeSkipsPipeline(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	s := setdom.Defaults()
	s.DisabledScopes = []string{"scope-1"}
	eng, log := newEngine(clk, s)

	for i := 0; i < 10; i++ {
		eng.Handle(context.Background(), msg("actor", "spam", clk.Now()))
	}
	if got := log.Recent(detdom.Query{}); len(got) != 0 {
		t.Fatalf("disabled scope produced detections")
	}
}

func TestHandle_CleanTrafficStaysQuiet(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	eng, log := newEngine(clk, setdom.Defaults())
	ctx := context.Background()

	lines := []string{"morning all", "anyone up for a game", "sure, in an hour", "sounds good"}
	for i, l := range lines {
		clk.Advance(time.Minute)
		eng.Handle(ctx, msg(fmt.Sprintf("user-%d", i%2), l, clk.Now()))
	}
	if got := log.Recent(detdom.Query{}); len(got) != 0 {
		t.Fatalf("clean traffic produced %d detections", len(got))
	}
}

func TestHandle_JoinBurstEmitsRaidDetection(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	eng, log := newEngine(clk, setdom.Defaults())
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		clk.Advance(time.Second)
		eng.Handle(ctx, event.Event{
			Kind: event.KindJoin, ScopeID: "scope-1",
			ActorID:  fmt.Sprintf("bot-%d", i),
			Username: fmt.Sprintf("raider%03d", i),
			At:       clk.Now(), AccountAge: time.Hour,
			AvatarSet: true, HasAvatar: false,
		})
	}

	got := log.Recent(detdom.Query{Kind: detdom.KindRaid})
	if len(got) != 1 {
		t.Fatalf("raid burst produced %d detections, want 1", len(got))
	}
	if got[0].Composite < 0.7 {
		t.Fatalf("raid score = %v, want >= 0.7", got[0].Composite)
	}
	if got[0].Details["participants"] == nil {
		t.Fatalf("raid detection missing participants")
	}
}

func TestSweep_KeepsHistoryInsideConfiguredWindow(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	s := setdom.Defaults()
	s.RapidWindowSec = 1800
	eng, log := newEngine(clk, s)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		clk.Advance(time.Second)
		eng.Handle(ctx, msg("flooder", fmt.Sprintf("hello %d", i), clk.Now()))
	}

	// well past the default retention but inside the 30m rapid window
	clk.Advance(11 * time.Minute)
	eng.sweepIdleWindows()
	if eng.Stats().LiveWindows == 0 {
		t.Fatalf("sweep removed history still inside the configured rapid window")
	}

	eng.Handle(ctx, msg("flooder", "hello again", clk.Now()))
	got := log.Recent(detdom.Query{Kind: detdom.KindSpam})
	if len(got) == 0 || !hasThreat(got[0], detect.KindRapidMessage) {
		t.Fatalf("5th message inside the rapid window raised no rapid threat, got %+v", got)
	}

	// once the window plus margin has fully elapsed the keys go
	clk.Advance(35 * time.Minute)
	eng.sweepIdleWindows()
	if n := eng.Stats().LiveWindows; n != 0 {
		t.Fatalf("sweep kept %d windows past the configured retention", n)
	}
}

func TestSweepLoop_DecayDrivenByClock(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	eng, _ := newEngine(clk, setdom.Defaults())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.sweepLoop(ctx)

	// let the loop register its tickers
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 5; i++ {
		clk.Advance(time.Second)
		eng.Handle(ctx, msg("flooder", "x", clk.Now()))
	}
	if eng.Suspicion("scope-1", "flooder") == 0 {
		t.Fatalf("no suspicion to decay")
	}

	for i := 0; i < 12; i++ {
		clk.Tick(5 * time.Minute)
	}
	deadline := time.Now().Add(2 * time.Second)
	for eng.Suspicion("scope-1", "flooder") > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("suspicion never decayed to zero, value %v",
				eng.Suspicion("scope-1", "flooder"))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func hasThreat(d detdom.Detection, k detect.Kind) bool {
	for _, t := range d.ThreatKinds {
		if t == k {
			return true
		}
	}
	return false
}
