// Package service wires the detection pipeline: whitelist, window update,
// detectors, composite scoring, suspicion, raid analysis, logging, dispatch
// and alerting
package service

import (
	"context"
	"sync/atomic"
	"time"

	"modguard/internal/core/detect"
	"modguard/internal/core/event"
	"modguard/internal/core/raid"
	"modguard/internal/core/suspicion"
	"modguard/internal/core/window"
	"modguard/internal/platform/clock"
	"modguard/internal/platform/logger"
	detdom "modguard/internal/services/detections/domain"
	dispatchsvc "modguard/internal/services/dispatch/service"
	"modguard/internal/services/engine/domain"
	setdom "modguard/internal/services/settings/domain"
)

// alertTimeout bounds each alert sink call
const alertTimeout = 3 * time.Second

// SettingsReader is the snapshot view the pipeline reads on every event
type SettingsReader interface {
	Current() *setdom.Snapshot
}

// Deps carries the engine's collaborators. Source and Alert may be nil
type Deps struct {
	Settings SettingsReader
	Log      detdom.LogPort
	Dispatch *dispatchsvc.Svc
	Source   domain.SourcePort
	Alert    domain.AlertPort
	Clock    clock.Clock
}

// Svc runs the detection pipeline
type Svc struct {
	deps Deps

	windows   *window.Store
	suspicion *suspicion.Tracker
	raid      *raid.Analyzer

	processed   atomic.Uint64
	ingestErrs  atomic.Uint64
	detections  atomic.Uint64
	decaySweeps atomic.Uint64
}

// New constructs the engine
func New(deps Deps) *Svc {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &Svc{
		deps:      deps,
		windows:   window.NewStore(deps.Clock),
		suspicion: suspicion.NewTracker(deps.Clock),
		raid:      raid.NewAnalyzer(deps.Clock),
	}
}

// Run subscribes to the event source and drives the background sweeps until
// ctx is done
func (s *Svc) Run(ctx context.Context) error {
	go s.sweepLoop(ctx)
	if s.deps.Source == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.deps.Source.Subscribe(ctx, func(ev event.Event) {
		s.Handle(ctx, ev)
	})
}

// Handle runs one event through the pipeline. Malformed events are dropped
// and counted, never propagated
func (s *Svc) Handle(ctx context.Context, ev event.Event) {
	if err := ev.Validate(); err != nil {
		s.ingestErrs.Add(1)
		logger.Named("engine").Debug().Err(err).Msg("dropping malformed event")
		return
	}
	ctx = logger.WithEvent(ctx, ev.ScopeID, ev.ActorID)

	sn := s.deps.Settings.Current()
	if !sn.ScopeEnabled(ev.ScopeID) {
		return
	}
	if sn.Exempt(ev.ActorID, ev.ChannelID, ev.Roles) {
		return
	}
	s.processed.Add(1)

	switch ev.Kind {
	case event.KindMessage:
		s.handleMessage(ctx, ev, sn)
	case event.KindJoin:
		s.handleJoin(ctx, ev, sn)
	}
}

func (s *Svc) handleMessage(ctx context.Context, ev event.Event, sn *setdom.Snapshot) {
	cfg := sn.Detect
	links := ev.Links
	if links == nil {
		links = detect.ExtractLinks(ev.Content)
	}

	rapidWin := s.windows.AppendRecent(
		s.key(detect.KindRapidMessage, ev),
		window.Entry{At: ev.At},
		cfg.RapidWindow,
	)
	identWin := s.windows.AppendRecent(
		s.key(detect.KindIdenticalContent, ev),
		window.Entry{At: ev.At, Content: ev.Content},
		cfg.IdenticalWindow,
	)
	linkWin := s.windows.AppendRecent(
		s.key(detect.KindLinkSpam, ev),
		window.Entry{At: ev.At, Links: links},
		cfg.LinkWindow,
	)
	mentionWin := s.windows.AppendRecent(
		s.key(detect.KindMentionSpam, ev),
		window.Entry{At: ev.At, MentionCount: ev.MentionCount, MassMention: ev.MassMention},
		cfg.MentionWindow,
	)

	outcome := detect.Combine([]detect.Result{
		detect.Rapid(rapidWin, cfg),
		detect.Identical(identWin, cfg),
		detect.Links(linkWin, cfg),
		detect.Mentions(mentionWin, cfg),
		detect.Content(ev.Content),
	})

	value := s.suspicion.Bump(
		suspicion.Key{ScopeID: ev.ScopeID, ActorID: ev.ActorID},
		outcome.Composite,
	)

	if !outcome.Emit() {
		return
	}
	s.detections.Add(1)

	details := map[string]any{"suspicion": value}
	for _, r := range outcome.Results {
		if r.Score > 0 {
			details[string(r.Kind)] = r.Details
		}
	}
	d := detdom.Detection{
		Kind:        detdom.KindSpam,
		ScopeID:     ev.ScopeID,
		ActorID:     ev.ActorID,
		ChannelID:   ev.ChannelID,
		MessageID:   ev.MessageID,
		At:          ev.At,
		Composite:   outcome.Composite,
		ThreatKinds: outcome.Threats,
		Details:     details,
	}
	logger.C(ctx).Info().
		Float64("composite", d.Composite).
		Interface("threats", d.ThreatKinds).
		Msg("spam detection")

	s.emit(ctx, d, nil, sn)
}

func (s *Svc) handleJoin(ctx context.Context, ev event.Event, sn *setdom.Snapshot) {
	burst, ok := s.raid.Observe(ev.ScopeID, raid.Join{
		ActorID:    ev.ActorID,
		Username:   ev.Username,
		At:         ev.At,
		AccountAge: ev.AccountAge,
		HasAvatar:  ev.HasAvatar,
		AvatarSet:  ev.AvatarSet,
	}, sn.Raid)
	if !ok {
		return
	}
	s.detections.Add(1)

	participants := make([]string, 0, len(burst.Joiners))
	for _, j := range burst.Joiners {
		participants = append(participants, j.ActorID)
	}
	d := detdom.Detection{
		Kind:      detdom.KindRaid,
		ScopeID:   ev.ScopeID,
		At:        ev.At,
		Composite: burst.Score,
		Details: map[string]any{
			"joins":                  len(burst.Joiners),
			"new_account_ratio":      burst.NewAccountRatio,
			"no_avatar_ratio":        burst.NoAvatarRatio,
			"similar_username_ratio": burst.SimilarUsernameRatio,
			"participants":           participants,
		},
	}
	logger.C(ctx).Warn().
		Float64("score", d.Composite).
		Int("joins", len(burst.Joiners)).
		Msg("raid detection")

	s.emit(ctx, d, participants, sn)
}

// emit logs the detection, dispatches actions and fans out the alert.
// The alert is out of band so a slow sink never stalls ingestion
func (s *Svc) emit(ctx context.Context, d detdom.Detection, participants []string, sn *setdom.Snapshot) {
	d = s.deps.Log.Append(d)

	if s.deps.Dispatch != nil {
		if d.Kind == detdom.KindRaid {
			s.deps.Dispatch.Raid(d, participants, sn)
		} else {
			s.deps.Dispatch.Message(d, sn)
		}
	}
	if s.deps.Alert != nil {
		go func() {
			actx, cancel := context.WithTimeout(context.Background(), alertTimeout)
			defer cancel()
			if err := s.deps.Alert.Notify(actx, d); err != nil {
				logger.Named("engine").Warn().Err(err).
					Str("detection_id", d.ID).
					Msg("alert delivery failed")
			}
		}()
	}
}

func (s *Svc) key(k detect.Kind, ev event.Event) window.Key {
	return window.Key{Detector: string(k), ScopeID: ev.ScopeID, ActorID: ev.ActorID}
}

// Stats snapshots the engine's health counters
func (s *Svc) Stats() domain.Stats {
	return domain.Stats{
		Processed:      s.processed.Load(),
		IngestErrors:   s.ingestErrs.Load(),
		Detections:     s.detections.Load(),
		TrackedActors:  s.suspicion.Len(),
		LiveWindows:    s.windows.Len(),
		RaidScopes:     s.raid.Scopes(),
		SuspicionSweep: s.decaySweeps.Load(),
	}
}
