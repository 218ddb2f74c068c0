// Package service maps detections to moderation actions.
// Dispatch is fire-and-forget: actuator calls run out of band with a short
// timeout, failures are logged with the detection id and never retried
package service

import (
	"context"
	"fmt"
	"time"

	"modguard/internal/platform/logger"
	detdom "modguard/internal/services/detections/domain"
	"modguard/internal/services/dispatch/domain"
	setdom "modguard/internal/services/settings/domain"
)

// actuatorTimeout bounds each actuator call; a timeout is a dispatch failure
const actuatorTimeout = 5 * time.Second

// Svc decides and dispatches moderation actions
type Svc struct {
	act domain.ActuatorPort
}

// New constructs the dispatcher. act may be nil to disable actions entirely
func New(act domain.ActuatorPort) *Svc {
	return &Svc{act: act}
}

// Message dispatches actions for a spam detection per the snapshot's
// auto-moderation toggles. Returns immediately; actions run out of band
func (s *Svc) Message(d detdom.Detection, sn *setdom.Snapshot) {
	if s.act == nil {
		return
	}
	if sn.Settings.AutoDelete && d.Composite > domain.DeleteAbove &&
		d.ChannelID != "" && d.MessageID != "" {
		s.fire(d.ID, "delete_message", func(ctx context.Context) error {
			return s.act.DeleteMessage(ctx, d.ScopeID, d.ChannelID, d.MessageID)
		})
	}
	if sn.Settings.AutoMute && d.Composite > domain.MuteAbove && d.ActorID != "" {
		reason := fmt.Sprintf("spam detection %s (score %.2f)", d.ID, d.Composite)
		s.fire(d.ID, "mute_actor", func(ctx context.Context) error {
			return s.act.MuteActor(ctx, d.ScopeID, d.ActorID, reason)
		})
	}
}

// Raid dispatches kicks for a raid detection's participants, respecting the
// per-burst cap. Participants beyond the cap are left for moderators
func (s *Svc) Raid(d detdom.Detection, participants []string, sn *setdom.Snapshot) {
	if s.act == nil {
		return
	}
	if !sn.Settings.AutoKick || d.Composite <= domain.KickRaidAbove {
		return
	}
	limit := sn.Settings.KickCapPerBurst
	if len(participants) > limit {
		logger.Named("dispatch").Warn().
			Str("detection_id", d.ID).
			Int("participants", len(participants)).
			Int("cap", limit).
			Msg("raid kick cap reached, remainder left to moderators")
		participants = participants[:limit]
	}
	reason := fmt.Sprintf("raid detection %s (score %.2f)", d.ID, d.Composite)
	for _, actorID := range participants {
		actorID := actorID
		s.fire(d.ID, "kick_actor", func(ctx context.Context) error {
			return s.act.KickActor(ctx, d.ScopeID, actorID, reason)
		})
	}
}

// fire runs one actuator call out of band with a bounded context
func (s *Svc) fire(detectionID, action string, call func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), actuatorTimeout)
		defer cancel()
		if err := call(ctx); err != nil {
			logger.Named("dispatch").Error().Err(err).
				Str("detection_id", detectionID).
				Str("action", action).
				Msg("actuator call failed")
		}
	}()
}
