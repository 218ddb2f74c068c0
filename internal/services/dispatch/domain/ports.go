// Package domain defines the moderation actuator port and dispatch policy
// thresholds
package domain

import "context"

// Policy thresholds for automatic moderation
const (
	// DeleteAbove deletes the offending message
	DeleteAbove = 0.8
	// MuteAbove mutes the actor
	MuteAbove = 0.9
	// KickRaidAbove kicks raid participants
	KickRaidAbove = 0.7
)

// ActuatorPort executes moderation actions against the chat platform.
// Every call may fail independently; failures are non-fatal to the caller
type ActuatorPort interface {
	DeleteMessage(ctx context.Context, scopeID, channelID, messageID string) error
	MuteActor(ctx context.Context, scopeID, actorID, reason string) error
	KickActor(ctx context.Context, scopeID, actorID, reason string) error
}
