// Package event defines the normalized event records the engine ingests
package event

import (
	"time"

	perr "modguard/internal/platform/errors"
)

// Kind discriminates the event types the engine understands
type Kind string

const (
	// KindMessage is a chat message creation
	KindMessage Kind = "message"
	// KindJoin is a member joining a scope
	KindJoin Kind = "join"
)

// Event is one normalized occurrence from the platform event source.
// Immutable once ingested. Optional fields default to the least
// suspicious value when the source omits them
type Event struct {
	Kind      Kind
	ScopeID   string
	ActorID   string
	ChannelID string
	MessageID string
	At        time.Time
	Roles     []string // actor's role ids within the scope

	// message fields
	Content      string
	MentionCount int
	MassMention  bool // @everyone / @here
	Links        []string

	// join fields
	Username   string
	AccountAge time.Duration // 0 = unknown, treated as old
	HasAvatar  bool
	AvatarSet  bool // false when the source did not report avatar state
}

// Validate rejects events missing the fields every pipeline stage relies on
func (e Event) Validate() error {
	switch e.Kind {
	case KindMessage, KindJoin:
	default:
		return perr.MalformedEventf("unknown event kind %q", e.Kind)
	}
	if e.ScopeID == "" {
		return perr.MalformedEventf("missing scope id")
	}
	if e.ActorID == "" {
		return perr.MalformedEventf("missing actor id")
	}
	if e.At.IsZero() {
		return perr.MalformedEventf("missing timestamp")
	}
	return nil
}

// NewAccount reports whether the joiner should count as a fresh account.
// Unknown account age (zero) counts as old
func (e Event) NewAccount(maxAge time.Duration) bool {
	return e.AccountAge > 0 && e.AccountAge < maxAge
}

// NoAvatar reports whether the joiner lacks a custom avatar.
// An unreported avatar state counts as having one
func (e Event) NoAvatar() bool {
	return e.AvatarSet && !e.HasAvatar
}
