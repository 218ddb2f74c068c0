// Package domain defines detection records, the bounded in-memory log and
// its query surface
package domain

import (
	"context"
	"time"

	"modguard/internal/core/detect"
)

// Kind discriminates the detection families
type Kind string

const (
	// KindSpam is a message-level detection
	KindSpam Kind = "spam"
	// KindRaid is a coordinated mass-join detection
	KindRaid Kind = "raid"
)

// Log capacities per kind; oldest evicted first
const (
	SpamCapacity = 500
	RaidCapacity = 100
)

// Detection is one emitted finding, immutable once logged
type Detection struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	ScopeID     string         `json:"scope_id"`
	ActorID     string         `json:"actor_id,omitempty"` // empty on raid detections
	ChannelID   string         `json:"channel_id,omitempty"`
	MessageID   string         `json:"message_id,omitempty"`
	At          time.Time      `json:"at"`
	Composite   float64        `json:"composite_score"`
	ThreatKinds []detect.Kind  `json:"threat_kinds,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// Query filters the detection log
type Query struct {
	ScopeID string
	Kind    Kind // empty matches both
	Since   time.Time
	Until   time.Time
	Limit   int
}

// ThreatCount is one threat kind with its frequency
type ThreatCount struct {
	Kind  detect.Kind `json:"kind"`
	Count int         `json:"count"`
}

// Stats aggregates the log over a trailing window
type Stats struct {
	Days         int           `json:"days"`
	SpamCount    int           `json:"spam_count"`
	RaidCount    int           `json:"raid_count"`
	AvgSpamScore float64       `json:"avg_spam_score"`
	TopThreats   []ThreatCount `json:"top_threats"`
}

// LogPort is the in-memory detection history.
// Append returns the stored record so callers see the assigned id
type LogPort interface {
	Append(d Detection) Detection
	Recent(q Query) []Detection
	Stats(scopeID string, days int) Stats
}

// ArchivePort persists detections out of band; failures must never block
// or fail the in-memory append
type ArchivePort interface {
	Archive(ctx context.Context, d Detection) error
}
