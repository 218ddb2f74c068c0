// Package domain defines the engine's ports to the outside world
package domain

import (
	"context"

	"modguard/internal/core/event"
	detdom "modguard/internal/services/detections/domain"
)

// SourcePort delivers normalized events from the chat platform.
// Subscribe blocks until ctx is done, invoking fn for every event
type SourcePort interface {
	Subscribe(ctx context.Context, fn func(event.Event)) error
}

// AlertPort notifies moderators of an emitted detection.
// Delivery failure must never affect detection persistence
type AlertPort interface {
	Notify(ctx context.Context, d detdom.Detection) error
}

// Stats is the engine's health counter snapshot
type Stats struct {
	Processed      uint64 `json:"processed"`
	IngestErrors   uint64 `json:"ingest_errors"`
	Detections     uint64 `json:"detections"`
	TrackedActors  int    `json:"tracked_actors"`
	LiveWindows    int    `json:"live_windows"`
	RaidScopes     int    `json:"raid_scopes"`
	SuspicionSweep uint64 `json:"suspicion_sweeps"`
}
