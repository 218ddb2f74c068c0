package http

import (
	"context"

	detdom "modguard/internal/services/detections/domain"
)

// MemoryDetections adapts the in-memory detection log to the api port
type MemoryDetections struct {
	Log detdom.LogPort
}

var _ DetectionsPort = MemoryDetections{}

// Recent serves from the ring buffers
func (m MemoryDetections) Recent(_ context.Context, q detdom.Query) ([]detdom.Detection, error) {
	return m.Log.Recent(q), nil
}

// Stats aggregates the ring buffers
func (m MemoryDetections) Stats(_ context.Context, scopeID string, days int) (detdom.Stats, error) {
	return m.Log.Stats(scopeID, days), nil
}
