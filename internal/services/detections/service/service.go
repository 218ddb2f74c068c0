// Package service implements the detection log: bounded in-memory history,
// query and statistics, with best-effort archival to clickhouse
package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"modguard/internal/core/detect"
	"modguard/internal/platform/clock"
	"modguard/internal/platform/logger"
	"modguard/internal/services/detections/domain"
)

// archiveTimeout bounds the out-of-band archive write
const archiveTimeout = 3 * time.Second

// Svc implements domain.LogPort backed by per-kind rings
type Svc struct {
	spam    *domain.Ring
	raid    *domain.Ring
	archive domain.ArchivePort // nil disables archival
	clk     clock.Clock
}

var _ domain.LogPort = (*Svc)(nil)

// New constructs the detection log. archive may be nil
func New(clk clock.Clock, archive domain.ArchivePort) *Svc {
	return &Svc{
		spam:    domain.NewRing(domain.SpamCapacity),
		raid:    domain.NewRing(domain.RaidCapacity),
		archive: archive,
		clk:     clk,
	}
}

// Append logs d, assigning an id when missing, and archives it out of band.
// An archive failure is logged and the detection dropped from the archive
// only; the in-memory log always keeps it
func (s *Svc) Append(d domain.Detection) domain.Detection {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.At.IsZero() {
		d.At = s.clk.Now()
	}
	s.ringFor(d.Kind).Append(d)

	if s.archive != nil {
		go func(d domain.Detection) {
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			if err := s.archive.Archive(ctx, d); err != nil {
				logger.Named("detections").Warn().Err(err).
					Str("detection_id", d.ID).
					Msg("archive write failed, dropping")
			}
		}(d)
	}
	return d
}

func (s *Svc) ringFor(k domain.Kind) *domain.Ring {
	if k == domain.KindRaid {
		return s.raid
	}
	return s.spam
}

// Recent returns matching detections newest first
func (s *Svc) Recent(q domain.Query) []domain.Detection {
	var all []domain.Detection
	switch q.Kind {
	case domain.KindSpam:
		all = s.spam.Snapshot()
	case domain.KindRaid:
		all = s.raid.Snapshot()
	default:
		all = append(s.spam.Snapshot(), s.raid.Snapshot()...)
	}

	out := make([]domain.Detection, 0, len(all))
	for _, d := range all {
		if q.ScopeID != "" && d.ScopeID != q.ScopeID {
			continue
		}
		if !q.Since.IsZero() && d.At.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && d.At.After(q.Until) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Stats aggregates the trailing days window. days <= 0 defaults to 1
func (s *Svc) Stats(scopeID string, days int) domain.Stats {
	if days <= 0 {
		days = 1
	}
	since := s.clk.Now().Add(-time.Duration(days) * 24 * time.Hour)

	st := domain.Stats{Days: days}
	threatFreq := map[string]int{}
	spamScoreSum := 0.0

	for _, d := range s.spam.Snapshot() {
		if d.At.Before(since) || (scopeID != "" && d.ScopeID != scopeID) {
			continue
		}
		st.SpamCount++
		spamScoreSum += d.Composite
		for _, k := range d.ThreatKinds {
			threatFreq[string(k)]++
		}
	}
	for _, d := range s.raid.Snapshot() {
		if d.At.Before(since) || (scopeID != "" && d.ScopeID != scopeID) {
			continue
		}
		st.RaidCount++
	}

	if st.SpamCount > 0 {
		st.AvgSpamScore = spamScoreSum / float64(st.SpamCount)
	}
	st.TopThreats = topThreats(threatFreq, 5)
	return st
}

func topThreats(freq map[string]int, n int) []domain.ThreatCount {
	out := make([]domain.ThreatCount, 0, len(freq))
	for k, c := range freq {
		out = append(out, domain.ThreatCount{Kind: detect.Kind(k), Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
