// Package repo archives detections to clickhouse for long-term analysis.
// The in-memory log is the source of truth for the query api; this table is
// an append-only firehose
package repo

import (
	"context"
	"encoding/json"
	"time"

	"modguard/internal/core/detect"
	perr "modguard/internal/platform/errors"
	"modguard/internal/platform/store"
	"modguard/internal/services/detections/domain"
)

const table = "detections"

// CH implements domain.ArchivePort over the clickhouse seam
type CH struct {
	ch store.Clickhouse
}

// NewCH constructs the clickhouse archive
func NewCH(ch store.Clickhouse) *CH {
	return &CH{ch: ch}
}

var _ domain.ArchivePort = (*CH)(nil)

// Archive appends one detection row
func (r *CH) Archive(ctx context.Context, d domain.Detection) error {
	threats := make([]string, 0, len(d.ThreatKinds))
	for _, k := range d.ThreatKinds {
		threats = append(threats, string(k))
	}
	details, err := json.Marshal(d.Details)
	if err != nil {
		return perr.JSONErrf("encode detection details: %v", err)
	}
	err = r.ch.Insert(ctx, table, [][]any{{
		d.ID,
		string(d.Kind),
		d.ScopeID,
		d.ActorID,
		d.ChannelID,
		d.MessageID,
		d.At,
		d.Composite,
		threats,
		string(details),
	}})
	if err != nil {
		return perr.DBf("archive detection: %v", err)
	}
	return nil
}

// Recent reads archived detections newest first
func (r *CH) Recent(ctx context.Context, q domain.Query) ([]domain.Detection, error) {
	sql := `
		SELECT id, kind, scope_id, actor_id, channel_id, message_id,
		       at, composite, threat_kinds, details
		FROM detections
		WHERE 1 = 1`
	args := []any{}
	if q.ScopeID != "" {
		sql += " AND scope_id = ?"
		args = append(args, q.ScopeID)
	}
	if q.Kind != "" {
		sql += " AND kind = ?"
		args = append(args, string(q.Kind))
	}
	if !q.Since.IsZero() {
		sql += " AND at >= ?"
		args = append(args, q.Since)
	}
	if !q.Until.IsZero() {
		sql += " AND at <= ?"
		args = append(args, q.Until)
	}
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	sql += " ORDER BY at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.ch.Query(ctx, sql, args...)
	if err != nil {
		return nil, perr.DBf("query detections: %v", err)
	}
	defer rows.Close()

	var out []domain.Detection
	for rows.Next() {
		var (
			d       domain.Detection
			kind    string
			threats []string
			details string
		)
		if err := rows.Scan(&d.ID, &kind, &d.ScopeID, &d.ActorID, &d.ChannelID,
			&d.MessageID, &d.At, &d.Composite, &threats, &details); err != nil {
			return nil, perr.DBf("scan detection: %v", err)
		}
		d.Kind = domain.Kind(kind)
		for _, t := range threats {
			d.ThreatKinds = append(d.ThreatKinds, detect.Kind(t))
		}
		if details != "" {
			_ = json.Unmarshal([]byte(details), &d.Details)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.DBf("iterate detections: %v", err)
	}
	return out, nil
}

// Stats aggregates the archive over a trailing days window
func (r *CH) Stats(ctx context.Context, scopeID string, days int) (domain.Stats, error) {
	if days <= 0 {
		days = 1
	}
	st := domain.Stats{Days: days}
	since := time.Duration(days) * 24 * time.Hour

	scopeCond := ""
	args := []any{since.Seconds()}
	if scopeID != "" {
		scopeCond = " AND scope_id = ?"
		args = append(args, scopeID)
	}

	rows, err := r.ch.Query(ctx, `
		SELECT kind, count(), avg(composite)
		FROM detections
		WHERE at >= now() - toIntervalSecond(?)`+scopeCond+`
		GROUP BY kind`, args...)
	if err != nil {
		return st, perr.DBf("query stats: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind  string
			count uint64
			avg   float64
		)
		if err := rows.Scan(&kind, &count, &avg); err != nil {
			return st, perr.DBf("scan stats: %v", err)
		}
		switch domain.Kind(kind) {
		case domain.KindSpam:
			st.SpamCount = int(count)
			st.AvgSpamScore = avg
		case domain.KindRaid:
			st.RaidCount = int(count)
		}
	}
	if err := rows.Err(); err != nil {
		return st, perr.DBf("iterate stats: %v", err)
	}

	trows, err := r.ch.Query(ctx, `
		SELECT threat, count() AS c
		FROM detections
		ARRAY JOIN threat_kinds AS threat
		WHERE at >= now() - toIntervalSecond(?)`+scopeCond+`
		GROUP BY threat
		ORDER BY c DESC, threat
		LIMIT 5`, args...)
	if err != nil {
		return st, perr.DBf("query threat stats: %v", err)
	}
	defer trows.Close()
	for trows.Next() {
		var (
			threat string
			count  uint64
		)
		if err := trows.Scan(&threat, &count); err != nil {
			return st, perr.DBf("scan threat stats: %v", err)
		}
		st.TopThreats = append(st.TopThreats, domain.ThreatCount{
			Kind:  detect.Kind(threat),
			Count: int(count),
		})
	}
	if err := trows.Err(); err != nil {
		return st, perr.DBf("iterate threat stats: %v", err)
	}
	return st, nil
}
