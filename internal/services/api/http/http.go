// Package http mounts the query api: detections, statistics, settings and
// health. The same routes serve the engine's in-memory log or the archive,
// depending on which ports the binary wires in
package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"time"

	perr "modguard/internal/platform/errors"
	phttp "modguard/internal/platform/net/http"
	"modguard/internal/platform/net/http/bind"
	detdom "modguard/internal/services/detections/domain"
	engdom "modguard/internal/services/engine/domain"
	setdom "modguard/internal/services/settings/domain"
)

// DetectionsPort is the read surface behind GET /detections and /stats
type DetectionsPort interface {
	Recent(ctx context.Context, q detdom.Query) ([]detdom.Detection, error)
	Stats(ctx context.Context, scopeID string, days int) (detdom.Stats, error)
}

// SettingsPort is the read/write surface behind /settings
type SettingsPort interface {
	Current() *setdom.Snapshot
	Update(ctx context.Context, p setdom.Patch) (*setdom.Snapshot, error)
}

// HealthPort reports engine liveness counters; nil mounts a bare ok
type HealthPort interface {
	Stats() engdom.Stats
}

// Deps carries the ports the api serves
type Deps struct {
	Detections DetectionsPort
	Settings   SettingsPort
	Health     HealthPort
}

// Mount registers all api routes on r
func Mount(r phttp.Router, d Deps) {
	r.Get("/detections", phttp.JSONHandlerNoBody(func(req *stdhttp.Request) (any, error) {
		q, err := parseQuery(req)
		if err != nil {
			return nil, err
		}
		return d.Detections.Recent(req.Context(), q)
	}))

	r.Get("/stats", phttp.JSONHandlerNoBody(func(req *stdhttp.Request) (any, error) {
		days := 1
		if raw := req.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 90 {
				return nil, perr.InvalidArgf("days must be an integer in [1,90]")
			}
			days = n
		}
		return d.Detections.Stats(req.Context(), req.URL.Query().Get("scope_id"), days)
	}))

	r.Get("/settings", phttp.JSONHandlerNoBody(func(*stdhttp.Request) (any, error) {
		return d.Settings.Current().Settings, nil
	}))

	r.Patch("/settings", phttp.Handle(func(req *stdhttp.Request) phttp.Response {
		patch, err := bind.ParseJSON[setdom.Patch](req)
		if err != nil {
			return phttp.Error(err)
		}
		sn, err := d.Settings.Update(req.Context(), patch)
		if err != nil {
			return phttp.Error(err)
		}
		return phttp.OK(sn.Settings)
	}))

	r.Get("/healthz", phttp.JSONHandlerNoBody(func(*stdhttp.Request) (any, error) {
		if d.Health == nil {
			return map[string]string{"status": "ok"}, nil
		}
		return d.Health.Stats(), nil
	}))
}

func parseQuery(req *stdhttp.Request) (detdom.Query, error) {
	qs := req.URL.Query()
	q := detdom.Query{
		ScopeID: qs.Get("scope_id"),
		Limit:   50,
	}
	switch kind := qs.Get("kind"); kind {
	case "":
	case string(detdom.KindSpam), string(detdom.KindRaid):
		q.Kind = detdom.Kind(kind)
	default:
		return q, perr.InvalidArgf("kind must be spam or raid")
	}
	if raw := qs.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			return q, perr.InvalidArgf("limit must be an integer in [1,500]")
		}
		q.Limit = n
	}
	var err error
	if q.Since, err = parseTime(qs.Get("since")); err != nil {
		return q, perr.WithField(err, "since")
	}
	if q.Until, err = parseTime(qs.Get("until")); err != nil {
		return q, perr.WithField(err, "until")
	}
	return q, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, perr.InvalidArgf("must be RFC3339")
	}
	return t, nil
}
