// Package replay feeds the engine from a JSONL event dump, one event per
// line, so operators can re-run historical traffic through the detectors
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"time"

	"modguard/internal/core/event"
	perr "modguard/internal/platform/errors"
	"modguard/internal/platform/logger"
)

// line is the wire form of one replayed event
type line struct {
	Kind         string    `json:"kind"`
	ScopeID      string    `json:"scope_id"`
	ActorID      string    `json:"actor_id"`
	ChannelID    string    `json:"channel_id"`
	MessageID    string    `json:"message_id"`
	At           time.Time `json:"at"`
	Roles        []string  `json:"roles"`
	Content      string    `json:"content"`
	MentionCount int       `json:"mention_count"`
	MassMention  bool      `json:"mass_mention"`
	Username     string    `json:"username"`
	AccountAgeMs int64     `json:"account_age_ms"`
	HasAvatar    *bool     `json:"has_avatar"`
}

// Source replays events from r
type Source struct {
	r io.Reader
}

// New wraps r, typically os.Stdin
func New(r io.Reader) *Source {
	return &Source{r: r}
}

// Subscribe decodes each line and hands it to fn. Undecodable lines are
// logged and skipped; malformed-but-decodable events are left for the
// engine's own validation so its ingest error counter sees them
func (s *Source) Subscribe(ctx context.Context, fn func(event.Event)) error {
	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			logger.Named("replay").Warn().Err(err).Int("line", n).Msg("skipping bad line")
			n++
			continue
		}
		fn(l.event())
		n++
	}
	if err := sc.Err(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "replay scan")
	}
	logger.Named("replay").Info().Int("events", n).Msg("replay complete")
	return nil
}

func (l line) event() event.Event {
	ev := event.Event{
		Kind:         event.Kind(l.Kind),
		ScopeID:      l.ScopeID,
		ActorID:      l.ActorID,
		ChannelID:    l.ChannelID,
		MessageID:    l.MessageID,
		At:           l.At,
		Roles:        l.Roles,
		Content:      l.Content,
		MentionCount: l.MentionCount,
		MassMention:  l.MassMention,
		Username:     l.Username,
		AccountAge:   time.Duration(l.AccountAgeMs) * time.Millisecond,
	}
	if l.HasAvatar != nil {
		ev.AvatarSet = true
		ev.HasAvatar = *l.HasAvatar
	}
	return ev
}
