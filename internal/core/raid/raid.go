// Package raid evaluates bursts of member joins for coordinated-raid
// likelihood. Each scope owns a sliding join window; when the window crosses
// the mass-join threshold the joiners are scored on account freshness,
// missing avatars and generated-looking usernames
package raid

import (
	"strings"
	"sync"
	"time"

	"modguard/internal/platform/clock"
)

// Join is one member-join observation inside a scope's window
type Join struct {
	ActorID    string
	Username   string
	At         time.Time
	AccountAge time.Duration // 0 = unknown, treated as old
	HasAvatar  bool
	AvatarSet  bool
}

// Config carries the raid detection tuning
type Config struct {
	Window        time.Duration // mass-join window
	Threshold     int           // joins inside the window to trigger
	NewAccountAge time.Duration // accounts younger than this count as fresh
}

// DefaultConfig returns the stock raid tuning
func DefaultConfig() Config {
	return Config{
		Window:        5 * time.Minute,
		Threshold:     10,
		NewAccountAge: 7 * 24 * time.Hour,
	}
}

// Sanitized replaces non-positive values with defaults
func (c Config) Sanitized() Config {
	d := DefaultConfig()
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Threshold <= 0 {
		c.Threshold = d.Threshold
	}
	if c.NewAccountAge <= 0 {
		c.NewAccountAge = d.NewAccountAge
	}
	return c
}

// Burst is an over-threshold join window scored for raid likelihood
type Burst struct {
	Score                float64
	NewAccountRatio      float64
	NoAvatarRatio        float64
	SimilarUsernameRatio float64
	Joiners              []Join
}

type scopeState struct {
	mu     sync.Mutex
	joins  []Join
	active bool // true while a detected burst is still above threshold
}

// Analyzer holds per-scope join windows
type Analyzer struct {
	mu     sync.Mutex
	scopes map[string]*scopeState
	clk    clock.Clock
}

// NewAnalyzer builds an empty Analyzer using clk as its time source
func NewAnalyzer(clk clock.Clock) *Analyzer {
	return &Analyzer{scopes: make(map[string]*scopeState), clk: clk}
}

func (a *Analyzer) scopeFor(id string) *scopeState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.scopes[id]
	if !ok {
		st = &scopeState{}
		a.scopes[id] = st
	}
	return st
}

// Observe appends a join to the scope's window and reports a Burst the first
// time the pruned window crosses the threshold. While the same contiguous
// burst remains above threshold no further Burst is reported
func (a *Analyzer) Observe(scopeID string, j Join, cfg Config) (Burst, bool) {
	cfg = cfg.Sanitized()
	st := a.scopeFor(scopeID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.joins = append(st.joins, j)
	st.joins = pruneJoins(st.joins, a.clk.Now().Add(-cfg.Window))

	if len(st.joins) < cfg.Threshold {
		st.active = false
		return Burst{}, false
	}
	if st.active {
		return Burst{}, false
	}
	st.active = true
	return scoreBurst(st.joins, cfg), true
}

// Prune drops stale joins from every scope window and clears burst
// suppression once a window falls back under threshold. Empty scopes are
// removed. Intended for a periodic background task
func (a *Analyzer) Prune(cfg Config) {
	cfg = cfg.Sanitized()
	cutoff := a.clk.Now().Add(-cfg.Window)

	a.mu.Lock()
	scopes := make(map[string]*scopeState, len(a.scopes))
	for id, st := range a.scopes {
		scopes[id] = st
	}
	a.mu.Unlock()

	for id, st := range scopes {
		st.mu.Lock()
		st.joins = pruneJoins(st.joins, cutoff)
		if len(st.joins) < cfg.Threshold {
			st.active = false
		}
		empty := len(st.joins) == 0
		st.mu.Unlock()
		if empty {
			a.mu.Lock()
			if cur, ok := a.scopes[id]; ok && cur == st {
				delete(a.scopes, id)
			}
			a.mu.Unlock()
		}
	}
}

// Scopes reports the number of scopes with live join windows
func (a *Analyzer) Scopes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.scopes)
}

func pruneJoins(joins []Join, cutoff time.Time) []Join {
	kept := joins[:0]
	for _, j := range joins {
		if !j.At.Before(cutoff) {
			kept = append(kept, j)
		}
	}
	return kept
}

// scoreBurst weighs fresh accounts, missing avatars and colliding
// digit-stripped usernames
func scoreBurst(joins []Join, cfg Config) Burst {
	total := float64(len(joins))
	fresh, noAvatar := 0, 0
	stripped := make(map[string]int, len(joins))
	for _, j := range joins {
		if j.AccountAge > 0 && j.AccountAge < cfg.NewAccountAge {
			fresh++
		}
		if j.AvatarSet && !j.HasAvatar {
			noAvatar++
		}
		stripped[stripDigits(j.Username)]++
	}
	similar := 0
	for _, j := range joins {
		if stripped[stripDigits(j.Username)] > 1 {
			similar++
		}
	}

	b := Burst{
		NewAccountRatio:      float64(fresh) / total,
		NoAvatarRatio:        float64(noAvatar) / total,
		SimilarUsernameRatio: float64(similar) / total,
		Joiners:              append([]Join(nil), joins...),
	}
	b.Score = 0.4*b.NewAccountRatio + 0.3*b.NoAvatarRatio + 0.3*b.SimilarUsernameRatio
	return b
}

func stripDigits(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s))
}
