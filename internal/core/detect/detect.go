// Package detect holds the pure pattern detectors and the composite scorer.
// Every detector is a pure function over a window snapshot plus config; no
// detector reads or writes state outside the window it is handed
package detect

import "time"

// Kind names one detector / threat category
type Kind string

const (
	// KindRapidMessage flags message-rate flooding
	KindRapidMessage Kind = "rapid_message"
	// KindIdenticalContent flags repeated identical messages
	KindIdenticalContent Kind = "identical_content"
	// KindLinkSpam flags link flooding and abusive domains
	KindLinkSpam Kind = "link_spam"
	// KindMentionSpam flags mention flooding and mass mentions
	KindMentionSpam Kind = "mention_spam"
	// KindSuspiciousContent flags single-message content heuristics
	KindSuspiciousContent Kind = "suspicious_content"
)

// Result is one detector's verdict over its window
type Result struct {
	Kind    Kind
	Score   float64
	Threat  bool
	Details map[string]any
}

// Config carries per-detector thresholds and time windows
type Config struct {
	RapidThreshold int
	RapidWindow    time.Duration

	IdenticalThreshold int
	IdenticalWindow    time.Duration

	LinkThreshold int
	LinkWindow    time.Duration

	MentionThreshold int
	MentionWindow    time.Duration
}

// DefaultConfig returns the stock thresholds
func DefaultConfig() Config {
	return Config{
		RapidThreshold:     5,
		RapidWindow:        30 * time.Second,
		IdenticalThreshold: 3,
		IdenticalWindow:    60 * time.Second,
		LinkThreshold:      3,
		LinkWindow:         60 * time.Second,
		MentionThreshold:   5,
		MentionWindow:      30 * time.Second,
	}
}

// Sanitized replaces non-positive thresholds and windows with defaults so a
// bad settings payload can never silently disable a detector
func (c Config) Sanitized() Config {
	d := DefaultConfig()
	if c.RapidThreshold <= 0 {
		c.RapidThreshold = d.RapidThreshold
	}
	if c.RapidWindow <= 0 {
		c.RapidWindow = d.RapidWindow
	}
	if c.IdenticalThreshold <= 0 {
		c.IdenticalThreshold = d.IdenticalThreshold
	}
	if c.IdenticalWindow <= 0 {
		c.IdenticalWindow = d.IdenticalWindow
	}
	if c.LinkThreshold <= 0 {
		c.LinkThreshold = d.LinkThreshold
	}
	if c.LinkWindow <= 0 {
		c.LinkWindow = d.LinkWindow
	}
	if c.MentionThreshold <= 0 {
		c.MentionThreshold = d.MentionThreshold
	}
	if c.MentionWindow <= 0 {
		c.MentionWindow = d.MentionWindow
	}
	return c
}

// ratio clamps count/threshold to [0,1]
func ratio(count, threshold int) float64 {
	if threshold <= 0 {
		return 0
	}
	r := float64(count) / float64(threshold)
	if r > 1 {
		return 1
	}
	return r
}
