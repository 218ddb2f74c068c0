package detect

import (
	"strings"

	"modguard/internal/core/window"
)

// normalizeContent folds case and trims surrounding whitespace so cosmetic
// variation does not defeat repeat counting
func normalizeContent(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Identical scores repeated message content: the max repeat count of any
// normalized string in the window, threat at threshold
func Identical(win []window.Entry, cfg Config) Result {
	counts := make(map[string]int, len(win))
	maxRepeats := 0
	var repeated string
	for _, e := range win {
		n := normalizeContent(e.Content)
		if n == "" {
			continue
		}
		counts[n]++
		if counts[n] > maxRepeats {
			maxRepeats = counts[n]
			repeated = n
		}
	}
	details := map[string]any{
		"max_repeats": maxRepeats,
		"threshold":   cfg.IdenticalThreshold,
	}
	if maxRepeats >= cfg.IdenticalThreshold {
		details["content"] = repeated
	}
	return Result{
		Kind:    KindIdenticalContent,
		Score:   ratio(maxRepeats, cfg.IdenticalThreshold),
		Threat:  maxRepeats >= cfg.IdenticalThreshold,
		Details: details,
	}
}
