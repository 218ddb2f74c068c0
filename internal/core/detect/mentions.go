package detect

import "modguard/internal/core/window"

// Mentions scores mention flooding: the sum of mention counts across the
// window plus a flat bonus when @everyone/@here was used; threat at
// threshold or on any mass mention
func Mentions(win []window.Entry, cfg Config) Result {
	total := 0
	mass := false
	for _, e := range win {
		total += e.MentionCount
		if e.MassMention {
			mass = true
		}
	}
	score := ratio(total, cfg.MentionThreshold)
	if mass {
		score += 0.5
	}
	return Result{
		Kind:   KindMentionSpam,
		Score:  score,
		Threat: total >= cfg.MentionThreshold || mass,
		Details: map[string]any{
			"total":        total,
			"mass_mention": mass,
			"threshold":    cfg.MentionThreshold,
		},
	}
}
