package detect

import "modguard/internal/core/window"

// Rapid scores message-rate flooding: the count of messages one actor sent
// inside the rapid window, threat at threshold
func Rapid(win []window.Entry, cfg Config) Result {
	count := len(win)
	return Result{
		Kind:   KindRapidMessage,
		Score:  ratio(count, cfg.RapidThreshold),
		Threat: count >= cfg.RapidThreshold,
		Details: map[string]any{
			"count":     count,
			"threshold": cfg.RapidThreshold,
		},
	}
}
