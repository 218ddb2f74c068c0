package detect

import (
	"regexp"
	"unicode"
)

var invitePattern = regexp.MustCompile(`(?i)(discord\.(gg|io|me)|discord(app)?\.com/invite)/[A-Za-z0-9-]+`)

// Content scores a single message's text without any window state.
// Additive factors: invite link, emoji flood, shouting, repeated characters.
// Threat when the total crosses 0.8
func Content(text string) Result {
	score := 0.0
	details := map[string]any{}

	if invitePattern.MatchString(text) {
		score += 0.6
		details["invite_link"] = true
	}
	if n := emojiCount(text); n > 10 {
		score += 0.3
		details["emoji_count"] = n
	}
	if upper := upperRatio(text); len([]rune(text)) > 10 && upper > 0.7 {
		score += 0.4
		details["upper_ratio"] = upper
	}
	if repeatedRun(text) >= 5 {
		score += 0.3
		details["repeated_chars"] = true
	}

	return Result{
		Kind:    KindSuspiciousContent,
		Score:   score,
		Threat:  score > 0.8,
		Details: details,
	}
}

// emojiCount counts runes in the common emoji and symbol planes
func emojiCount(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF, // pictographs, emoticons, extended
			r >= 0x2600 && r <= 0x27BF, // misc symbols, dingbats
			r == 0x2764:                // heavy heart
			n++
		}
	}
	return n
}

// upperRatio returns the upper-case fraction over letters; 0 without letters
func upperRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// repeatedRun returns the longest run of one repeated rune
func repeatedRun(s string) int {
	best, run := 0, 0
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			run++
		} else {
			run = 1
			prev = r
		}
		if run > best {
			best = run
		}
	}
	return best
}
