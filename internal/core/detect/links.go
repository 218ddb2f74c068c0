package detect

import (
	"regexp"
	"strings"

	"modguard/internal/core/window"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// suspiciousDomains lists shorteners and grabber hosts commonly used to mask
// malicious destinations. Matched against the host and its parent domains
var suspiciousDomains = map[string]struct{}{
	"bit.ly":       {},
	"tinyurl.com":  {},
	"goo.gl":       {},
	"is.gd":        {},
	"cutt.ly":      {},
	"t.co":         {},
	"grabify.link": {},
	"iplogger.org": {},
	"2no.co":       {},
}

// suspiciousTLDs are free registrars with heavy abuse rates
var suspiciousTLDs = map[string]struct{}{
	"tk": {},
	"ml": {},
	"ga": {},
	"cf": {},
	"gq": {},
}

// ExtractLinks pulls URLs out of message content
func ExtractLinks(content string) []string {
	return urlPattern.FindAllString(content, -1)
}

// linkHost strips scheme, path, port and userinfo from a matched URL
func linkHost(raw string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// SuspiciousHost reports whether a URL points at a known-abusive domain or TLD
func SuspiciousHost(raw string) bool {
	host := linkHost(raw)
	if host == "" {
		return false
	}
	// walk parent domains so sub.grabify.link matches too
	for h := host; h != ""; {
		if _, ok := suspiciousDomains[h]; ok {
			return true
		}
		i := strings.Index(h, ".")
		if i < 0 {
			break
		}
		h = h[i+1:]
	}
	if i := strings.LastIndex(host, "."); i >= 0 {
		if _, ok := suspiciousTLDs[host[i+1:]]; ok {
			return true
		}
	}
	return false
}

// Links scores link flooding. The base score is clamped but the suspicious
// domain bonus is additive on top, so the total may exceed 1 to signal
// severity; threat at threshold or on any suspicious domain
func Links(win []window.Entry, cfg Config) Result {
	count := 0
	suspicious := 0
	for _, e := range win {
		count += len(e.Links)
		for _, l := range e.Links {
			if SuspiciousHost(l) {
				suspicious++
			}
		}
	}
	return Result{
		Kind:   KindLinkSpam,
		Score:  ratio(count, cfg.LinkThreshold) + 0.3*float64(suspicious),
		Threat: count >= cfg.LinkThreshold || suspicious > 0,
		Details: map[string]any{
			"link_count":       count,
			"suspicious_count": suspicious,
			"threshold":        cfg.LinkThreshold,
		},
	}
}
