package enrich

import (
	"regexp"
	"strings"
)

// Fixed pattern set for resolving an external profile identifier from resume
// text. Profile URLs are the strongest signal; explicit "github: name" labels
// come second.
var profilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)github\.com/([A-Za-z0-9](?:[A-Za-z0-9-]{0,37}[A-Za-z0-9])?)`),
	regexp.MustCompile(`(?i)github\s*[:@]\s*@?([A-Za-z0-9](?:[A-Za-z0-9-]{0,37}[A-Za-z0-9])?)`),
}

// Path segments that follow "github.com/" without being usernames.
var reservedSegments = map[string]struct{}{
	"features": {}, "topics": {}, "about": {}, "pricing": {},
	"orgs": {}, "sponsors": {}, "settings": {}, "login": {}, "join": {},
}

// extractExternalID returns the first resolvable profile identifier in text,
// or "" when none is present. No identifier is a normal outcome, not an error.
func extractExternalID(text string) string {
	for _, pattern := range profilePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			id := strings.TrimSuffix(match[1], "-")
			if id == "" {
				continue
			}
			if _, reserved := reservedSegments[strings.ToLower(id)]; reserved {
				continue
			}
			return id
		}
	}
	return ""
}
