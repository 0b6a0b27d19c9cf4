// Package recommend links assistant replies to catalog listings: it extracts
// listing identifiers from free text, correlates them against a catalog
// snapshot, and encodes identifier lists for handoff between views.
package recommend

import "regexp"

// IdentifierPattern is the listing identifier grammar: three uppercase
// letters, a hyphen, three digits.
const IdentifierPattern = `[A-Z]{3}-[0-9]{3}`

var (
	identifierRe = regexp.MustCompile(`\b` + IdentifierPattern + `\b`)
	exactRe      = regexp.MustCompile(`^` + IdentifierPattern + `$`)
)

// Extract returns the identifiers found in text, left to right, each once in
// the order it first appears.
func Extract(text string) []string {
	matches := identifierRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, id := range matches {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ValidIdentifier reports whether s is exactly one identifier.
func ValidIdentifier(s string) bool {
	return exactRe.MatchString(s)
}
