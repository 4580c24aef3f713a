package metastore

import (
	"regexp"
	"strings"
)

// matchPattern reports whether name matches a legacy table wildcard pattern:
// '*' matches any sequence of characters and '|' separates alternatives.
// Matching is case-insensitive over the whole name.
func matchPattern(name, pattern string) bool {
	for _, alt := range strings.Split(pattern, "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		expr := "(?i)^" + strings.ReplaceAll(regexp.QuoteMeta(alt), `\*`, ".*") + "$"
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
