// Package fuzzy scores and ranks catalog items against a query string.
//
// Matching is case-insensitive fuzzy subsequence by default. A query wrapped
// in double quotes ("chrome") is treated as an exact substring match instead.
package fuzzy

import (
	"strings"
	"unicode"
)

// Match performs fuzzy matching between a query and a target string.
// Returns a score (higher is better) and whether the match succeeded.
//
// Matching rules:
//   - Each character in query must appear in order in target
//   - Consecutive matches get bonus points
//   - Matches at word boundaries get bonus points
//   - Matches at start of string get bonus points
//   - Case-insensitive matching
func Match(query, target string) (score int, matched bool) {
	if query == "" {
		return 0, true
	}

	queryRunes := []rune(strings.ToLower(query))
	originalRunes := []rune(target)
	targetRunes := make([]rune, len(originalRunes))
	for i, r := range originalRunes {
		targetRunes[i] = unicode.ToLower(r)
	}

	if len(queryRunes) > len(targetRunes) {
		return 0, false
	}

	queryPos := 0
	lastMatchPos := -1

	for targetPos := 0; targetPos < len(targetRunes) && queryPos < len(queryRunes); targetPos++ {
		if targetRunes[targetPos] != queryRunes[queryPos] {
			continue
		}

		matchScore := 1

		// Bonus for consecutive matches
		if lastMatchPos == targetPos-1 {
			matchScore += 5
		}

		// Bonus for match at start of target
		if targetPos == 0 {
			matchScore += 10
		}

		// Bonus for match at word boundary. Checked against the
		// original-case runes so camelCase humps count.
		if isWordBoundary(originalRunes, targetPos) {
			matchScore += 7
		}

		score += matchScore
		lastMatchPos = targetPos
		queryPos++
	}

	matched = queryPos == len(queryRunes)

	// Penalty for longer targets (shorter strings are better matches)
	if matched {
		score -= len(targetRunes) / 4
	}

	return score, matched
}

// isWordBoundary returns true if the position is at a word boundary:
// after a space, slash, dash, dot, or underscore, or at a camelCase hump.
func isWordBoundary(runes []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	if pos >= len(runes) {
		return false
	}

	prev := runes[pos-1]
	if prev == ' ' || prev == '/' || prev == '-' || prev == '_' || prev == '.' {
		return true
	}
	if unicode.IsLower(prev) && unicode.IsUpper(runes[pos]) {
		return true
	}

	return false
}

// ExactQuery reports whether q uses the quoted-exact convention and, if so,
// returns the unwrapped literal. `"chrome"` matches items whose display
// contains the substring chrome, case-insensitively.
func ExactQuery(q string) (string, bool) {
	if len(q) >= 2 && strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`) {
		return q[1 : len(q)-1], true
	}
	return "", false
}
