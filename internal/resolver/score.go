package resolver

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Score returns the fuzzy similarity between the spoken target text and a
// candidate attribute value, scaled 0-100. It takes the best of a partial
// ratio (substring-tolerant) and a token-set ratio (word-order-tolerant), so
// "gmail link" can match "Google Mail" and "Save As..." can match "save".
// The function is pure: equal inputs always produce equal scores.
func Score(target, candidate string) int {
	t := normalize(target)
	c := normalize(candidate)
	if t == "" || c == "" {
		return 0
	}
	if t == c {
		return 100
	}
	score := fuzzy.PartialRatio(t, c)
	if ts := fuzzy.TokenSetRatio(t, c); ts > score {
		score = ts
	}
	return score
}

// normalize lowercases, trims, and collapses internal whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
