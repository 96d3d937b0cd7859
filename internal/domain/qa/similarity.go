package qa

import (
	"strings"
	"unicode/utf8"
)

const (
	substringPoints = 2
	fuzzyPoints     = 1
)

// Score rates how strongly text matches an entry's keywords.
//
// A keyword found verbatim (after normalization) anywhere in the text earns
// two points. Otherwise a single-word keyword earns one point for every word
// of the text that is a near miss within allowedTypos. Keywords with an
// interior space are phrases and only count on an exact hit.
func Score(text string, keywords []string) int {
	normalized := Normalize(text)
	var words []string

	score := 0
	for _, keyword := range keywords {
		kw := Normalize(keyword)
		if strings.TrimSpace(kw) == "" {
			continue
		}
		if strings.Contains(normalized, kw) {
			score += substringPoints
			continue
		}
		token := strings.TrimSpace(kw)
		if strings.Contains(token, " ") {
			continue
		}
		if words == nil {
			words = strings.Fields(normalized)
		}
		allowed := allowedTypos(token)
		for _, word := range words {
			if d := EditDistance(word, token); d > 0 && d <= allowed {
				score += fuzzyPoints
			}
		}
	}
	return score
}

func allowedTypos(keyword string) int {
	switch n := utf8.RuneCountInString(keyword); {
	case n <= 3:
		return 0
	case n <= 6:
		return 1
	default:
		return 2
	}
}
