package notes

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

const maxKeywords = 3

var nonWordRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

var stopWords = map[string]struct{}{
	"的": {}, "了": {}, "是": {}, "在": {}, "我": {}, "有": {}, "和": {}, "就": {}, "不": {}, "人": {}, "都": {}, "一": {}, "一个": {},
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"to": {}, "of": {}, "in": {}, "for": {}, "on": {}, "with": {}, "at": {}, "by": {}, "from": {}, "as": {}, "into": {},
	"this": {}, "that": {}, "it": {}, "its": {}, "and": {}, "or": {}, "but": {}, "if": {}, "then": {}, "so": {},
}

// Keywords picks up to three distinct search terms from text: punctuation is
// dropped, single-rune words and stop words are skipped.
func Keywords(text string) []string {
	words := strings.Fields(nonWordRegex.ReplaceAllString(text, " "))
	words = lo.Filter(words, func(w string, _ int) bool {
		if len([]rune(w)) < 2 {
			return false
		}
		_, stop := stopWords[strings.ToLower(w)]
		return !stop
	})
	words = lo.Uniq(words)
	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words
}
