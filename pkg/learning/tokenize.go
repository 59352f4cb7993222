package learning

import (
	"regexp"
	"strings"
)

var (
	urlToken     = regexp.MustCompile(`https?://\S+|www\.\S+|t\.me/\S+`)
	mentionToken = regexp.MustCompile(`@\w+`)
	numberToken  = regexp.MustCompile(`\d+`)
	punctStrip   = regexp.MustCompile(`[^\w\s]`)
	spaceFold    = regexp.MustCompile(`\s+`)
)

// preprocess masks structure that varies per message (URLs, handles,
// numbers) so the classifier learns phrasing, not specific links
func preprocess(text string) string {
	s := strings.ToLower(text)
	s = urlToken.ReplaceAllString(s, " tokurl ")
	s = mentionToken.ReplaceAllString(s, " tokmention ")
	s = numberToken.ReplaceAllString(s, " toknum ")
	s = punctStrip.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceFold.ReplaceAllString(s, " "))
}

// tokenize returns unigrams and bigrams plus engineered feature tokens
func tokenize(text string) []string {
	raw := text
	cleaned := preprocess(text)
	words := strings.Fields(cleaned)

	tokens := make([]string, 0, len(words)*2+4)
	for i, w := range words {
		if len(w) < 2 || len(w) > 24 {
			continue
		}
		tokens = append(tokens, w)
		if i+1 < len(words) {
			tokens = append(tokens, w+"_"+words[i+1])
		}
	}

	// Engineered signals survive masking
	if urlToken.MatchString(strings.ToLower(raw)) {
		tokens = append(tokens, "feat:has_url")
	}
	if mentionToken.MatchString(raw) {
		tokens = append(tokens, "feat:has_mention")
	}
	if strings.ContainsAny(raw, "$€£₽") {
		tokens = append(tokens, "feat:has_currency")
	}
	upper := 0
	letters := 0
	for _, r := range raw {
		if r >= 'A' && r <= 'Z' {
			upper++
		}
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			letters++
		}
	}
	if letters > 10 && float64(upper)/float64(letters) > 0.5 {
		tokens = append(tokens, "feat:mostly_caps")
	}

	return tokens
}
