package lexical

import (
	"fmt"
	"strings"

	"github.com/modsentry/modsentry/pkg/message"
)

// Contribution is one weighted feature hit
type Contribution struct {
	Category string
	Reason   string
	Score    float64
}

// ScoreWeighted runs the additive weighted tier. Contributions never
// short-circuit; the orchestrator sums them and applies thresholds.
func (a *Analyzer) ScoreWeighted(m *message.Message, f *message.Features) []Contribution {
	var contribs []Contribution
	lower := strings.ToLower(m.Text)
	foldedLower := strings.ToLower(foldHomoglyphs(m.Text))
	w := a.cfg.Detection.Weights

	if a.cfg.Detection.Features.KeywordDetection {
		if c := a.scoreKeywords(lower, foldedLower); c != nil {
			contribs = append(contribs, *c)
		}
	}
	if a.cfg.Detection.Features.URLAnalysis {
		contribs = append(contribs, a.scoreURLs(f.URLs)...)
	}
	if a.cfg.Detection.Features.CryptoDetection {
		for _, re := range a.cryptoRes {
			if re.MatchString(m.Text) {
				contribs = append(contribs, Contribution{
					Category: "crypto_address",
					Reason:   "contains crypto address",
					Score:    w.CryptoAddress,
				})
				break
			}
		}
	}

	// Formatting abuse
	if len(a.capsRe.FindAllString(m.Text, -1)) >= 3 {
		contribs = append(contribs, Contribution{
			Category: "formatting",
			Reason:   "excessive caps",
			Score:    w.ExcessiveCaps,
		})
	}
	if f.MaxCharRun >= 5 {
		contribs = append(contribs, Contribution{
			Category: "formatting",
			Reason:   "repeated characters",
			Score:    w.RepeatedChars,
		})
	}
	if f.EmojiCount > a.cfg.Detection.EmojiWeightThreshold {
		contribs = append(contribs, Contribution{
			Category: "formatting",
			Reason:   fmt.Sprintf("excessive emojis (%d)", f.EmojiCount),
			Score:    w.ExcessiveEmojis,
		})
	}

	if a.cfg.Detection.Features.MentionSpam {
		if c := a.scoreMentions(m, f, lower); c != nil {
			contribs = append(contribs, *c)
		}
	}

	if a.cfg.Detection.Features.ProfanityFilter {
		if c := a.scoreProfanity(m.Text); c != nil {
			contribs = append(contribs, *c)
		}
	}

	return contribs
}

// scoreProfanity scores by how many distinct configured words appear,
// matched on word boundaries
func (a *Analyzer) scoreProfanity(text string) *Contribution {
	var found []string
	for i, re := range a.profanityRes {
		if re.MatchString(text) {
			found = append(found, a.profanityWords[i])
		}
	}
	if len(found) == 0 {
		return nil
	}

	w := a.cfg.Detection.Weights
	score := w.ProfanitySingle
	if len(found) >= 3 {
		score = w.ProfanityTriple
	} else if len(found) == 2 {
		score = w.ProfanityDouble
	}
	if len(found) > 3 {
		found = found[:3]
	}
	return &Contribution{
		Category: "bad_language",
		Reason:   "bad language: " + strings.Join(found, ", "),
		Score:    score,
	}
}

// scoreKeywords scores by how many distinct configured keywords appear
func (a *Analyzer) scoreKeywords(lower, foldedLower string) *Contribution {
	var matched []string
	for _, kw := range a.cfg.Detection.SpamKeywords {
		k := strings.ToLower(kw)
		if k != "" && (strings.Contains(lower, k) || strings.Contains(foldedLower, k)) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	w := a.cfg.Detection.Weights
	score := w.KeywordSingle
	if len(matched) >= 3 {
		score = w.KeywordTriple
	} else if len(matched) == 2 {
		score = w.KeywordDouble
	}
	return &Contribution{
		Category: "keywords",
		Reason:   "spam keywords: " + strings.Join(matched, ", "),
		Score:    score,
	}
}

// scoreURLs classifies each URL three ways: allow-listed adds nothing,
// deny-listed adds the suspicious weight, anything unknown still adds
// the unknown weight
func (a *Analyzer) scoreURLs(urls []string) []Contribution {
	var contribs []Contribution
	for _, u := range urls {
		switch {
		case a.cfg.IsAllowedDomain(u):
			// trusted, no weight
		case a.cfg.IsDeniedDomain(u):
			contribs = append(contribs, Contribution{
				Category: "suspicious_url",
				Reason:   "deny-listed URL: " + u,
				Score:    a.cfg.Detection.Weights.SuspiciousURL,
			})
		default:
			contribs = append(contribs, Contribution{
				Category: "suspicious_url",
				Reason:   "unrecognized URL: " + u,
				Score:    a.cfg.Detection.Weights.UnknownURL,
			})
		}
	}
	return contribs
}

// scoreMentions detects mention blasts, boosted when the same handle
// repeats or promotional wording rides along
func (a *Analyzer) scoreMentions(m *message.Message, f *message.Features, lower string) *Contribution {
	mentionCount := 0
	counts := make(map[string]int)
	for _, word := range strings.Fields(m.Text) {
		if strings.HasPrefix(word, "@") && len(word) > 1 {
			mentionCount++
			counts[strings.ToLower(word)]++
		}
	}
	for _, e := range m.Entities {
		if e.Type == message.EntityMention {
			mentionCount++
			counts[strings.ToLower(m.EntityText(e))]++
		}
	}
	if mentionCount == 0 {
		return nil
	}

	hasPromo := false
	for _, kw := range a.cfg.Detection.PromoKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			hasPromo = true
			break
		}
	}

	var score float64
	switch {
	case mentionCount >= 5:
		score = 0.7
	case mentionCount >= a.cfg.Detection.MentionThreshold:
		if hasPromo {
			score = 0.6
		} else {
			score = 0.3
		}
	case mentionCount >= 2 && hasPromo:
		score = a.cfg.Detection.Weights.MentionSpam
	}

	// Duplicate handles are the strongest tell
	if len(counts) > 0 && float64(len(counts)) < float64(mentionCount)*0.5 && score < 0.5 {
		score = 0.5
	}

	if score == 0 {
		return nil
	}
	return &Contribution{
		Category: "mention_spam",
		Reason:   fmt.Sprintf("mention spam (%d mentions)", mentionCount),
		Score:    score,
	}
}
