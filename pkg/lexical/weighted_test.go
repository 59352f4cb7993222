package lexical

import (
	"testing"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/message"
)

func scoreWeighted(a *Analyzer, text string) []Contribution {
	m := &message.Message{Text: text}
	return a.ScoreWeighted(m, message.ExtractFeatures(m))
}

func totalScore(contribs []Contribution) float64 {
	var sum float64
	for _, c := range contribs {
		sum += c.Score
	}
	return sum
}

func findCategory(contribs []Contribution, category string) *Contribution {
	for i := range contribs {
		if contribs[i].Category == category {
			return &contribs[i]
		}
	}
	return nil
}

func TestKeywordTiers(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewAnalyzer(cfg)
	w := cfg.Detection.Weights

	tests := []struct {
		text string
		want float64
	}{
		{"get guaranteed profit today", w.KeywordSingle},
		{"guaranteed profit, claim now", w.KeywordDouble},
		{"guaranteed profit, claim now, act fast", w.KeywordTriple},
	}
	for _, tt := range tests {
		c := findCategory(scoreWeighted(a, tt.text), "keywords")
		if c == nil {
			t.Errorf("expected keyword contribution for %q", tt.text)
			continue
		}
		if c.Score != tt.want {
			t.Errorf("%q: expected %.2f, got %.2f", tt.text, tt.want, c.Score)
		}
	}

	if c := findCategory(scoreWeighted(a, "nice weather today"), "keywords"); c != nil {
		t.Errorf("unexpected keyword contribution: %v", c)
	}
}

func TestURLClassification(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewAnalyzer(cfg)
	w := cfg.Detection.Weights

	// Allow-listed domain adds nothing
	contribs := scoreWeighted(a, "chart at https://tradingview.com/chart/btc")
	if c := findCategory(contribs, "suspicious_url"); c != nil {
		t.Errorf("allow-listed URL should add nothing, got %v", c)
	}

	// Deny-listed shortener adds the suspicious weight
	contribs = scoreWeighted(a, "check https://bit.ly/xyz")
	c := findCategory(contribs, "suspicious_url")
	if c == nil || c.Score != w.SuspiciousURL {
		t.Errorf("expected suspicious weight %.2f, got %v", w.SuspiciousURL, c)
	}

	// Unknown domain still adds the unknown weight
	contribs = scoreWeighted(a, "see https://random-site.example/page")
	c = findCategory(contribs, "suspicious_url")
	if c == nil || c.Score != w.UnknownURL {
		t.Errorf("expected unknown weight %.2f, got %v", w.UnknownURL, c)
	}
}

func TestCryptoAddressWeight(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewAnalyzer(cfg)

	contribs := scoreWeighted(a, "send to 0x52908400098527886E0F7030069857D2E4169EE7")
	c := findCategory(contribs, "crypto_address")
	if c == nil || c.Score != cfg.Detection.Weights.CryptoAddress {
		t.Errorf("expected crypto address contribution, got %v", c)
	}
}

func TestFormattingAbuse(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewAnalyzer(cfg)

	contribs := scoreWeighted(a, "HUGE PUMP INCOMING EVERYONE BUYNOW")
	if findCategory(contribs, "formatting") == nil {
		t.Error("expected caps contribution")
	}

	contribs = scoreWeighted(a, "heyyyyyyy whats up")
	found := false
	for _, c := range contribs {
		if c.Category == "formatting" && c.Reason == "repeated characters" {
			found = true
		}
	}
	if !found {
		t.Error("expected repeated character contribution")
	}
}

func TestMentionBlast(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewAnalyzer(cfg)

	contribs := scoreWeighted(a, "@alice @bob @carol @dave @eve look at this")
	c := findCategory(contribs, "mention_spam")
	if c == nil || c.Score != 0.7 {
		t.Errorf("expected 0.7 for five mentions, got %v", c)
	}

	// Two mentions with promo wording gets the configured weight
	contribs = scoreWeighted(a, "@alice @bob free bonus inside")
	c = findCategory(contribs, "mention_spam")
	if c == nil {
		t.Fatal("expected mention contribution with promo wording")
	}

	// A single casual mention adds nothing
	contribs = scoreWeighted(a, "@alice what do you think?")
	if c := findCategory(contribs, "mention_spam"); c != nil {
		t.Errorf("single mention should add nothing, got %v", c)
	}
}

func TestWeightedAccumulates(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewAnalyzer(cfg)

	contribs := scoreWeighted(a, "guaranteed profit, claim now https://bit.ly/x HURRY HURRY HURRY BUYIT")
	if len(contribs) < 3 {
		t.Fatalf("expected several contributions, got %d: %v", len(contribs), contribs)
	}
	if totalScore(contribs) < 1.0 {
		t.Errorf("expected accumulated score over 1.0, got %.2f", totalScore(contribs))
	}
}

func TestProfanityTiers(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewAnalyzer(cfg)
	w := cfg.Detection.Weights

	tests := []struct {
		text string
		want float64
	}{
		{"this is shit", w.ProfanitySingle},
		{"shit, what the fuck", w.ProfanityDouble},
		{"shit fuck bitch", w.ProfanityTriple},
	}
	for _, tt := range tests {
		c := findCategory(scoreWeighted(a, tt.text), "bad_language")
		if c == nil {
			t.Errorf("expected bad language contribution for %q", tt.text)
			continue
		}
		if c.Score != tt.want {
			t.Errorf("%q: expected %.2f, got %.2f", tt.text, tt.want, c.Score)
		}
	}
}

func TestProfanityWholeWordsOnly(t *testing.T) {
	a := NewAnalyzer(config.DefaultConfig())

	if c := findCategory(scoreWeighted(a, "scunthorpe hellcat classic"), "bad_language"); c != nil {
		t.Errorf("substring inside a clean word should not count: %v", c)
	}
}

func TestProfanityToggleOff(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Detection.Features.ProfanityFilter = false
	a := NewAnalyzer(cfg)

	if c := findCategory(scoreWeighted(a, "this is shit"), "bad_language"); c != nil {
		t.Errorf("expected no contribution with filter disabled: %v", c)
	}
}
