package conversation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/modsentry/modsentry/pkg/config"
)

// entry is one remembered message in a channel window
type entry struct {
	senderID string
	text     string
	at       time.Time
}

// ContextResult describes how much the surrounding conversation
// legitimizes a message
type ContextResult struct {
	IsLegitimate   bool
	IsQuestion     bool
	IsContinuation bool
	Score          float64
	Reasons        []string
}

// Analyzer keeps a short window of recent messages per channel and
// scores how well a new message fits the ongoing discussion
type Analyzer struct {
	mu       sync.Mutex
	channels map[string][]entry

	cfg            config.ContextConfig
	legitimateRes  []*regexp.Regexp
	questionWords  []string
	replyIndicators []string
	stopwords      map[string]bool
}

// NewAnalyzer creates a conversation context analyzer
func NewAnalyzer(cfg config.ContextConfig) *Analyzer {
	a := &Analyzer{
		channels: make(map[string][]entry),
		cfg:      cfg,
		questionWords: []string{
			"?", "how", "what", "why", "when", "where", "who", "can", "should", "would",
		},
		replyIndicators: []string{
			"yes", "no", "i agree", "i disagree", "also", "but", "however",
			"actually", "exactly", "that's",
		},
		stopwords: map[string]bool{
			"about": true, "after": true, "before": true, "being": true,
			"could": true, "every": true, "first": true, "other": true,
			"their": true, "there": true, "these": true, "thing": true,
			"think": true, "those": true, "where": true, "which": true,
			"while": true, "would": true, "should": true, "because": true,
		},
	}

	patterns := []string{
		`how (to|do|can|does)`,
		`what (is|are|does|do)`,
		`why (is|are|does|do)`,
		`when (is|are|does|do|will)`,
		`can (you|i|we)`,
		`help (me|with)`,
		`explain`,
		`question`,
		`asking about`,
		`i (think|believe|feel)`,
		`in my opinion`,
		`what do you think`,
		`discuss`,
		`according to`,
		`based on`,
		`from what i (know|understand)`,
	}
	for _, p := range patterns {
		a.legitimateRes = append(a.legitimateRes, regexp.MustCompile(p))
	}

	return a
}

// AddMessage records a message into its channel window. Entries older
// than the time window are dropped; the window is capped by count.
func (a *Analyzer) AddMessage(channelID, senderID, text string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	window := append(a.channels[channelID], entry{senderID: senderID, text: text, at: at})
	cutoff := at.Add(-time.Duration(a.cfg.WindowMinutes) * time.Minute)
	start := 0
	for start < len(window) && window[start].at.Before(cutoff) {
		start++
	}
	window = window[start:]
	if len(window) > a.cfg.WindowSize {
		window = window[len(window)-a.cfg.WindowSize:]
	}
	a.channels[channelID] = window
}

// Analyze scores a message against its channel's recent conversation.
// An empty window yields a zero result.
func (a *Analyzer) Analyze(channelID, senderID, text string) *ContextResult {
	a.mu.Lock()
	window := make([]entry, len(a.channels[channelID]))
	copy(window, a.channels[channelID])
	a.mu.Unlock()

	result := &ContextResult{}
	if len(window) == 0 {
		return result
	}

	lower := strings.ToLower(text)

	for _, w := range a.questionWords {
		if strings.Contains(lower, w) {
			result.IsQuestion = true
			result.Score += 0.3
			result.Reasons = append(result.Reasons, "message appears to be a question")
			break
		}
	}

	if len(window) >= 2 {
		for _, ind := range a.replyIndicators {
			if strings.Contains(lower, ind) {
				result.IsContinuation = true
				result.Score += 0.4
				result.Reasons = append(result.Reasons, "message continues a discussion")
				break
			}
		}

		if shared := a.sharedKeywords(lower, window); shared >= 2 {
			result.IsContinuation = true
			result.Score += 0.3
			result.Reasons = append(result.Reasons, fmt.Sprintf("message references recent discussion (%d shared keywords)", shared))
		}
	}

	for _, re := range a.legitimateRes {
		if re.MatchString(lower) {
			result.Score += 0.5
			result.Reasons = append(result.Reasons, "message matches discussion phrasing")
			break
		}
	}

	if len(window) >= 3 {
		senders := make(map[string]bool)
		tail := window
		if len(tail) > 5 {
			tail = tail[len(tail)-5:]
		}
		for _, e := range tail {
			senders[e.senderID] = true
		}
		if len(senders) >= 2 && senders[senderID] {
			result.Score += 0.2
			result.Reasons = append(result.Reasons, "sender is part of an active discussion")
		}
	}

	result.IsLegitimate = result.Score >= a.cfg.LegitimacyThreshold
	return result
}

// Discount softens a spam score for messages that look like genuine
// conversation. The reduction is bounded both absolutely and as a
// fraction of the score, so context can never erase a strong signal.
func (a *Analyzer) Discount(channelID, senderID, text string, spamScore float64) (float64, []string) {
	ctx := a.Analyze(channelID, senderID, text)
	if !ctx.IsLegitimate {
		return spamScore, nil
	}

	reduction := spamScore * a.cfg.ReductionFraction
	if reduction > a.cfg.MaxReduction {
		reduction = a.cfg.MaxReduction
	}
	adjusted := spamScore - reduction
	if adjusted < 0 {
		adjusted = 0
	}

	reasons := append(ctx.Reasons, fmt.Sprintf("context reduced spam score by %.2f", reduction))
	return adjusted, reasons
}

// Cleanup drops stale windows; call periodically
func (a *Analyzer) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-2 * time.Duration(a.cfg.WindowMinutes) * time.Minute)
	for id, window := range a.channels {
		start := 0
		for start < len(window) && window[start].at.Before(cutoff) {
			start++
		}
		if start == len(window) {
			delete(a.channels, id)
		} else {
			a.channels[id] = window[start:]
		}
	}
}

// sharedKeywords counts distinct words longer than four characters that
// appear both in the message and in the last few window entries
func (a *Analyzer) sharedKeywords(lower string, window []entry) int {
	tail := window
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	recent := make(map[string]bool)
	for _, e := range tail {
		for _, w := range strings.Fields(strings.ToLower(e.text)) {
			recent[w] = true
		}
	}

	seen := make(map[string]bool)
	count := 0
	for _, w := range strings.Fields(lower) {
		if len(w) > 4 && recent[w] && !a.stopwords[w] && !seen[w] {
			seen[w] = true
			count++
		}
	}
	return count
}
