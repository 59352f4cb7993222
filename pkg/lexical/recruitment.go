package lexical

import (
	"regexp"
	"strings"
)

// recruitmentMatcher detects job-scam posts: unrealistic earnings plus
// remote work plus a request to move the conversation private. No
// single signal is enough; the composite score has to clear the cutoff.
type recruitmentMatcher struct {
	handleRe    *regexp.Regexp
	earningsRes []*regexp.Regexp

	remoteKeywords      []string
	recruitmentKeywords []string
	dmKeywords          []string
	easyWorkKeywords    []string
	attentionMarkers    []string
	legalKeywords       []string
}

func newRecruitmentMatcher() *recruitmentMatcher {
	m := &recruitmentMatcher{
		handleRe: regexp.MustCompile(`@[a-zA-Z][a-zA-Z0-9_]{4,}`),
	}

	earningsPatterns := []string{
		`\$\d{2,4}\s*(per|a)\s*(day|week)`,
		`\$\d{2,4}\s*-\s*\$\d{2,4}`,
		`(earnings?|income|earn)\s*(from|starting|of|up to)?\s*\$\d+`,
		`\$\d+\+?\s*(per|a|/)\s*(day|week)`,
		`(up to|starting at)\s*\$\d+`,
		`\d{2,4}\s*(dollars?|usd)\s*(per|a)\s*(day|week)`,
		`\d{2,4}\s*-\s*\d{2,4}\s*(dollars?|usd)`,
		`\$\d+\s*[–-]\s*\$\d+`,
	}
	for _, p := range earningsPatterns {
		m.earningsRes = append(m.earningsRes, regexp.MustCompile(p))
	}

	m.remoteKeywords = []string{
		"remote", "remotely", "from home", "from a phone", "from phone",
		"from a computer", "from computer", "work online", "online work",
		"completely remote", "fully remote", "remote employment",
		"remote job", "online project", "via phone", "via pc",
	}
	m.recruitmentKeywords = []string{
		"looking for", "recruiting", "recruitment", "opening recruitment",
		"join a project", "join my team", "putting together",
		"looking for people", "looking for partners", "looking for several",
		"2-3 people", "two people", "several people", "responsible people",
		"2-3 individuals", "seeking", "urgently seeking", "new online project",
		"we're recruiting",
	}
	m.dmKeywords = []string{
		"write to", "message me", "dm me", "private message",
		"send me a", "contact me", "write \"+\"", "write '+'", "leave a \"+\"",
		"write +", "leave +", "if interested", "details:", "details -",
		"want to join", "details in pm", "details in dm", "write now",
		"write me",
	}
	m.easyWorkKeywords = []string{
		"simple tasks", "clear instructions", "easy", "1-2 hours",
		"1.5-2 hours", "hours per day", "full training", "training and support",
		"we provide", "daily payments", "transparent",
	}
	m.attentionMarkers = []string{
		"attention", "‼️", "❗", "⚡", "✔", "✅",
	}
	m.legalKeywords = []string{
		"legal", "secure", "legitimate", "legit", "safe", "trusted",
	}

	return m
}

// score returns the composite score and the trigger names that fired
func (m *recruitmentMatcher) score(text, lower string) (float64, []string) {
	var score float64
	var triggers []string

	hasHandle := m.handleRe.MatchString(text)
	if hasHandle {
		score += 1.5
		triggers = append(triggers, "handle")
	}

	for _, re := range m.earningsRes {
		if re.MatchString(lower) {
			score += 2
			triggers = append(triggers, "earnings_claim")
			break
		}
	}

	if containsAny(lower, m.remoteKeywords) {
		score += 1
		triggers = append(triggers, "remote_work")
	}
	hasRecruitment := containsAny(lower, m.recruitmentKeywords)
	if hasRecruitment {
		score += 1.5
		triggers = append(triggers, "recruitment_language")
	}
	if containsAny(lower, m.dmKeywords) {
		score += 2
		triggers = append(triggers, "dm_request")
	}
	if containsAny(lower, m.easyWorkKeywords) {
		score += 1
		triggers = append(triggers, "easy_money_promise")
	}
	hasAttention := containsAny(text, m.attentionMarkers) || containsAny(lower, m.attentionMarkers)
	if hasAttention {
		score += 1
		triggers = append(triggers, "attention_grabber")
	}
	if containsAny(lower, m.legalKeywords) {
		score += 0.5
		triggers = append(triggers, "legal_claim")
	}

	if hasHandle && hasAttention && hasRecruitment {
		score += 1
		triggers = append(triggers, "combo")
	}

	return score, triggers
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
