package lexical

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/message"
	"github.com/modsentry/modsentry/pkg/verdict"
)

// SenderInfo carries the sender state some checks condition on
type SenderInfo struct {
	Reputation     int
	JoinedAt       time.Time
	IsFirstMessage bool
}

// Result is the outcome of the disqualification tier. A nil Result
// means no disqualifier fired and weighted scoring should proceed.
type Result struct {
	Score      float64
	Action     verdict.Action
	Reasons    []string
	Categories []string
}

// Analyzer runs the lexical tiers: hard disqualifiers first, then
// additive weighted features
type Analyzer struct {
	cfg *config.Config

	urlRe         *regexp.Regexp
	botLinkRe     *regexp.Regexp
	adultRe       *regexp.Regexp
	handleRe      *regexp.Regexp
	capsRe        *regexp.Regexp
	cryptoRes      []*regexp.Regexp
	scamRes        []*regexp.Regexp
	profanityRes   []*regexp.Regexp
	profanityWords []string
	recruitment    *recruitmentMatcher
	moneyEmojiSet  map[rune]bool
}

// NewAnalyzer builds an analyzer from config. Patterns are compiled once.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	a := &Analyzer{
		cfg: cfg,
		urlRe: regexp.MustCompile(
			`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+|www\.[^\s<>"{}|\\^` + "`" + `\[\]]+|t\.me/[^\s<>"{}|\\^` + "`" + `\[\]]+`),
		botLinkRe: regexp.MustCompile(`(?i)t\.me/[a-zA-Z0-9_]+bot|@[a-zA-Z0-9_]+bot`),
		adultRe:   regexp.MustCompile(`(?i)x\s*x\s*x|p[\s\-.]*o[\s\-.]*r[\s\-.]*n|xxx|porn|nudes|onlyfans`),
		handleRe:  regexp.MustCompile(`@[a-zA-Z][a-zA-Z0-9_]{4,}`),
		capsRe:    regexp.MustCompile(`[A-Z]{5,}`),
		cryptoRes: []*regexp.Regexp{
			regexp.MustCompile(`0x[a-fA-F0-9]{40}`),                   // eth
			regexp.MustCompile(`\b[13][a-km-zA-HJ-NP-Z1-9]{25,34}\b`), // btc legacy
			regexp.MustCompile(`\bbc1[a-zA-HJ-NP-Z0-9]{39,59}\b`),     // btc bech32
		},
		recruitment:   newRecruitmentMatcher(),
		moneyEmojiSet: make(map[rune]bool),
	}

	for _, e := range cfg.Detection.MoneyEmoji.Emojis {
		for _, r := range e {
			a.moneyEmojiSet[r] = true
		}
	}

	scamPatterns := []string{
		`thanks to [^,\n]+,? my (trading )?account is (thriving|growing|doing great)`,
		`profit (with|thanks to) (mrs|mr|@)\S+`,
		`withdrawals? (are|is) (easy|straightforward|simple|without hassle)`,
		`from [^\n]+ to \$?\d{2,5} (profit|returns|income)`,
		`automated trading system (based on|using) (market conditions|algorithms)`,
		`avoids? risky strategies? (like|such as) (martingale|grid|hedging)`,
		`aims? for a daily (performance|return|roi|profit) of ?\d+%?`,
		`(ea|system) operates? on the m\d+ timeframe`,
		`compatible with all brokers`,
		`manages? (sl/tp|stop loss|take profit)`,
		`works 24/5 on mt4( and mt5)?`,
		`funded account challenges?`,
		`send me a dm (for|to see|for more) (proof|results|details)`,
		`financial assistance (without|with no) hassle`,
		`my life changed after`,
		`i bought (my|a|the) [^\n]+ for my (son|daughter|family|wife|husband)`,
		`(contact|dm|message) @[a-zA-Z0-9_]{4,} (for|to get|for help|for more)`,
		`\$\d{2,5} (profit|returns|income|gain|withdrawal)`,
		`\d+% (daily|weekly|monthly) (returns?|profit|roi)`,
		`roi of \d+%`,
	}
	for _, p := range scamPatterns {
		a.scamRes = append(a.scamRes, regexp.MustCompile(p))
	}

	// Whole-word matches only; "hello" must not trip on "hell"
	for _, word := range cfg.Detection.ProfanityWords {
		if word == "" {
			continue
		}
		a.profanityWords = append(a.profanityWords, word)
		a.profanityRes = append(a.profanityRes,
			regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}

	return a
}

// Disqualify runs the hard disqualifier tier. It returns nil when
// nothing fired. The allow list wins over every check in this tier.
func (a *Analyzer) Disqualify(m *message.Message, f *message.Features, sender SenderInfo) *Result {
	text := m.Text
	lower := strings.ToLower(text)

	// Allow-listed phrase anywhere in the text disables this whole tier
	for _, phrase := range a.cfg.Detection.AllowlistPhrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return nil
		}
	}

	folded := foldHomoglyphs(text)
	foldedLower := strings.ToLower(folded)
	normalized := stripPunct(lower)

	if r := a.checkEntityAbuse(m, f); r != nil {
		return r
	}
	if r := a.checkAdultContent(text, folded); r != nil {
		return r
	}
	if r := a.checkBotLinks(text, lower); r != nil {
		return r
	}
	if r := a.checkCasino(lower, foldedLower, text, f); r != nil {
		return r
	}
	if r := a.checkDMSolicitation(lower, normalized); r != nil {
		return r
	}
	if r := a.checkInstantKeywords(lower, normalized, foldedLower); r != nil {
		return r
	}
	if r := a.checkEmojiPromo(text, lower, f); r != nil {
		return r
	}
	if r := a.recruitmentResult(text, lower); r != nil {
		return r
	}
	if r := a.checkScamRegexes(lower); r != nil {
		return r
	}
	if a.cfg.Detection.MoneyEmoji.Enabled {
		if r := a.checkMoneyEmojis(text, sender); r != nil {
			return r
		}
	}
	if a.cfg.Detection.Scripts.Enabled && a.cfg.Detection.Features.ScriptBlocking {
		if r := a.checkScripts(text); r != nil {
			return r
		}
	}

	return nil
}

// checkEntityAbuse covers custom-emoji floods and emoji-dressed hidden links
func (a *Analyzer) checkEntityAbuse(m *message.Message, f *message.Features) *Result {
	customCount := m.CountEntities(message.EntityCustomEmoji)
	if threshold := a.cfg.Detection.CustomEmojiThreshold; threshold > 0 && customCount >= threshold {
		return ban("custom_emoji_flood", fmt.Sprintf("custom emoji flood (%d custom emojis)", customCount))
	}

	hasLinkEntity := false
	for _, e := range m.Entities {
		if e.Type == message.EntityTextLink || e.Type == message.EntityURL {
			hasLinkEntity = true
			break
		}
	}
	if hasLinkEntity && f.EmojiCount > a.cfg.Detection.HyperlinkEmojiThreshold {
		return ban("hyperlink_emoji", fmt.Sprintf("hyperlinked text with %d emojis", f.EmojiCount))
	}
	return nil
}

func (a *Analyzer) checkAdultContent(text, folded string) *Result {
	if a.adultRe.MatchString(text) || a.adultRe.MatchString(folded) {
		return ban("adult_content", "adult content detected")
	}
	return nil
}

func (a *Analyzer) checkBotLinks(text, lower string) *Result {
	match := a.botLinkRe.FindString(text)
	if match == "" {
		return nil
	}
	// Commands that mention a bot are not solicitations
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return nil
	}
	return ban("bot_link", "bot link detected: "+strings.ToLower(match))
}

func (a *Analyzer) checkCasino(lower, foldedLower, text string, f *message.Features) *Result {
	for _, phrase := range a.cfg.Detection.CasinoPhrases {
		p := strings.ToLower(phrase)
		if p != "" && (strings.Contains(lower, p) || strings.Contains(foldedLower, p)) {
			return ban("casino", "casino/betting spam: "+phrase)
		}
	}

	// "promo code" alone is a legitimate question; it only disqualifies
	// alongside other gambling signals
	if strings.Contains(lower, "promo code") || strings.Contains(foldedLower, "promo code") {
		signals := []string{"jackpot", "casino", "betting", "win", "bonus", "free",
			"balance", "activate", "$", "play", "🎰", "💰", "🎲"}
		hasSignal := false
		for _, s := range signals {
			if strings.Contains(lower, s) {
				hasSignal = true
				break
			}
		}
		hasBotHandle := strings.Contains(text, "@") &&
			(strings.Contains(lower, "bot") || strings.Contains(lower, "win"))
		if hasBotHandle || (hasSignal && f.EmojiCount >= 3) {
			return ban("casino", "promo code with gambling signals")
		}
	}
	return nil
}

func (a *Analyzer) checkDMSolicitation(lower, normalized string) *Result {
	for _, phrase := range a.cfg.Detection.DMSolicitationPhrases {
		p := strings.ToLower(phrase)
		if p != "" && (strings.Contains(lower, p) || strings.Contains(normalized, p)) {
			return ban("dm_solicitation", "direct-contact solicitation: "+phrase)
		}
	}
	return nil
}

func (a *Analyzer) checkInstantKeywords(lower, normalized, foldedLower string) *Result {
	for _, kw := range a.cfg.Detection.InstantKeywords {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		if strings.Contains(lower, k) || strings.Contains(normalized, k) || strings.Contains(foldedLower, k) {
			return ban("instant_keyword", "prohibited keyword: "+kw)
		}
	}
	return nil
}

// checkEmojiPromo catches promo blasts that are mostly decoration
func (a *Analyzer) checkEmojiPromo(text, lower string, f *message.Features) *Result {
	hasLinks := a.urlRe.MatchString(text)

	if f.EmojiCount > 8 && hasLinks {
		return ban("emoji_promo", fmt.Sprintf("promotional blast (%d emojis with links)", f.EmojiCount))
	}

	if f.EmojiCount > 15 {
		matches := 0
		for _, kw := range a.cfg.Detection.PromoKeywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matches++
			}
		}
		if matches >= 2 {
			return ban("emoji_promo", "emoji overload with promotional keywords")
		}
	}
	return nil
}

func (a *Analyzer) recruitmentResult(text, lower string) *Result {
	score, triggers := a.recruitment.score(text, lower)
	if score >= a.cfg.Detection.RecruitmentScamCutoff {
		return ban("recruitment_scam",
			fmt.Sprintf("recruitment scam (score %.1f: %s)", score, strings.Join(triggers, ", ")))
	}
	return nil
}

func (a *Analyzer) checkScamRegexes(lower string) *Result {
	for _, re := range a.scamRes {
		if re.MatchString(lower) {
			return ban("scam_pattern", "known scam phrasing")
		}
	}
	return nil
}

// checkMoneyEmojis disqualifies currency-emoji heavy messages, but only
// from senders with no standing
func (a *Analyzer) checkMoneyEmojis(text string, sender SenderInfo) *Result {
	mc := a.cfg.Detection.MoneyEmoji
	count := 0
	for _, r := range text {
		if a.moneyEmojiSet[r] {
			count++
		}
	}
	if count < mc.Threshold {
		return nil
	}

	var suspicions []string
	if sender.IsFirstMessage {
		suspicions = append(suspicions, "first message")
	}
	if sender.Reputation < mc.MinReputation {
		suspicions = append(suspicions, fmt.Sprintf("low reputation (%d)", sender.Reputation))
	}
	if !sender.JoinedAt.IsZero() {
		hours := time.Since(sender.JoinedAt).Hours()
		if hours < float64(mc.NewSenderHours) {
			suspicions = append(suspicions, fmt.Sprintf("new sender (%dh old)", int(hours)))
		}
	}
	if len(suspicions) == 0 {
		return nil
	}

	return &Result{
		Score:      0.8,
		Action:     verdict.ActionDeleteAndWarn,
		Reasons:    []string{fmt.Sprintf("money emoji spam (%dx) from %s", count, strings.Join(suspicions, ", "))},
		Categories: []string{"money_emoji"},
	}
}

// checkScripts blocks configured scripts. Links alongside a blocked
// script escalate from content removal to sender removal.
func (a *Analyzer) checkScripts(text string) *Result {
	found := detectBlockedScripts(text, a.cfg.Detection.Scripts.Blocked)
	if len(found) == 0 {
		return nil
	}
	action := verdict.ActionDeleteAndWarn
	if a.urlRe.MatchString(text) {
		action = verdict.ActionBan
	}
	return &Result{
		Score:      1.0,
		Action:     action,
		Reasons:    []string{"disallowed script: " + strings.Join(found, ", ")},
		Categories: []string{"disallowed_script"},
	}
}

func ban(category, reason string) *Result {
	return &Result{
		Score:      1.0,
		Action:     verdict.ActionBan,
		Reasons:    []string{reason},
		Categories: []string{category},
	}
}
