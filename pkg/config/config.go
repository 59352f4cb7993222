package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the full moderation engine configuration
type Config struct {
	// Lexical detection settings
	Detection DetectionConfig `yaml:"detection"`

	// Domain allow/deny lists
	Lists ListsConfig `yaml:"lists"`

	// Action threshold settings
	Thresholds ThresholdsConfig `yaml:"thresholds"`

	// Reputation system settings
	Reputation ReputationConfig `yaml:"reputation"`

	// Behavior profiling settings
	Behavior BehaviorConfig `yaml:"behavior"`

	// Conversation context settings
	Context ContextConfig `yaml:"context"`

	// Rate limiting and duplicate detection
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Statistical classifier settings
	Learning LearningConfig `yaml:"learning"`

	// External scanner settings
	Scanners ScannersConfig `yaml:"scanners"`

	// Action review settings
	Decision DecisionConfig `yaml:"decision"`

	// Join-raid detection settings
	Raid RaidConfig `yaml:"raid"`

	// Persistence settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// DetectionConfig contains lexical spam detection parameters
type DetectionConfig struct {
	// Phrases that bypass all disqualification checks when present verbatim
	AllowlistPhrases []string `yaml:"allowlist_phrases"`

	// Keywords that alone warrant maximum severity
	InstantKeywords []string `yaml:"instant_keywords"`

	// Definite casino/gambling phrases (disqualification tier)
	CasinoPhrases []string `yaml:"casino_phrases"`

	// Aggressive direct-contact solicitation phrases (disqualification tier)
	DMSolicitationPhrases []string `yaml:"dm_solicitation_phrases"`

	// Weighted-tier keywords, scored by distinct match count
	SpamKeywords []string `yaml:"spam_keywords"`

	// Promotional words used by the emoji-overload check
	PromoKeywords []string `yaml:"promo_keywords"`

	// Profanity scored by distinct whole-word matches
	ProfanityWords []string `yaml:"profanity_words"`

	// Hours since join during which posted links carry extra weight
	NewSenderLinkHours int `yaml:"new_sender_link_hours"`

	// Feature weights for the weighted tier
	Weights FeatureWeights `yaml:"weights"`

	// Recruitment scam composite score cutoff
	RecruitmentScamCutoff float64 `yaml:"recruitment_scam_cutoff"`

	// Custom-emoji entity count that disqualifies on its own
	CustomEmojiThreshold int `yaml:"custom_emoji_threshold"`

	// Emoji count above which a rich hyperlink entity disqualifies
	HyperlinkEmojiThreshold int `yaml:"hyperlink_emoji_threshold"`

	// Emoji count above which the weighted emoji feature fires
	EmojiWeightThreshold int `yaml:"emoji_weight_threshold"`

	// Mention count above which the mention-spam feature fires
	MentionThreshold int `yaml:"mention_threshold"`

	// Money emoji heuristic
	MoneyEmoji MoneyEmojiConfig `yaml:"money_emoji"`

	// Disallowed script detection
	Scripts ScriptsConfig `yaml:"scripts"`

	// Enable/disable individual detectors
	Features FeatureToggles `yaml:"features"`
}

// FeatureWeights defines weighted-tier scoring weights
type FeatureWeights struct {
	KeywordSingle   float64 `yaml:"keyword_single"`
	KeywordDouble   float64 `yaml:"keyword_double"`
	KeywordTriple   float64 `yaml:"keyword_triple"`
	SuspiciousURL   float64 `yaml:"suspicious_url"`
	UnknownURL      float64 `yaml:"unknown_url"`
	CryptoAddress   float64 `yaml:"crypto_address"`
	ExcessiveCaps   float64 `yaml:"excessive_caps"`
	RepeatedChars   float64 `yaml:"repeated_chars"`
	ExcessiveEmojis float64 `yaml:"excessive_emojis"`
	MentionSpam     float64 `yaml:"mention_spam"`
	RateLimit       float64 `yaml:"rate_limit"`
	Duplicate       float64 `yaml:"duplicate"`
	Anomaly         float64 `yaml:"anomaly"`
	ClassifierHigh  float64 `yaml:"classifier_high"`
	ClassifierLow   float64 `yaml:"classifier_low"`
	Scanner         float64 `yaml:"scanner"`
	NewSenderLink   float64 `yaml:"new_sender_link"`
	ProfanitySingle float64 `yaml:"profanity_single"`
	ProfanityDouble float64 `yaml:"profanity_double"`
	ProfanityTriple float64 `yaml:"profanity_triple"`
}

// MoneyEmojiConfig controls the conditional currency-emoji heuristic
type MoneyEmojiConfig struct {
	Enabled bool `yaml:"enabled"`

	// Emoji runes counted as money emojis
	Emojis []string `yaml:"emojis"`

	// Minimum money emojis before the check applies
	Threshold int `yaml:"threshold"`

	// Reputation below which a sender counts as untrusted
	MinReputation int `yaml:"min_reputation"`

	// Hours since join below which a sender counts as new
	NewSenderHours int `yaml:"new_sender_hours"`
}

// ScriptsConfig controls disallowed-script detection
type ScriptsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Script names to block; each maps to fixed Unicode ranges
	Blocked []string `yaml:"blocked"`
}

// FeatureToggles enables/disables detection features
type FeatureToggles struct {
	KeywordDetection   bool `yaml:"keyword_detection"`
	URLAnalysis        bool `yaml:"url_analysis"`
	CryptoDetection    bool `yaml:"crypto_detection"`
	MentionSpam        bool `yaml:"mention_spam"`
	ProfanityFilter    bool `yaml:"profanity_filter"`
	NewSenderLinks     bool `yaml:"new_sender_links"`
	ScriptBlocking     bool `yaml:"script_blocking"`
	BehaviorProfiling  bool `yaml:"behavior_profiling"`
	ContextAnalysis    bool `yaml:"context_analysis"`
	RateTracking       bool `yaml:"rate_tracking"`
	DuplicateDetection bool `yaml:"duplicate_detection"`
}

// ListsConfig contains URL domain classification lists
type ListsConfig struct {
	// Domains that never add weight
	AllowedDomains []string `yaml:"allowed_domains"`

	// Domains that always add weight
	DeniedDomains []string `yaml:"denied_domains"`

	// DNS blocklist lookups for domains not on either list
	DNSBL DNSBLConfig `yaml:"dnsbl"`
}

// DNSBLConfig controls DNS blocklist lookups for message URLs
type DNSBLConfig struct {
	Enabled bool `yaml:"enabled"`

	// Blocklist zones queried as <domain>.<zone>
	Zones []string `yaml:"zones"`

	// Per-lookup timeout in milliseconds
	TimeoutMs int `yaml:"timeout_ms"`

	// Cached lookup results
	CacheSize int `yaml:"cache_size"`

	// Cache entry lifetime (Go duration string)
	CacheTTL string `yaml:"cache_ttl"`
}

// ThresholdsConfig contains action tier thresholds and learning bounds
type ThresholdsConfig struct {
	// Channel-agnostic defaults
	Escalate float64 `yaml:"escalate"`
	Moderate float64 `yaml:"moderate"`
	Flag     float64 `yaml:"flag"`

	// Fixed nudge step for false positive/negative corrections
	AdjustStep float64 `yaml:"adjust_step"`

	// Per-tier clamp ranges
	EscalateMin float64 `yaml:"escalate_min"`
	EscalateMax float64 `yaml:"escalate_max"`
	ModerateMin float64 `yaml:"moderate_min"`
	ModerateMax float64 `yaml:"moderate_max"`
	FlagMin     float64 `yaml:"flag_min"`
	FlagMax     float64 `yaml:"flag_max"`

	// Minimum recorded outcomes before batch learning runs
	MinOutcomes int `yaml:"min_outcomes"`
}

// ReputationConfig contains reputation ledger parameters
type ReputationConfig struct {
	// Point deltas
	DailyActive    int `yaml:"daily_active"`
	ValidReport    int `yaml:"valid_report"`
	WarningPenalty int `yaml:"warning_penalty"`
	MutePenalty    int `yaml:"mute_penalty"`
	UnmuteBonus    int `yaml:"unmute_bonus"`

	// Streak bonuses
	WeekStreakBonus  int `yaml:"week_streak_bonus"`
	MonthStreakBonus int `yaml:"month_streak_bonus"`

	// Maximum positive points per sender per UTC day
	MaxDailyPoints int `yaml:"max_daily_points"`

	// Minimum seconds between report credits
	ReportCooldownSeconds int `yaml:"report_cooldown_seconds"`

	// Level cutoffs (ascending)
	LevelMember  int `yaml:"level_member"`
	LevelTrusted int `yaml:"level_trusted"`
	LevelVIP     int `yaml:"level_vip"`

	// Point balance at or above which a sender is immune to escalation
	ImmunityFloor int `yaml:"immunity_floor"`
}

// BehaviorConfig contains behavior profiler parameters
type BehaviorConfig struct {
	// Ring buffer capacity per sender
	WindowSize int `yaml:"window_size"`

	// Minimum history before anomaly detection runs
	MinHistory int `yaml:"min_history"`

	// Anomaly score at or above which the boolean flag is set
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`

	// Days of inactivity after which persisted profiles are pruned
	ProfileRetentionDays int `yaml:"profile_retention_days"`
}

// ContextConfig contains conversation window parameters
type ContextConfig struct {
	// Ring buffer capacity per channel
	WindowSize int `yaml:"window_size"`

	// Time window in minutes
	WindowMinutes int `yaml:"window_minutes"`

	// Legitimacy score at or above which the discount applies
	LegitimacyThreshold float64 `yaml:"legitimacy_threshold"`

	// Absolute cap on the score reduction
	MaxReduction float64 `yaml:"max_reduction"`

	// Fraction of the current score the reduction may reach
	ReductionFraction float64 `yaml:"reduction_fraction"`
}

// RateLimitConfig contains rate and duplicate tracker parameters
type RateLimitConfig struct {
	// Messages per sender per minute before weight applies
	MaxPerMinute int `yaml:"max_per_minute"`

	// Distinct senders of the same text before duplicate weight applies
	DuplicateThreshold int `yaml:"duplicate_threshold"`

	// Maximum distinct texts tracked for duplicates
	MaxTrackedTexts int `yaml:"max_tracked_texts"`

	// Maximum senders tracked for rate limiting
	MaxTrackedSenders int `yaml:"max_tracked_senders"`
}

// LearningConfig contains statistical classifier settings
type LearningConfig struct {
	Enabled bool `yaml:"enabled"`

	// Backend selection: "file" or "redis"
	Backend string `yaml:"backend"`

	// Retrain after this many new spam examples
	RetrainBatchSize int `yaml:"retrain_batch_size"`

	// Minimum total samples before training
	MinTrainingSamples int `yaml:"min_training_samples"`

	// Confidence below which the classifier contributes nothing
	MinConfidence float64 `yaml:"min_confidence"`

	// Confidence at or above which the larger weight applies
	HighConfidence float64 `yaml:"high_confidence"`

	// Laplace smoothing factor
	SmoothingFactor float64 `yaml:"smoothing_factor"`

	// Corpus and model directory (file backend)
	CorpusPath string `yaml:"corpus_path"`

	// Redis backend settings
	Redis RedisLearningConfig `yaml:"redis"`
}

// RedisLearningConfig contains Redis-backed classifier settings
type RedisLearningConfig struct {
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num"`

	// OSB tokenization
	OSBWindowSize  int `yaml:"osb_window_size"`
	MinTokenLength int `yaml:"min_token_length"`
	MaxTokenLength int `yaml:"max_token_length"`
	MaxTokens      int `yaml:"max_tokens"`

	// Token expiration (Go duration string, empty = no expiry)
	TokenTTL string `yaml:"token_ttl"`
}

// ScannersConfig contains external ML scanner settings
type ScannersConfig struct {
	Enabled bool `yaml:"enabled"`

	// Shared requests-per-minute budget across all scanners
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Per-call timeout in milliseconds
	TimeoutMs int `yaml:"timeout_ms"`

	// Individual scanner configs
	LLM      ScannerConfig `yaml:"llm"`
	ZeroShot ScannerConfig `yaml:"zero_shot"`
}

// ScannerConfig contains individual scanner settings
type ScannerConfig struct {
	Enabled bool    `yaml:"enabled"`
	URL     string  `yaml:"url"`
	APIKey  string  `yaml:"api_key"`
	Model   string  `yaml:"model"`
	Weight  float64 `yaml:"weight"`
}

// DecisionConfig contains action review parameters
type DecisionConfig struct {
	// Scored messages remembered per sender
	HistorySize int `yaml:"history_size"`

	// Maximum senders tracked (LRU beyond this)
	MaxSenders int `yaml:"max_senders"`

	// Score below which a past message counts as safe
	SafeScore float64 `yaml:"safe_score"`

	// Minimum history before leniency applies
	MinMessages int `yaml:"min_messages"`

	// Fraction of safe history required for a downgrade
	SafeRatio float64 `yaml:"safe_ratio"`

	// Categories that are never softened
	AlwaysSevereCategories []string `yaml:"always_severe_categories"`
}

// RaidConfig contains join-raid detection parameters
type RaidConfig struct {
	Enabled bool `yaml:"enabled"`

	// Window length in minutes
	WindowMinutes int `yaml:"window_minutes"`

	// Joins inside the window that signal a raid
	JoinThreshold int `yaml:"join_threshold"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	// Backend selection: "file" or "redis"
	Backend string `yaml:"backend"`

	// Data directory for the file backend
	DataDir string `yaml:"data_dir"`

	// Redis connection for the redis backend
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num"`

	// Write retry attempts before giving up
	MaxRetries int `yaml:"max_retries"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			AllowlistPhrases: []string{
				"how to get promo code", "what is a promo code",
				"where do i enter the promo code", "is there a referral program",
				"how do i withdraw", "how does staking work",
			},
			InstantKeywords: []string{
				"wallet connect", "validate wallet", "sync wallet",
				"seed phrase", "recovery phrase",
			},
			CasinoPhrases: []string{
				"1win", "1xbet", "xwin", "22bet", "melbet", "mostbet", "linebet",
				"casino bonus", "free spins", "slot machine", "betting bonus",
				"on your balance", "activate the promo", "activate promo",
				"play anywhere", "$200 free", "$100 free",
			},
			DMSolicitationPhrases: []string{
				"dm me now", "inbox me now", "message me now",
				"dm for gains", "dm me for", "write me in private",
			},
			SpamKeywords: []string{
				"100x", "1000x", "guaranteed profit", "guaranteed returns",
				"free airdrop", "claim now", "act fast", "limited time",
				"click here", "join now", "hurry up", "don't miss",
				"make money fast", "work from home", "be your own boss",
				"invest with me", "trading signals", "binary options",
				"forex signals", "pump", "moonshot",
			},
			PromoKeywords: []string{
				"join", "click", "now", "link", "hurry", "bonus",
				"win", "free", "promo", "cash", "prize",
			},
			Weights: FeatureWeights{
				KeywordSingle:   0.3,
				KeywordDouble:   0.5,
				KeywordTriple:   0.8,
				SuspiciousURL:   0.8,
				UnknownURL:      0.4,
				CryptoAddress:   0.4,
				ExcessiveCaps:   0.3,
				RepeatedChars:   0.2,
				ExcessiveEmojis: 0.2,
				MentionSpam:     0.4,
				RateLimit:       0.5,
				Duplicate:       0.6,
				Anomaly:         0.3,
				ClassifierHigh:  0.4,
				ClassifierLow:   0.2,
				Scanner:         0.4,
				NewSenderLink:   0.6,
				ProfanitySingle: 0.3,
				ProfanityDouble: 0.4,
				ProfanityTriple: 0.6,
			},
			ProfanityWords: []string{
				"fuck", "shit", "bitch", "asshole", "bastard",
				"dick", "cock", "pussy", "cunt", "whore",
			},
			NewSenderLinkHours:      24,
			RecruitmentScamCutoff:   3.5,
			CustomEmojiThreshold:    5,
			HyperlinkEmojiThreshold: 2,
			EmojiWeightThreshold:    5,
			MentionThreshold:        3,
			MoneyEmoji: MoneyEmojiConfig{
				Enabled:        true,
				Emojis:         []string{"💰", "💵", "💸", "🤑", "💲", "💳", "🏧", "💎", "🪙"},
				Threshold:      2,
				MinReputation:  1,
				NewSenderHours: 48,
			},
			Scripts: ScriptsConfig{
				Enabled: true,
				Blocked: []string{"chinese", "korean", "cyrillic", "japanese", "arabic", "thai", "vietnamese"},
			},
			Features: FeatureToggles{
				KeywordDetection:   true,
				URLAnalysis:        true,
				CryptoDetection:    true,
				MentionSpam:        true,
				ProfanityFilter:    true,
				NewSenderLinks:     true,
				ScriptBlocking:     true,
				BehaviorProfiling:  true,
				ContextAnalysis:    true,
				RateTracking:       true,
				DuplicateDetection: true,
			},
		},
		Lists: ListsConfig{
			AllowedDomains: []string{
				"binance.com", "bybit.com", "coingecko.com", "coinmarketcap.com",
				"tradingview.com", "github.com", "etherscan.io",
			},
			DeniedDomains: []string{
				"bit.ly", "tinyurl.com", "t.co", "goo.gl", "cutt.ly", "shorturl.at",
			},
			DNSBL: DNSBLConfig{
				Enabled:   false,
				Zones:     []string{"dbl.spamhaus.org"},
				TimeoutMs: 2000,
				CacheSize: 1000,
				CacheTTL:  "30m",
			},
		},
		Thresholds: ThresholdsConfig{
			Escalate:    0.7,
			Moderate:    0.5,
			Flag:        0.3,
			AdjustStep:  0.05,
			EscalateMin: 0.5,
			EscalateMax: 0.95,
			ModerateMin: 0.3,
			ModerateMax: 0.85,
			FlagMin:     0.1,
			FlagMax:     0.5,
			MinOutcomes: 10,
		},
		Reputation: ReputationConfig{
			DailyActive:           1,
			ValidReport:           10,
			WarningPenalty:        10,
			MutePenalty:           25,
			UnmuteBonus:           15,
			WeekStreakBonus:       5,
			MonthStreakBonus:      25,
			MaxDailyPoints:        50,
			ReportCooldownSeconds: 300,
			LevelMember:           51,
			LevelTrusted:          201,
			LevelVIP:              501,
			ImmunityFloor:         500,
		},
		Behavior: BehaviorConfig{
			WindowSize:           100,
			MinHistory:           5,
			AnomalyThreshold:     0.5,
			ProfileRetentionDays: 90,
		},
		Context: ContextConfig{
			WindowSize:          20,
			WindowMinutes:       30,
			LegitimacyThreshold: 0.5,
			MaxReduction:        0.4,
			ReductionFraction:   0.6,
		},
		RateLimit: RateLimitConfig{
			MaxPerMinute:       10,
			DuplicateThreshold: 3,
			MaxTrackedTexts:    100,
			MaxTrackedSenders:  10000,
		},
		Learning: LearningConfig{
			Enabled:            true,
			Backend:            "file",
			RetrainBatchSize:   10,
			MinTrainingSamples: 20,
			MinConfidence:      0.6,
			HighConfidence:     0.75,
			SmoothingFactor:    1.0,
			CorpusPath:         "data/classifier",
			Redis: RedisLearningConfig{
				RedisURL:       "redis://localhost:6379",
				KeyPrefix:      "modsentry:bayes",
				DatabaseNum:    0,
				OSBWindowSize:  5,
				MinTokenLength: 3,
				MaxTokenLength: 32,
				MaxTokens:      1000,
				TokenTTL:       "720h",
			},
		},
		Scanners: ScannersConfig{
			Enabled:           false,
			RequestsPerMinute: 10,
			TimeoutMs:         10000,
			LLM: ScannerConfig{
				Enabled: false,
				Model:   "gemini-2.5-flash",
				Weight:  1.0,
			},
			ZeroShot: ScannerConfig{
				Enabled: false,
				Weight:  1.0,
			},
		},
		Decision: DecisionConfig{
			HistorySize: 10,
			MaxSenders:  5000,
			SafeScore:   0.4,
			MinMessages: 5,
			SafeRatio:   0.8,
			AlwaysSevereCategories: []string{
				"adult_content", "bot_link", "instant_keyword", "disallowed_script",
			},
		},
		Raid: RaidConfig{
			Enabled:       true,
			WindowMinutes: 5,
			JoinThreshold: 10,
		},
		Storage: StorageConfig{
			Backend:     "file",
			DataDir:     "data",
			RedisURL:    "redis://localhost:6379",
			KeyPrefix:   "modsentry",
			DatabaseNum: 0,
			MaxRetries:  3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from file, starting from defaults
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration. Threshold ordering problems are
// repaired by clamping rather than rejected, so scoring always has a
// usable tier set.
func (c *Config) Validate() error {
	t := &c.Thresholds

	t.Escalate = clamp(t.Escalate, t.EscalateMin, t.EscalateMax)
	t.Moderate = clamp(t.Moderate, t.ModerateMin, t.ModerateMax)
	t.Flag = clamp(t.Flag, t.FlagMin, t.FlagMax)

	// Tier ordering: escalate >= moderate >= flag
	if t.Moderate > t.Escalate {
		t.Moderate = t.Escalate
	}
	if t.Flag > t.Moderate {
		t.Flag = t.Moderate
	}

	if t.AdjustStep <= 0 {
		return fmt.Errorf("thresholds adjust_step must be positive")
	}

	if c.Behavior.WindowSize < 1 {
		return fmt.Errorf("behavior window_size must be >= 1")
	}

	if c.Context.WindowSize < 1 {
		return fmt.Errorf("context window_size must be >= 1")
	}

	if c.RateLimit.MaxPerMinute < 1 {
		return fmt.Errorf("rate_limit max_per_minute must be >= 1")
	}

	if c.Learning.Backend != "file" && c.Learning.Backend != "redis" {
		return fmt.Errorf("learning backend must be 'file' or 'redis', got %q", c.Learning.Backend)
	}

	if c.Storage.Backend != "file" && c.Storage.Backend != "redis" {
		return fmt.Errorf("storage backend must be 'file' or 'redis', got %q", c.Storage.Backend)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	return nil
}

// IsAllowedDomain checks if a URL matches the domain allow list
func (c *Config) IsAllowedDomain(url string) bool {
	return matchesAnyDomain(url, c.Lists.AllowedDomains)
}

// IsDeniedDomain checks if a URL matches the domain deny list
func (c *Config) IsDeniedDomain(url string) bool {
	return matchesAnyDomain(url, c.Lists.DeniedDomains)
}

func matchesAnyDomain(url string, domains []string) bool {
	lower := strings.ToLower(url)
	for _, d := range domains {
		if d != "" && strings.Contains(lower, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
