package behavior

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/store"
)

// Profile is the persisted behavioral summary for one sender
type Profile struct {
	CreatedAt     time.Time `json:"created_at"`
	LastSeen      time.Time `json:"last_seen"`
	MessageCount  int       `json:"message_count"`
	ActiveHours   []int     `json:"active_hours"`
	AvgLength     float64   `json:"avg_message_length"`
	AvgLinkCount  float64   `json:"avg_link_count"`
	AvgEmojiCount float64   `json:"avg_emoji_count"`
	ActiveDays    int       `json:"active_days"`
	PerDay        float64   `json:"messages_per_day"`
}

// AnomalyResult reports how far a message deviates from a sender's
// established pattern
type AnomalyResult struct {
	IsAnomaly bool
	Score     float64
	Reasons   []string
}

// senderWindow holds the in-memory recent observations per sender
type senderWindow struct {
	hours       *ring[int]
	lengths     *ring[int]
	linkCounts  *ring[int]
	emojiCounts *ring[int]
	activeDays  map[string]int // date -> message count
	createdAt   time.Time
	lastSeen    time.Time
}

// Profiler tracks per-sender behavior and flags deviations. New
// senders yield no signal until enough history accumulates.
type Profiler struct {
	mu      sync.Mutex
	senders map[string]*senderWindow
	loaded  map[string]*Profile

	cfg    config.BehaviorConfig
	store  store.Store
	logger *zap.Logger
}

// NewProfiler creates a behavior profiler. The store may be nil, in
// which case profiles live only in memory.
func NewProfiler(cfg config.BehaviorConfig, st store.Store, logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		senders: make(map[string]*senderWindow),
		loaded:  make(map[string]*Profile),
		cfg:     cfg,
		store:   st,
		logger:  logger,
	}
}

// Record tracks one message for a sender
func (p *Profiler) Record(senderID, text string, at time.Time) {
	emojis, links := countEmojisAndLinks(text)

	p.mu.Lock()
	defer p.mu.Unlock()

	w := p.window(senderID, at)
	w.lastSeen = at
	w.hours.push(at.UTC().Hour())
	w.lengths.push(len([]rune(text)))
	w.linkCounts.push(links)
	w.emojiCounts.push(emojis)
	day := at.UTC().Format("2006-01-02")
	w.activeDays[day]++
}

// GetProfile returns the current behavioral summary for a sender
func (p *Profiler) GetProfile(senderID string) *Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profileLocked(senderID)
}

func (p *Profiler) profileLocked(senderID string) *Profile {
	w, ok := p.senders[senderID]
	if !ok {
		// A persisted summary stands in until the sender speaks again
		if prof, ok := p.loaded[senderID]; ok {
			cp := *prof
			return &cp
		}
		now := time.Now().UTC()
		return &Profile{CreatedAt: now, LastSeen: now}
	}

	prof := &Profile{
		CreatedAt:     w.createdAt,
		LastSeen:      w.lastSeen,
		MessageCount:  w.hours.len(),
		ActiveHours:   distinct(w.hours.values()),
		AvgLength:     meanInt(w.lengths.values()),
		AvgLinkCount:  meanInt(w.linkCounts.values()),
		AvgEmojiCount: meanInt(w.emojiCounts.values()),
		ActiveDays:    len(w.activeDays),
	}
	if prof.ActiveDays > 0 {
		total := 0
		for _, c := range w.activeDays {
			total += c
		}
		prof.PerDay = float64(total) / float64(prof.ActiveDays)
	}
	return prof
}

// DetectAnomaly compares a message against the sender's profile. The
// comparison uses the profile as it stood before this message, so call
// it before Record.
func (p *Profiler) DetectAnomaly(senderID, text string, at time.Time) *AnomalyResult {
	p.mu.Lock()
	prof := p.profileLocked(senderID)
	p.mu.Unlock()

	result := &AnomalyResult{}
	if prof.MessageCount < p.cfg.MinHistory {
		return result
	}

	emojis, links := countEmojisAndLinks(text)
	currentLen := len([]rune(text))

	if prof.AvgLength > 0 {
		ratio := float64(currentLen) / prof.AvgLength
		if ratio > 3.0 || ratio < 0.2 {
			result.Score += 0.3
			result.Reasons = append(result.Reasons, fmt.Sprintf("unusual message length (%.1fx normal)", ratio))
		}
	}

	if prof.AvgLinkCount < 0.1 && links > 0 {
		result.Score += 0.4
		result.Reasons = append(result.Reasons, fmt.Sprintf("sender rarely posts links, message has %d", links))
	} else if prof.AvgLinkCount > 0 && float64(links) > prof.AvgLinkCount*2 {
		result.Score += 0.3
		result.Reasons = append(result.Reasons, fmt.Sprintf("unusual link count (%d vs avg %.1f)", links, prof.AvgLinkCount))
	}

	if prof.AvgEmojiCount < 1 && emojis > 5 {
		result.Score += 0.2
		result.Reasons = append(result.Reasons, fmt.Sprintf("unusual emoji usage (%d vs avg %.1f)", emojis, prof.AvgEmojiCount))
	}

	if len(prof.ActiveHours) > 0 {
		hour := at.UTC().Hour()
		lo, hi := minMax(prof.ActiveHours)
		if !containsInt(prof.ActiveHours, hour) && (hour < lo-3 || hour > hi+3) {
			result.Score += 0.2
			result.Reasons = append(result.Reasons, fmt.Sprintf("unusual posting time (%d:00 vs typical %d:00-%d:00)", hour, lo, hi))
		}
	}

	result.IsAnomaly = result.Score >= p.cfg.AnomalyThreshold
	return result
}

// Persist writes all active profiles through the store, dropping
// senders idle past the retention window
func (p *Profiler) Persist(ctx context.Context) {
	if p.store == nil {
		return
	}

	p.mu.Lock()
	cutoff := time.Now().UTC().AddDate(0, 0, -p.cfg.ProfileRetentionDays)
	type pair struct {
		id      string
		profile *Profile
	}
	var pairs []pair
	for id, w := range p.senders {
		if w.lastSeen.Before(cutoff) {
			delete(p.senders, id)
			continue
		}
		pairs = append(pairs, pair{id, p.profileLocked(id)})
	}
	p.mu.Unlock()

	for _, pr := range pairs {
		if err := p.store.Put(ctx, "behavior:"+pr.id, pr.profile); err != nil {
			p.logger.Warn("failed to persist behavior profile",
				zap.String("sender", pr.id), zap.Error(err))
		}
	}
}

// Load restores persisted profile summaries. Loaded summaries answer
// profile and anomaly queries until fresh observations replace them.
func (p *Profiler) Load(ctx context.Context) {
	if p.store == nil {
		return
	}
	keys, err := p.store.Keys(ctx, "behavior:")
	if err != nil {
		p.logger.Warn("failed to list persisted behavior profiles", zap.Error(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, key := range keys {
		var prof Profile
		if err := p.store.Get(ctx, key, &prof); err != nil {
			p.logger.Warn("failed to load behavior profile", zap.String("key", key), zap.Error(err))
			continue
		}
		p.loaded[strings.TrimPrefix(key, "behavior:")] = &prof
	}
}

// Stats returns profiler counters
func (p *Profiler) Stats() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]int{"profiled_senders": len(p.senders)}
}

func (p *Profiler) window(senderID string, at time.Time) *senderWindow {
	w, ok := p.senders[senderID]
	if !ok {
		w = &senderWindow{
			hours:       newRing[int](p.cfg.WindowSize),
			lengths:     newRing[int](p.cfg.WindowSize),
			linkCounts:  newRing[int](p.cfg.WindowSize),
			emojiCounts: newRing[int](p.cfg.WindowSize),
			activeDays:  make(map[string]int),
			createdAt:   at,
		}
		p.senders[senderID] = w
	}
	return w
}

func countEmojisAndLinks(text string) (emojis, links int) {
	links = strings.Count(text, "http://") + strings.Count(text, "https://") + strings.Count(text, "t.me/")
	for _, r := range text {
		if r > 0x2100 {
			emojis++
		}
	}
	return emojis, links
}

func meanInt(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}

func distinct(vals []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func minMax(vals []int) (int, int) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func containsInt(vals []int, v int) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
