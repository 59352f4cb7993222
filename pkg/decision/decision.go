package decision

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/verdict"
)

// tracked is one scored message remembered per sender
type tracked struct {
	score float64
	at    time.Time
}

// history is a bounded FIFO of a sender's recent scored messages
type history struct {
	entries []tracked
	cap     int
}

func (h *history) push(t tracked) {
	h.entries = append(h.entries, t)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
}

// Engine reviews proposed actions against a sender's recent record.
// It can only soften: an action never comes out more severe than it
// went in.
type Engine struct {
	histories *lru.Cache[string, *history]

	historySize  int
	safeScore    float64
	minMessages  int
	safeRatio    float64
	alwaysSevere map[string]bool
}

// NewEngine creates a decision engine
func NewEngine(cfg config.DecisionConfig) (*Engine, error) {
	cache, err := lru.New[string, *history](cfg.MaxSenders)
	if err != nil {
		return nil, fmt.Errorf("failed to create history cache: %w", err)
	}

	severe := make(map[string]bool)
	for _, c := range cfg.AlwaysSevereCategories {
		severe[c] = true
	}

	return &Engine{
		histories:    cache,
		historySize:  cfg.HistorySize,
		safeScore:    cfg.SafeScore,
		minMessages:  cfg.MinMessages,
		safeRatio:    cfg.SafeRatio,
		alwaysSevere: severe,
	}, nil
}

// Track records a scored message for a sender
func (e *Engine) Track(senderID string, score float64, at time.Time) {
	h, ok := e.histories.Get(senderID)
	if !ok {
		h = &history{cap: e.historySize}
		e.histories.Add(senderID, h)
	}
	h.push(tracked{score: score, at: at})
}

// Decide reviews a proposed action. Senders with a mostly-clean recent
// record get harsh actions downgraded to delete-and-warn; categories
// marked always-severe pass through untouched.
func (e *Engine) Decide(senderID string, proposed verdict.Action, category string) (verdict.Action, string) {
	if e.alwaysSevere[category] {
		return proposed, fmt.Sprintf("severe violation (%s) overrides history", category)
	}

	h, ok := e.histories.Get(senderID)
	if !ok || len(h.entries) == 0 {
		return proposed, "no history"
	}

	if proposed == verdict.ActionBan || proposed == verdict.ActionMute {
		safe := 0
		for _, t := range h.entries {
			if t.score < e.safeScore {
				safe++
			}
		}
		ratio := float64(safe) / float64(len(h.entries))
		if len(h.entries) >= e.minMessages && ratio >= e.safeRatio {
			return verdict.ActionDeleteAndWarn,
				fmt.Sprintf("downgraded to warn (safe ratio %.0f%%, %d msgs)", ratio*100, len(h.entries))
		}
	}

	return proposed, "history does not warrant leniency"
}

// Len returns the number of tracked senders
func (e *Engine) Len() int {
	return e.histories.Len()
}
