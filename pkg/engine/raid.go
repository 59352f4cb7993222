package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
)

// raidTracker watches join velocity per channel. It only signals; the
// host decides what lockdown means.
type raidTracker struct {
	mu       sync.Mutex
	joins    map[string][]time.Time
	window   time.Duration
	threshold int
}

func newRaidTracker(cfg config.RaidConfig) *raidTracker {
	return &raidTracker{
		joins:     make(map[string][]time.Time),
		window:    time.Duration(cfg.WindowMinutes) * time.Minute,
		threshold: cfg.JoinThreshold,
	}
}

// record registers a join and reports whether the channel is now in a
// raid window
func (r *raidTracker) record(channelID string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := at.Add(-r.window)
	keep := r.joins[channelID][:0]
	for _, t := range r.joins[channelID] {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	keep = append(keep, at)
	r.joins[channelID] = keep
	return len(keep) >= r.threshold
}

// active reports whether the channel is currently in a raid window
func (r *raidTracker) active(channelID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.window)
	count := 0
	for _, t := range r.joins[channelID] {
		if t.After(cutoff) {
			count++
		}
	}
	return count >= r.threshold
}

// RecordJoin registers a channel join and reports whether join
// velocity has crossed the raid threshold
func (e *Engine) RecordJoin(channelID string, at time.Time) bool {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if e.raid.record(channelID, at) {
		e.logger.Warn("raid window active",
			zap.String("channel", channelID))
		return true
	}
	return false
}

// InRaidWindow reports whether the channel currently exceeds the join
// velocity threshold
func (e *Engine) InRaidWindow(channelID string) bool {
	return e.raid.active(channelID, time.Now().UTC())
}
