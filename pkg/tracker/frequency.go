package tracker

import (
	"sync"
	"time"
)

// RateTracker tracks per-sender message timestamps over a one-minute
// sliding window
type RateTracker struct {
	mu      sync.Mutex
	senders map[string][]time.Time

	maxPerMinute      int
	maxTrackedSenders int
}

// RateResult contains rate analysis for one recorded message
type RateResult struct {
	MessagesInWindow int
	OverLimit        bool
	NearLimit        bool
}

// NewRateTracker creates a rate tracker
func NewRateTracker(maxPerMinute, maxTrackedSenders int) *RateTracker {
	return &RateTracker{
		senders:           make(map[string][]time.Time),
		maxPerMinute:      maxPerMinute,
		maxTrackedSenders: maxTrackedSenders,
	}
}

// Record registers a message from a sender and returns the current
// window state including the new message
func (rt *RateTracker) Record(senderID string, at time.Time) *RateResult {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	cutoff := at.Add(-time.Minute)

	if len(rt.senders) >= rt.maxTrackedSenders {
		rt.pruneStale(cutoff)
	}

	recent := rt.senders[senderID][:0]
	for _, t := range rt.senders[senderID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, at)
	rt.senders[senderID] = recent

	count := len(recent)
	return &RateResult{
		MessagesInWindow: count,
		OverLimit:        count > rt.maxPerMinute,
		NearLimit:        float64(count) > float64(rt.maxPerMinute)*0.7,
	}
}

// pruneStale drops senders with no activity inside the window.
// Caller must hold the lock.
func (rt *RateTracker) pruneStale(cutoff time.Time) {
	for id, times := range rt.senders {
		stale := true
		for _, t := range times {
			if t.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(rt.senders, id)
		}
	}
}

// Stats returns tracker counters
func (rt *RateTracker) Stats() map[string]int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return map[string]int{
		"tracked_senders": len(rt.senders),
	}
}

// Reset clears all tracking data
func (rt *RateTracker) Reset() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.senders = make(map[string][]time.Time)
}
