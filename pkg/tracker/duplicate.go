package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
)

// DuplicateTracker detects the same text fanned out by multiple
// senders. Texts are keyed by hash; the tracked set is bounded FIFO.
type DuplicateTracker struct {
	mu      sync.Mutex
	byHash  map[string]map[string]bool
	order   []string
	maxSize int

	threshold int
}

// DuplicateResult contains duplicate analysis for one recorded message
type DuplicateResult struct {
	DistinctSenders int
	IsFlood         bool
}

// NewDuplicateTracker creates a duplicate tracker
func NewDuplicateTracker(threshold, maxTrackedTexts int) *DuplicateTracker {
	return &DuplicateTracker{
		byHash:    make(map[string]map[string]bool),
		maxSize:   maxTrackedTexts,
		threshold: threshold,
	}
}

// Record registers a message text for a sender and reports how many
// distinct senders have posted it
func (dt *DuplicateTracker) Record(text, senderID string) *DuplicateResult {
	h := hashText(text)

	dt.mu.Lock()
	defer dt.mu.Unlock()

	senders, exists := dt.byHash[h]
	if !exists {
		if len(dt.order) >= dt.maxSize {
			oldest := dt.order[0]
			dt.order = dt.order[1:]
			delete(dt.byHash, oldest)
		}
		senders = make(map[string]bool)
		dt.byHash[h] = senders
		dt.order = append(dt.order, h)
	}
	senders[senderID] = true

	count := len(senders)
	return &DuplicateResult{
		DistinctSenders: count,
		IsFlood:         count >= dt.threshold,
	}
}

// Reset clears all tracking data
func (dt *DuplicateTracker) Reset() {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.byHash = make(map[string]map[string]bool)
	dt.order = nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(text))))
	return hex.EncodeToString(sum[:])
}
