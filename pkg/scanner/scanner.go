package scanner

import (
	"context"
	"sync"
	"time"
)

// Result is one scanner's opinion about a message
type Result struct {
	IsSpam     bool    `json:"is_spam"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
}

// Scanner is an external ML spam scanner. A nil Result with a nil
// error means the scanner had no opinion (rate limited, text too
// short, model still loading). Scanners are advisory only.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, text string) (*Result, error)
}

// Budget is a sliding-window requests-per-minute limiter shared by
// all scanners
type Budget struct {
	mu    sync.Mutex
	times []time.Time
	limit int
}

// NewBudget creates a requests-per-minute budget
func NewBudget(requestsPerMinute int) *Budget {
	return &Budget{limit: requestsPerMinute}
}

// Allow consumes one request slot if available
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)
	keep := b.times[:0]
	for _, t := range b.times {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	b.times = keep

	if len(b.times) >= b.limit {
		return false
	}
	b.times = append(b.times, now)
	return true
}
