package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds per-stage memory
const maxSamples = 1000

// Collector tracks execution times per pipeline stage
type Collector struct {
	mu    sync.RWMutex
	times map[string][]time.Duration
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{times: make(map[string][]time.Duration)}
}

// Timer is one in-flight measurement
type Timer struct {
	collector *Collector
	stage     string
	start     time.Time
}

// Start begins timing a stage
func (c *Collector) Start(stage string) *Timer {
	return &Timer{collector: c, stage: stage, start: time.Now()}
}

// Stop records the elapsed time
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.collector.Record(t.stage, elapsed)
	return elapsed
}

// Record stores one timing sample, dropping the oldest half when the
// stage's buffer fills
func (c *Collector) Record(stage string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	samples := c.times[stage]
	if len(samples) >= maxSamples {
		samples = append(samples[:0], samples[maxSamples/2:]...)
	}
	c.times[stage] = append(samples, d)
}

// StageStats summarizes one stage's timings
type StageStats struct {
	Stage string
	Count int
	Mean  time.Duration
	P95   time.Duration
	Max   time.Duration
}

// Stats returns per-stage summaries sorted by total time spent
func (c *Collector) Stats() []StageStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]StageStats, 0, len(c.times))
	for stage, samples := range c.times {
		if len(samples) == 0 {
			continue
		}
		sorted := make([]time.Duration, len(samples))
		copy(sorted, samples)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var total time.Duration
		for _, d := range sorted {
			total += d
		}
		out = append(out, StageStats{
			Stage: stage,
			Count: len(sorted),
			Mean:  total / time.Duration(len(sorted)),
			P95:   sorted[len(sorted)*95/100],
			Max:   sorted[len(sorted)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Mean*time.Duration(out[i].Count) > out[j].Mean*time.Duration(out[j].Count)
	})
	return out
}

// Reset discards all samples
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.times = make(map[string][]time.Duration)
}
