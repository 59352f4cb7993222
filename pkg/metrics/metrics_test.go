package metrics

import (
	"testing"
	"time"
)

func TestTimerRecords(t *testing.T) {
	c := NewCollector()
	timer := c.Start("disqualify")
	time.Sleep(time.Millisecond)
	if d := timer.Stop(); d <= 0 {
		t.Errorf("expected positive duration, got %v", d)
	}

	stats := c.Stats()
	if len(stats) != 1 || stats[0].Stage != "disqualify" || stats[0].Count != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestStatsPercentiles(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.Record("stage", time.Duration(i)*time.Millisecond)
	}

	stats := c.Stats()
	if len(stats) != 1 {
		t.Fatalf("expected one stage, got %d", len(stats))
	}
	s := stats[0]
	if s.Max != 100*time.Millisecond {
		t.Errorf("expected max 100ms, got %v", s.Max)
	}
	if s.P95 < 90*time.Millisecond || s.P95 > 100*time.Millisecond {
		t.Errorf("expected p95 near 95ms, got %v", s.P95)
	}
}

func TestSampleBufferBounded(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 3*maxSamples; i++ {
		c.Record("hot", time.Millisecond)
	}
	if got := c.Stats()[0].Count; got > maxSamples {
		t.Errorf("expected at most %d samples, got %d", maxSamples, got)
	}
}

func TestReset(t *testing.T) {
	c := NewCollector()
	c.Record("stage", time.Millisecond)
	c.Reset()
	if got := len(c.Stats()); got != 0 {
		t.Errorf("expected empty stats after reset, got %d", got)
	}
}
