package behavior

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/store"
)

func testProfiler() *Profiler {
	return NewProfiler(config.DefaultConfig().Behavior, nil, nil)
}

func seedHistory(p *Profiler, senderID string, n int, at time.Time) {
	for i := 0; i < n; i++ {
		p.Record(senderID, fmt.Sprintf("just a normal chat message number %d", i), at)
	}
}

func TestNoSignalWithoutHistory(t *testing.T) {
	p := testProfiler()
	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	// Fewer messages than the minimum history
	seedHistory(p, "newbie", 3, at)
	r := p.DetectAnomaly("newbie", "TOTALLY DIFFERENT https://spam.example "+strings.Repeat("x", 500), at)
	if r.IsAnomaly || r.Score != 0 {
		t.Errorf("expected no signal below minimum history, got %+v", r)
	}
}

func TestAnomalousLinkAndLength(t *testing.T) {
	p := testProfiler()
	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	seedHistory(p, "alice", 10, at)

	// Sudden link plus a message far longer than anything before
	text := "click this https://scam.example " + strings.Repeat("word ", 60)
	r := p.DetectAnomaly("alice", text, at)
	if !r.IsAnomaly {
		t.Fatalf("expected anomaly, got %+v", r)
	}
	if r.Score < 0.5 {
		t.Errorf("expected score >= 0.5, got %.2f", r.Score)
	}
	if len(r.Reasons) < 2 {
		t.Errorf("expected link and length reasons, got %v", r.Reasons)
	}
}

func TestTypicalMessageNotAnomalous(t *testing.T) {
	p := testProfiler()
	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	seedHistory(p, "bob", 10, at)

	r := p.DetectAnomaly("bob", "just a normal chat message again", at)
	if r.IsAnomaly {
		t.Errorf("expected no anomaly for typical message, got %+v", r)
	}
}

func TestUnusualHourAddsScore(t *testing.T) {
	p := testProfiler()
	daytime := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	seedHistory(p, "carol", 10, daytime)

	night := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	r := p.DetectAnomaly("carol", "just a normal chat message again", night)
	if r.Score == 0 {
		t.Errorf("expected posting-time deviation to score, got %+v", r)
	}
}

func TestProfileSummary(t *testing.T) {
	p := testProfiler()
	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	seedHistory(p, "dave", 5, at)

	prof := p.GetProfile("dave")
	if prof.MessageCount != 5 {
		t.Errorf("expected 5 messages, got %d", prof.MessageCount)
	}
	if prof.AvgLength <= 0 {
		t.Error("expected positive average length")
	}
	if prof.ActiveDays != 1 {
		t.Errorf("expected 1 active day, got %d", prof.ActiveDays)
	}
}

func TestWindowBoundsHistory(t *testing.T) {
	cfg := config.DefaultConfig().Behavior
	cfg.WindowSize = 10
	p := NewProfiler(cfg, nil, nil)
	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	seedHistory(p, "eve", 50, at)
	if got := p.GetProfile("eve").MessageCount; got != 10 {
		t.Errorf("expected window to cap history at 10, got %d", got)
	}
}

func TestProfilesReloadFromStore(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir(), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	p := NewProfiler(config.DefaultConfig().Behavior, st, nil)
	seedHistory(p, "frank", 5, at)
	p.Persist(context.Background())

	// A fresh profiler backed by the same store picks the history up
	p2 := NewProfiler(config.DefaultConfig().Behavior, st, nil)
	p2.Load(context.Background())

	prof := p2.GetProfile("frank")
	if prof.MessageCount != 5 {
		t.Errorf("expected reloaded profile with 5 messages, got %d", prof.MessageCount)
	}
	if prof.AvgLength <= 0 {
		t.Error("expected positive average length after reload")
	}
}
