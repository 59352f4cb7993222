package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/modsentry/modsentry/pkg/config"
)

func testLedger(at time.Time) *Ledger {
	l := NewLedger(config.DefaultConfig().Reputation, nil, nil)
	l.now = func() time.Time { return at }
	return l
}

func TestDailyCapOnGains(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l := testLedger(now)

	l.AddPoints("alice", 40, "test")
	// Second gain trimmed to the remaining allowance
	got := l.AddPoints("alice", 40, "test")
	assert.Equal(t, 50, got)

	// Further gains today are ignored entirely
	got = l.AddPoints("alice", 10, "test")
	assert.Equal(t, 50, got)

	// A new day resets the allowance
	l.now = func() time.Time { return now.AddDate(0, 0, 1) }
	got = l.AddPoints("alice", 10, "test")
	assert.Equal(t, 60, got)
}

func TestPenaltiesBypassCap(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l := testLedger(now)

	l.AddPoints("bob", 50, "test")
	got := l.RemovePoints("bob", 25, "muted")
	assert.Equal(t, 25, got)

	// Penalties land even after the cap is exhausted
	got = l.AddPoints("bob", -10, "warned")
	assert.Equal(t, 15, got)
}

func TestDailyActivityIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l := testLedger(now)

	assert.True(t, l.TrackDailyActivity("carol"))
	assert.False(t, l.TrackDailyActivity("carol"), "same day must not award twice")
	assert.Equal(t, 1, l.GetPoints("carol"))
}

func TestWeekStreakBonus(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l := testLedger(start)

	for i := 0; i < 7; i++ {
		l.now = func() time.Time { return start.AddDate(0, 0, i) }
		l.TrackDailyActivity("dave")
	}
	// 7 daily points plus the week bonus
	assert.Equal(t, 12, l.GetPoints("dave"))
}

func TestLevels(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l := testLedger(now)

	name, next := l.Level("nobody")
	assert.Equal(t, LevelNewcomer, name)
	assert.Equal(t, 51, next)

	l.accounts["vip"] = &Account{SenderID: "vip", Points: 600,
		DailyEarned: map[string]int{}, ActivityDays: map[string]bool{}}
	name, next = l.Level("vip")
	assert.Equal(t, LevelVIP, name)
	assert.Equal(t, 0, next)
}

func TestImmunity(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l := testLedger(now)

	assert.False(t, l.IsImmune("stranger"))

	l.accounts["whale"] = &Account{SenderID: "whale", Points: 500,
		DailyEarned: map[string]int{}, ActivityDays: map[string]bool{}}
	assert.True(t, l.IsImmune("whale"))

	l.SetAdmin("mod", true)
	assert.True(t, l.IsImmune("mod"))
}

func TestReportCooldown(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l := testLedger(now)

	got := l.OnValidReport("eve")
	assert.Equal(t, 10, got)

	// Immediately again: cooldown blocks the credit
	got = l.OnValidReport("eve")
	assert.Equal(t, 10, got)

	l.now = func() time.Time { return now.Add(6 * time.Minute) }
	got = l.OnValidReport("eve")
	assert.Equal(t, 20, got)
}

func TestWarningsTracked(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l := testLedger(now)

	l.AddPoints("frank", 30, "seed")
	l.OnWarning("frank")
	l.OnWarning("frank")

	assert.Equal(t, 2, l.Warnings("frank"))
	assert.Equal(t, 10, l.GetPoints("frank"))
}
