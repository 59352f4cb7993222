package thresholds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/store"
)

func testManager(t *testing.T) *Manager {
	return NewManager(config.DefaultConfig().Thresholds, nil, nil)
}

func TestDefaultsPerChannel(t *testing.T) {
	m := testManager(t)
	tiers := m.Get("new-channel")
	assert.Equal(t, 0.7, tiers.Escalate)
	assert.Equal(t, 0.5, tiers.Moderate)
	assert.Equal(t, 0.3, tiers.Flag)
}

func TestFalsePositiveRaisesTiers(t *testing.T) {
	m := testManager(t)
	before := m.Get("ch")

	m.RecordFalsePositive("ch")
	after := m.Get("ch")

	assert.InDelta(t, before.Escalate+0.05, after.Escalate, 1e-9)
	assert.InDelta(t, before.Flag+0.05, after.Flag, 1e-9)
	assert.True(t, m.Stats("ch").Custom)

	// Other channels are untouched
	assert.Equal(t, before, m.Get("other"))
}

func TestFalseNegativeLowersTiers(t *testing.T) {
	m := testManager(t)
	before := m.Get("ch")

	m.RecordFalseNegative("ch")
	after := m.Get("ch")
	assert.InDelta(t, before.Escalate-0.05, after.Escalate, 1e-9)
}

func TestAdjustmentsClampAtBounds(t *testing.T) {
	m := testManager(t)

	// Far more corrections than the range allows
	for i := 0; i < 50; i++ {
		m.RecordFalsePositive("loose")
		m.RecordFalseNegative("strict")
	}

	loose := m.Get("loose")
	assert.Equal(t, 0.95, loose.Escalate)
	assert.Equal(t, 0.85, loose.Moderate)
	assert.Equal(t, 0.5, loose.Flag)

	strict := m.Get("strict")
	assert.Equal(t, 0.5, strict.Escalate)
	assert.Equal(t, 0.3, strict.Moderate)
	assert.Equal(t, 0.1, strict.Flag)
}

func TestLearnFromHistoryNeedsOutcomes(t *testing.T) {
	m := testManager(t)

	for i := 0; i < 5; i++ {
		m.RecordOutcome("ch", 0.9, true)
	}
	before := m.Get("ch")
	m.LearnFromHistory("ch")
	assert.Equal(t, before, m.Get("ch"), "too few outcomes must not adjust")
}

func TestLearnFromHistoryRaisesOnOverturnedHighScores(t *testing.T) {
	m := testManager(t)

	// Moderators keep overturning actions scored above the escalate tier
	for i := 0; i < 8; i++ {
		m.RecordOutcome("ch", 0.9, true)
	}
	for i := 0; i < 4; i++ {
		m.RecordOutcome("ch", 0.95, false)
	}

	before := m.Get("ch")
	m.LearnFromHistory("ch")
	after := m.Get("ch")
	assert.Greater(t, after.Escalate, before.Escalate)
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(&config.StorageConfig{Backend: "file", DataDir: t.TempDir(), MaxRetries: 1})
	require.NoError(t, err)
	defer st.Close()

	cfg := config.DefaultConfig().Thresholds
	m := NewManager(cfg, st, nil)
	m.RecordFalsePositive("ch")
	learned := m.Get("ch")
	m.Persist(ctx)

	m2 := NewManager(cfg, st, nil)
	m2.Load(ctx)
	assert.Equal(t, learned, m2.Get("ch"))
}
