package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/verdict"
)

func testEngine(t *testing.T) *Engine {
	e, err := NewEngine(config.DefaultConfig().Decision)
	require.NoError(t, err)
	return e
}

func trackSafe(e *Engine, senderID string, n int) {
	at := time.Now()
	for i := 0; i < n; i++ {
		e.Track(senderID, 0.1, at)
	}
}

func TestNoHistoryTrustsProposal(t *testing.T) {
	e := testEngine(t)
	action, _ := e.Decide("stranger", verdict.ActionBan, "keywords")
	assert.Equal(t, verdict.ActionBan, action)
}

func TestCleanHistorySoftensBan(t *testing.T) {
	e := testEngine(t)
	trackSafe(e, "regular", 8)

	action, reasoning := e.Decide("regular", verdict.ActionBan, "keywords")
	assert.Equal(t, verdict.ActionDeleteAndWarn, action)
	assert.Contains(t, reasoning, "downgraded")
}

func TestAlwaysSevereBypassesHistory(t *testing.T) {
	e := testEngine(t)
	trackSafe(e, "regular", 8)

	for _, category := range []string{"adult_content", "bot_link", "instant_keyword", "disallowed_script"} {
		action, _ := e.Decide("regular", verdict.ActionBan, category)
		assert.Equal(t, verdict.ActionBan, action, category)
	}
}

func TestDirtyHistoryKeepsAction(t *testing.T) {
	e := testEngine(t)
	at := time.Now()
	for i := 0; i < 8; i++ {
		e.Track("repeat", 0.9, at)
	}

	action, _ := e.Decide("repeat", verdict.ActionMute, "keywords")
	assert.Equal(t, verdict.ActionMute, action)
}

func TestTooFewMessagesKeepsAction(t *testing.T) {
	e := testEngine(t)
	trackSafe(e, "newish", 3)

	action, _ := e.Decide("newish", verdict.ActionBan, "keywords")
	assert.Equal(t, verdict.ActionBan, action)
}

func TestNeverEscalates(t *testing.T) {
	e := testEngine(t)
	trackSafe(e, "anyone", 8)

	for _, proposed := range []verdict.Action{verdict.ActionFlag, verdict.ActionDelete, verdict.ActionDeleteAndWarn} {
		action, _ := e.Decide("anyone", proposed, "keywords")
		assert.LessOrEqual(t, action, proposed)
	}
}

func TestHistoryBounded(t *testing.T) {
	cfg := config.DefaultConfig().Decision
	cfg.HistorySize = 5
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	at := time.Now()
	// Old spammy record pushed out by recent clean behavior
	for i := 0; i < 5; i++ {
		e.Track("reformed", 0.9, at)
	}
	for i := 0; i < 5; i++ {
		e.Track("reformed", 0.1, at)
	}

	action, _ := e.Decide("reformed", verdict.ActionBan, "keywords")
	assert.Equal(t, verdict.ActionDeleteAndWarn, action)
}
