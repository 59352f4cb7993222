package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/learning"
	"github.com/modsentry/modsentry/pkg/message"
	"github.com/modsentry/modsentry/pkg/scanner"
	"github.com/modsentry/modsentry/pkg/verdict"
)

func testEngine(t *testing.T, mutate ...func(*config.Config)) *Engine {
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Learning.CorpusPath = t.TempDir()
	for _, m := range mutate {
		m(cfg)
	}
	e, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func msg(channel, sender, text string) *message.Message {
	return &message.Message{
		ChannelID: channel,
		SenderID:  sender,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

func TestEmptyMessage(t *testing.T) {
	e := testEngine(t)
	v := e.Score(context.Background(), msg("ch", "alice", ""))
	assert.Equal(t, verdict.ActionNone, v.Action)
	assert.Zero(t, v.Score)
}

func TestCleanMessagePasses(t *testing.T) {
	e := testEngine(t)
	v := e.Score(context.Background(), msg("ch", "alice", "thanks for the explanation, that makes sense"))
	assert.False(t, v.IsSpam)
	assert.Equal(t, verdict.ActionNone, v.Action)
}

func TestDisqualifierShortCircuits(t *testing.T) {
	e := testEngine(t)
	v := e.Score(context.Background(), msg("ch", "spammer", "casino bonus! activate the promo today"))
	assert.True(t, v.IsSpam)
	assert.Equal(t, 1.0, v.Score)
	assert.Contains(t, v.Categories, "casino")
}

func TestWeightedAccumulationCrossesEscalate(t *testing.T) {
	e := testEngine(t)
	v := e.Score(context.Background(), msg("ch", "spammer",
		"guaranteed profit, claim now https://bit.ly/x HURRY HURRY HURRY BUYIT"))
	assert.True(t, v.IsSpam)
	assert.GreaterOrEqual(t, v.Score, 0.7)
	assert.Equal(t, verdict.ActionDeleteAndWarn, v.Action)
}

func TestRepeatOffendersGraduateToMute(t *testing.T) {
	e := testEngine(t)
	for i := 0; i < 3; i++ {
		e.Reputation().OnWarning("recidivist")
	}

	v := e.Score(context.Background(), msg("ch", "recidivist",
		"guaranteed profit, claim now https://bit.ly/x HURRY HURRY HURRY BUYIT"))
	assert.Equal(t, verdict.ActionMute, v.Action)
}

func TestImmunityDowngradesToFlag(t *testing.T) {
	e := testEngine(t)
	e.Reputation().SetAdmin("mod", true)

	v := e.Score(context.Background(), msg("ch", "mod",
		"guaranteed profit, claim now https://bit.ly/x HURRY HURRY HURRY BUYIT"))
	assert.Equal(t, verdict.ActionFlag, v.Action)
	assert.Contains(t, v.Categories, "immunity")
}

func TestImmunityDoesNotCoverSevereCategories(t *testing.T) {
	e := testEngine(t)
	e.Reputation().SetAdmin("mod", true)

	v := e.Score(context.Background(), msg("ch", "mod", "claim your prize at t.me/freemoney_bot"))
	assert.Equal(t, verdict.ActionBan, v.Action)
	assert.Contains(t, v.Categories, "bot_link")
}

func TestCleanHistorySoftensBan(t *testing.T) {
	e := testEngine(t)
	for i := 0; i < 6; i++ {
		e.Score(context.Background(), msg("ch", "regular", "another perfectly ordinary remark"))
	}

	v := e.Score(context.Background(), msg("ch", "regular", "casino bonus! activate the promo today"))
	assert.Equal(t, verdict.ActionDeleteAndWarn, v.Action)
	assert.Contains(t, v.Categories, "history")
}

func TestAdminCheckerGrantsImmunity(t *testing.T) {
	e := testEngine(t)
	e.adminChecker = adminFunc(func(channelID, senderID string) bool { return senderID == "owner" })

	v := e.Score(context.Background(), msg("ch", "owner",
		"guaranteed profit, claim now https://bit.ly/x HURRY HURRY HURRY BUYIT"))
	assert.Equal(t, verdict.ActionFlag, v.Action)
}

type adminFunc func(channelID, senderID string) bool

func (f adminFunc) IsAdmin(channelID, senderID string) bool { return f(channelID, senderID) }

type panickyClassifier struct{}

func (panickyClassifier) Predict(text string) (bool, float64) { panic("classifier exploded") }
func (panickyClassifier) AddSpamExample(text string)          {}
func (panickyClassifier) AddHamExample(text string)           {}
func (panickyClassifier) Stats() learning.Stats               { return learning.Stats{} }

func TestDetectorPanicIsolated(t *testing.T) {
	e := testEngine(t)
	e.classifier = panickyClassifier{}

	v := e.Score(context.Background(), msg("ch", "alice", "a perfectly normal message"))
	require.NotNil(t, v)
	assert.Equal(t, verdict.ActionNone, v.Action)
}

func TestFalsePositiveFeedbackLoosensThresholds(t *testing.T) {
	e := testEngine(t)
	before := e.Thresholds().Get("ch")

	e.OnFalsePositiveCorrection("ch", "alice", "totally fine message", 0.8)
	after := e.Thresholds().Get("ch")
	assert.Greater(t, after.Escalate, before.Escalate)
	assert.Positive(t, e.Reputation().GetPoints("alice"))
}

func TestMissedSpamFeedbackTightensThresholds(t *testing.T) {
	e := testEngine(t)
	before := e.Thresholds().Get("ch")

	e.OnMissedSpam("ch", "the spam that got away")
	after := e.Thresholds().Get("ch")
	assert.Less(t, after.Escalate, before.Escalate)
}

func TestConfirmedEscalationPenalizes(t *testing.T) {
	e := testEngine(t)
	e.Reputation().AddPoints("offender", 40, "seed")

	e.OnConfirmedEscalation("offender", "delete_and_warn")
	assert.Equal(t, 30, e.Reputation().GetPoints("offender"))
	assert.Equal(t, 1, e.Reputation().Warnings("offender"))

	e.OnConfirmedEscalation("offender", "mute")
	assert.Equal(t, 5, e.Reputation().GetPoints("offender"))
}

func TestRaidWindow(t *testing.T) {
	e := testEngine(t)
	now := time.Now().UTC()

	raid := false
	for i := 0; i < 10; i++ {
		raid = e.RecordJoin("ch", now.Add(time.Duration(i)*time.Second))
	}
	assert.True(t, raid)
	assert.True(t, e.InRaidWindow("ch"))
	assert.False(t, e.InRaidWindow("quiet-channel"))
}

func TestSolicitationWithProfitClaims(t *testing.T) {
	e := testEngine(t)
	v := e.Score(context.Background(), msg("ch", "spammer", "DM me now for guaranteed profit"))
	assert.True(t, v.IsSpam)
	assert.Equal(t, verdict.ActionBan, v.Action)
}

func TestTradingQuestionPasses(t *testing.T) {
	e := testEngine(t)
	v := e.Score(context.Background(), msg("ch", "alice", "should I use a trailing stop on this position?"))
	assert.False(t, v.IsSpam)
	assert.Equal(t, verdict.ActionNone, v.Action)
}

func TestAllowlistSubstringAnywhere(t *testing.T) {
	e := testEngine(t)
	// The allow-listed phrase sits mid-sentence; matching is substring,
	// not whole-message
	v := e.Score(context.Background(), msg("ch", "alice",
		"hey all, quick one: how to get promo code for the casino bonus here?"))
	assert.False(t, v.IsSpam)
}

func TestRaidSignalDoesNotAffectScoring(t *testing.T) {
	e := testEngine(t)
	now := time.Now().UTC()
	for i := 0; i < 15; i++ {
		e.RecordJoin("ch", now)
	}
	require.True(t, e.InRaidWindow("ch"))

	v := e.Score(context.Background(), msg("ch", "alice", "welcome to all the new folks"))
	assert.Equal(t, verdict.ActionNone, v.Action)
}

func TestAdminOverrideGrantsImmunity(t *testing.T) {
	e := testEngine(t)
	require.False(t, e.Reputation().IsImmune("vip"))

	e.OnAdminOverride("ch", "admin1", "vip", "none")
	assert.True(t, e.Reputation().IsImmune("vip"))

	v := e.Score(context.Background(), msg("ch", "vip",
		"guaranteed profit, claim now https://bit.ly/x HURRY HURRY HURRY BUYIT"))
	assert.Equal(t, verdict.ActionFlag, v.Action)
}

func TestScoreLeavesMessageUntouched(t *testing.T) {
	e := testEngine(t)
	m := &message.Message{ChannelID: "ch", SenderID: "alice", Text: "hello there"}

	e.Score(context.Background(), m)
	assert.True(t, m.Timestamp.IsZero())
}

func TestNewSenderLinksWeighted(t *testing.T) {
	e := testEngine(t)
	text := "check this out https://example.org/offer"

	fresh := msg("ch1", "newcomer", text)
	fresh.SenderJoinedAt = time.Now().UTC().Add(-1 * time.Hour)
	vFresh := e.Score(context.Background(), fresh)
	assert.Contains(t, vFresh.Categories, "new_sender_link")

	vet := msg("ch2", "veteran", text)
	vet.SenderJoinedAt = time.Now().UTC().Add(-30 * 24 * time.Hour)
	vVet := e.Score(context.Background(), vet)
	assert.NotContains(t, vVet.Categories, "new_sender_link")
	assert.InDelta(t, e.cfg.Detection.Weights.NewSenderLink, vFresh.Score-vVet.Score, 0.001)
}

type stubScanner struct{ res *scanner.Result }

func (s stubScanner) Name() string { return "stub" }

func (s stubScanner) Scan(ctx context.Context, text string) (*scanner.Result, error) {
	return s.res, nil
}

func TestScannerWeightConfigurable(t *testing.T) {
	e := testEngine(t, func(cfg *config.Config) {
		cfg.Scanners.Enabled = true
		cfg.Detection.Weights.Scanner = 0.5
	})
	e.scanners.Register(stubScanner{&scanner.Result{IsSpam: true, Confidence: 0.8, Category: "scam"}}, 1.0)

	v := e.Score(context.Background(), msg("ch", "alice", "thanks for the explanation, that makes sense"))
	assert.InDelta(t, 0.4, v.Score, 0.001)
	assert.Contains(t, v.Categories, "external_scanner")
}

func TestPipelineStagesTimed(t *testing.T) {
	e := testEngine(t)
	e.Score(context.Background(), msg("ch", "alice", "hello there everyone"))

	stages := make(map[string]bool)
	for _, s := range e.Metrics().Stats() {
		stages[s.Stage] = true
	}
	assert.True(t, stages["score"])
	assert.True(t, stages["disqualify"])
}
