package engine

import (
	"go.uber.org/zap"
)

// OnConfirmedSpam records a moderator confirming an automated verdict.
// The text feeds the classifier and the channel's threshold history.
func (e *Engine) OnConfirmedSpam(channelID, senderID, text string, score float64) {
	if e.classifier != nil && text != "" {
		e.classifier.AddSpamExample(text)
	}
	e.thresholds.RecordOutcome(channelID, score, false)
	e.logger.Info("spam confirmed",
		zap.String("channel", channelID),
		zap.String("sender", senderID),
		zap.Float64("score", score))
}

// OnFalsePositiveCorrection records a moderator overturning an
// automated verdict. The text becomes a ham example, the channel's
// thresholds loosen, and the sender is made whole.
func (e *Engine) OnFalsePositiveCorrection(channelID, senderID, text string, score float64) {
	if e.classifier != nil && text != "" {
		e.classifier.AddHamExample(text)
	}
	e.thresholds.RecordOutcome(channelID, score, true)
	e.thresholds.RecordFalsePositive(channelID)
	e.reputation.OnUnmute(senderID)
	e.logger.Info("verdict overturned",
		zap.String("channel", channelID),
		zap.String("sender", senderID),
		zap.Float64("score", score))
}

// OnMissedSpam records spam the pipeline let through, tightening the
// channel's thresholds
func (e *Engine) OnMissedSpam(channelID, text string) {
	if e.classifier != nil && text != "" {
		e.classifier.AddSpamExample(text)
	}
	e.thresholds.RecordFalseNegative(channelID)
}

// OnConfirmedEscalation records that an escalation action was carried
// out against the sender, applying the reputation penalty
func (e *Engine) OnConfirmedEscalation(senderID, action string) {
	switch action {
	case "delete_and_warn":
		e.reputation.OnWarning(senderID)
	case "mute", "ban":
		e.reputation.OnMute(senderID)
	}
}

// OnAdminOverride records an admin forcing an action the pipeline did
// not propose. The overridden sender gains standing immunity; the
// thresholds do not learn from overrides.
func (e *Engine) OnAdminOverride(channelID, adminID, senderID, action string) {
	e.reputation.SetAdmin(senderID, true)
	e.logger.Info("admin override",
		zap.String("channel", channelID),
		zap.String("admin", adminID),
		zap.String("sender", senderID),
		zap.String("action", action))
}

// OnValidReport credits a reporter whose report led to enforcement
func (e *Engine) OnValidReport(reporterID string) {
	e.reputation.OnValidReport(reporterID)
}
