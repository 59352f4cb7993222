package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/behavior"
	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/conversation"
	"github.com/modsentry/modsentry/pkg/decision"
	"github.com/modsentry/modsentry/pkg/dnsbl"
	"github.com/modsentry/modsentry/pkg/learning"
	"github.com/modsentry/modsentry/pkg/lexical"
	"github.com/modsentry/modsentry/pkg/message"
	"github.com/modsentry/modsentry/pkg/metrics"
	"github.com/modsentry/modsentry/pkg/reputation"
	"github.com/modsentry/modsentry/pkg/scanner"
	"github.com/modsentry/modsentry/pkg/store"
	"github.com/modsentry/modsentry/pkg/thresholds"
	"github.com/modsentry/modsentry/pkg/tracker"
	"github.com/modsentry/modsentry/pkg/verdict"
)

// AdminChecker answers whether a sender holds moderator powers in a
// channel. The host platform injects it; a nil checker means nobody
// is an admin.
type AdminChecker interface {
	IsAdmin(channelID, senderID string) bool
}

// Engine wires every detector into one scoring pipeline
type Engine struct {
	cfg *config.Config

	analyzer     *lexical.Analyzer
	profiler     *behavior.Profiler
	context      *conversation.Analyzer
	thresholds   *thresholds.Manager
	reputation   *reputation.Ledger
	decisions    *decision.Engine
	classifier   learning.Classifier
	rate         *tracker.RateTracker
	duplicates   *tracker.DuplicateTracker
	scanners     *scanner.Manager
	blocklist    *dnsbl.Checker
	raid         *raidTracker
	metrics      *metrics.Collector
	store        store.Store
	adminChecker AdminChecker
	logger       *zap.Logger
}

// Option customizes engine construction
type Option func(*Engine)

// WithAdminChecker injects the platform's admin lookup
func WithAdminChecker(ac AdminChecker) Option {
	return func(e *Engine) { e.adminChecker = ac }
}

// WithClassifier overrides the configured classifier
func WithClassifier(c learning.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithStore overrides the configured store
func WithStore(st store.Store) Option {
	return func(e *Engine) { e.store = st }
}

// New builds an engine from config. Optional subsystems that fail to
// initialize (classifier backend down, store unavailable) are logged
// and disabled rather than failing construction.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	decisions, err := decision.NewEngine(cfg.Decision)
	if err != nil {
		return nil, fmt.Errorf("failed to build decision engine: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		analyzer:   lexical.NewAnalyzer(cfg),
		context:    conversation.NewAnalyzer(cfg.Context),
		decisions:  decisions,
		rate:       tracker.NewRateTracker(cfg.RateLimit.MaxPerMinute, cfg.RateLimit.MaxTrackedSenders),
		duplicates: tracker.NewDuplicateTracker(cfg.RateLimit.DuplicateThreshold, cfg.RateLimit.MaxTrackedTexts),
		raid:       newRaidTracker(cfg.Raid),
		metrics:    metrics.NewCollector(),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		st, err := store.Open(&cfg.Storage)
		if err != nil {
			logger.Warn("persistence unavailable, state is in-memory only", zap.Error(err))
		} else {
			e.store = st
		}
	}

	e.profiler = behavior.NewProfiler(cfg.Behavior, e.store, logger)
	e.thresholds = thresholds.NewManager(cfg.Thresholds, e.store, logger)
	e.reputation = reputation.NewLedger(cfg.Reputation, e.store, logger)
	e.profiler.Load(context.Background())
	e.thresholds.Load(context.Background())
	e.reputation.Load(context.Background())

	if e.classifier == nil && cfg.Learning.Enabled {
		c, err := learning.New(cfg.Learning, logger)
		if err != nil {
			logger.Warn("classifier unavailable", zap.Error(err))
		} else {
			e.classifier = c
		}
	}

	if cfg.Scanners.Enabled {
		e.scanners = scanner.NewManager(cfg.Scanners, logger)
	}

	if cfg.Lists.DNSBL.Enabled {
		checker, err := dnsbl.NewChecker(cfg.Lists.DNSBL, logger)
		if err != nil {
			logger.Warn("domain blocklist unavailable", zap.Error(err))
		} else {
			e.blocklist = checker
		}
	}

	return e, nil
}

// Reputation exposes the reputation ledger
func (e *Engine) Reputation() *reputation.Ledger { return e.reputation }

// Thresholds exposes the threshold manager
func (e *Engine) Thresholds() *thresholds.Manager { return e.thresholds }

// Classifier exposes the statistical classifier, nil when disabled
func (e *Engine) Classifier() learning.Classifier { return e.classifier }

// Metrics exposes pipeline stage timings
func (e *Engine) Metrics() *metrics.Collector { return e.metrics }

// Score runs the full pipeline over one message. It never panics and
// never returns nil: any detector failure contributes zero and the
// remaining stages still run.
func (e *Engine) Score(ctx context.Context, msg *message.Message) *verdict.Verdict {
	v := &verdict.Verdict{Action: verdict.ActionNone}
	if msg == nil || msg.Text == "" {
		return v
	}
	// Messages are input only; fill a missing timestamp on a copy
	if msg.Timestamp.IsZero() {
		m := *msg
		m.Timestamp = time.Now().UTC()
		msg = &m
	}
	defer e.metrics.Start("score").Stop()

	feats := e.safeFeatures(msg)
	sender := e.senderInfo(msg)

	// Stage 1: hard disqualifiers short-circuit everything below
	if dq := e.safeDisqualify(msg, feats, sender); dq != nil {
		v.IsSpam = true
		v.Score = dq.Score
		v.Action = dq.Action
		v.Reasons = dq.Reasons
		v.Categories = dq.Categories
		e.finalize(msg, v)
		return v
	}

	// Stage 2: weighted accumulation; contributions never short-circuit
	for _, c := range e.safeWeighted(msg, feats) {
		v.Score += c.Score
		v.AddReason(c.Category, c.Reason)
	}
	e.scoreNewSender(msg, feats, v)
	e.scoreVelocity(msg, v)
	e.scoreAnomaly(msg, v)
	e.scoreBlocklist(ctx, feats, v)

	// Stage 3: statistical and external opinions, additive only
	e.scoreClassifier(msg, v)
	e.scoreScanners(ctx, msg, v)

	// Stage 4: conversational context can soften but never erase
	if v.Score > 0 && e.cfg.Detection.Features.ContextAnalysis {
		adjusted, reasons := e.safeDiscount(msg, v.Score)
		if adjusted < v.Score {
			v.Score = adjusted
			for _, r := range reasons {
				v.AddReason("context", r)
			}
		}
	}

	// Stage 5: thresholds decide the action
	tiers := e.thresholds.Get(msg.ChannelID)
	switch {
	case v.Score >= tiers.Escalate:
		v.IsSpam = true
		v.Action = verdict.ActionDeleteAndWarn
		// Repeat offenders graduate past warnings
		if e.reputation.Warnings(msg.SenderID) >= 3 {
			v.Action = verdict.ActionMute
		}
	case v.Score >= tiers.Moderate:
		v.IsSpam = true
		v.Action = verdict.ActionDelete
	case v.Score >= tiers.Flag:
		v.Action = verdict.ActionFlag
	}

	e.finalize(msg, v)
	return v
}

// finalize applies immunity and history review, then records the
// message into every tracker
func (e *Engine) finalize(msg *message.Message, v *verdict.Verdict) {
	// Immunity downgrades all but the very severe categories
	if v.Action >= verdict.ActionDelete && e.isImmune(msg.ChannelID, msg.SenderID) && !e.hasSevereCategory(v) {
		v.Action = verdict.ActionFlag
		v.AddReason("immunity", "sender immune to automated escalation, flagged for review")
	}

	// History review can only soften harsh actions
	if v.Action == verdict.ActionMute || v.Action == verdict.ActionBan {
		category := ""
		if len(v.Categories) > 0 {
			category = v.Categories[0]
		}
		final, reasoning := e.decisions.Decide(msg.SenderID, v.Action, category)
		if final != v.Action {
			v.Action = final
			v.AddReason("history", reasoning)
		}
	}

	e.record(msg, v)
}

// record feeds trackers and awards daily activity. Failures here must
// never affect the verdict.
func (e *Engine) record(msg *message.Message, v *verdict.Verdict) {
	defer e.recovered("record")

	e.decisions.Track(msg.SenderID, v.Score, msg.Timestamp)
	e.thresholds.RecordDecision(msg.ChannelID, v.Score)
	if e.cfg.Detection.Features.BehaviorProfiling {
		e.profiler.Record(msg.SenderID, msg.Text, msg.Timestamp)
	}
	e.context.AddMessage(msg.ChannelID, msg.SenderID, msg.Text, msg.Timestamp)
	if !v.IsSpam {
		e.reputation.TrackDailyActivity(msg.SenderID)
	}
}

func (e *Engine) senderInfo(msg *message.Message) lexical.SenderInfo {
	info := lexical.SenderInfo{
		Reputation: e.reputation.GetPoints(msg.SenderID),
		JoinedAt:   msg.SenderJoinedAt,
	}
	if prof := e.profiler; prof != nil {
		info.IsFirstMessage = prof.GetProfile(msg.SenderID).MessageCount == 0
	}
	return info
}

func (e *Engine) isImmune(channelID, senderID string) bool {
	if e.adminChecker != nil && e.adminChecker.IsAdmin(channelID, senderID) {
		return true
	}
	return e.reputation.IsImmune(senderID)
}

func (e *Engine) hasSevereCategory(v *verdict.Verdict) bool {
	for _, c := range v.Categories {
		for _, severe := range e.cfg.Decision.AlwaysSevereCategories {
			if c == severe {
				return true
			}
		}
	}
	return false
}

// scoreNewSender weighs links posted by senders still inside the
// new-sender window. Veterans posting the same link score nothing here.
func (e *Engine) scoreNewSender(msg *message.Message, feats *message.Features, v *verdict.Verdict) {
	defer e.recovered("new_sender")
	if !e.cfg.Detection.Features.NewSenderLinks || feats == nil || len(feats.URLs) == 0 {
		return
	}
	if msg.SenderJoinedAt.IsZero() {
		return
	}
	hours := msg.Timestamp.Sub(msg.SenderJoinedAt).Hours()
	if hours < 0 || hours >= float64(e.cfg.Detection.NewSenderLinkHours) {
		return
	}
	v.Score += e.cfg.Detection.Weights.NewSenderLink
	v.AddReason("new_sender_link", fmt.Sprintf("new sender (%dh old) posting links", int(hours)))
}

// scoreVelocity applies rate and duplicate tracker weights
func (e *Engine) scoreVelocity(msg *message.Message, v *verdict.Verdict) {
	defer e.recovered("velocity")
	w := e.cfg.Detection.Weights

	if e.cfg.Detection.Features.RateTracking {
		if r := e.rate.Record(msg.SenderID, msg.Timestamp); r.OverLimit {
			v.Score += w.RateLimit
			v.AddReason("rate_limit", fmt.Sprintf("sending too fast (%d msgs/min)", r.MessagesInWindow))
		} else if r.NearLimit {
			v.Score += w.RateLimit * 0.4
			v.AddReason("rate_limit", "approaching rate limit")
		}
	}

	if e.cfg.Detection.Features.DuplicateDetection {
		if d := e.duplicates.Record(msg.Text, msg.SenderID); d.IsFlood {
			v.Score += w.Duplicate
			v.AddReason("duplicate", fmt.Sprintf("same text from %d senders", d.DistinctSenders))
		}
	}
}

// scoreAnomaly applies the behavior profiler's deviation signal
func (e *Engine) scoreAnomaly(msg *message.Message, v *verdict.Verdict) {
	defer e.recovered("anomaly")
	if !e.cfg.Detection.Features.BehaviorProfiling {
		return
	}

	if a := e.profiler.DetectAnomaly(msg.SenderID, msg.Text, msg.Timestamp); a.IsAnomaly {
		v.Score += e.cfg.Detection.Weights.Anomaly
		for _, r := range a.Reasons {
			v.AddReason("behavior_anomaly", r)
		}
	}
}

// scoreBlocklist checks message domains against DNS blocklists.
// Domains already on the local allow or deny lists are skipped; the
// lists already decided those.
func (e *Engine) scoreBlocklist(ctx context.Context, feats *message.Features, v *verdict.Verdict) {
	defer e.recovered("blocklist")
	if e.blocklist == nil || feats == nil {
		return
	}
	defer e.metrics.Start("blocklist").Stop()

	for _, url := range feats.URLs {
		if e.cfg.IsAllowedDomain(url) || e.cfg.IsDeniedDomain(url) {
			continue
		}
		if e.blocklist.IsListed(ctx, url) {
			v.Score += e.cfg.Detection.Weights.SuspiciousURL
			v.AddReason("domain_blocklist", fmt.Sprintf("domain on blocklist: %s", url))
			return
		}
	}
}

// scoreClassifier applies the statistical classifier opinion with a
// confidence floor; low-confidence calls contribute nothing
func (e *Engine) scoreClassifier(msg *message.Message, v *verdict.Verdict) {
	defer e.recovered("classifier")
	if e.classifier == nil {
		return
	}
	defer e.metrics.Start("classifier").Stop()

	isSpam, conf := e.classifier.Predict(msg.Text)
	if !isSpam {
		return
	}
	w := e.cfg.Detection.Weights
	switch {
	case conf >= e.cfg.Learning.HighConfidence:
		v.Score += w.ClassifierHigh
		v.AddReason("classifier", fmt.Sprintf("classifier: %.0f%% spam confidence", conf*100))
	case conf >= e.cfg.Learning.MinConfidence:
		v.Score += w.ClassifierLow
		v.AddReason("classifier", fmt.Sprintf("classifier: %.0f%% spam confidence", conf*100))
	}
}

// scoreScanners applies external scanner opinions. Outages, timeouts
// and budget exhaustion all degrade to silence.
func (e *Engine) scoreScanners(ctx context.Context, msg *message.Message, v *verdict.Verdict) {
	defer e.recovered("scanners")
	if e.scanners == nil || !e.scanners.Enabled() {
		return
	}
	defer e.metrics.Start("scanners").Stop()

	combined := e.scanners.ScanAll(ctx, msg.Text)
	if combined == nil || !combined.IsSpam {
		return
	}
	v.Score += e.cfg.Detection.Weights.Scanner * combined.Confidence
	for _, cat := range combined.Categories {
		v.AddReason("external_scanner", fmt.Sprintf("external scanner flagged: %s (%.0f%%)", cat, combined.Confidence*100))
	}
}

func (e *Engine) safeFeatures(msg *message.Message) *message.Features {
	defer e.recovered("features")
	return message.ExtractFeatures(msg)
}

func (e *Engine) safeDisqualify(msg *message.Message, feats *message.Features, sender lexical.SenderInfo) (result *lexical.Result) {
	defer e.recovered("disqualify")
	defer e.metrics.Start("disqualify").Stop()
	if feats == nil {
		return nil
	}
	return e.analyzer.Disqualify(msg, feats, sender)
}

func (e *Engine) safeWeighted(msg *message.Message, feats *message.Features) (contribs []lexical.Contribution) {
	defer e.recovered("weighted")
	defer e.metrics.Start("weighted").Stop()
	if feats == nil {
		return nil
	}
	return e.analyzer.ScoreWeighted(msg, feats)
}

func (e *Engine) safeDiscount(msg *message.Message, score float64) (adjusted float64, reasons []string) {
	adjusted = score
	defer e.recovered("context")
	return e.context.Discount(msg.ChannelID, msg.SenderID, msg.Text, score)
}

// recovered turns a detector panic into a logged zero contribution
func (e *Engine) recovered(stage string) {
	if r := recover(); r != nil {
		e.logger.Error("detector failure isolated",
			zap.String("stage", stage), zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()))
	}
}

// Persist flushes all persisted subsystems
func (e *Engine) Persist(ctx context.Context) {
	e.profiler.Persist(ctx)
	e.thresholds.Persist(ctx)
}

// Close flushes state and releases the store
func (e *Engine) Close() error {
	e.Persist(context.Background())
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
