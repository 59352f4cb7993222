package thresholds

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/store"
)

// Tiers holds the three action thresholds for a channel
type Tiers struct {
	Escalate float64 `json:"escalate"`
	Moderate float64 `json:"moderate"`
	Flag     float64 `json:"flag"`
}

// Outcome is one recorded moderation outcome used for batch learning
type Outcome struct {
	Score      float64   `json:"score"`
	Overturned bool      `json:"overturned"`
	At         time.Time `json:"at"`
}

// channelState is the per-channel learned state
type channelState struct {
	Tiers          Tiers     `json:"tiers"`
	Custom         bool      `json:"custom"`
	FalsePositives int       `json:"false_positives"`
	FalseNegatives int       `json:"false_negatives"`
	TotalDecisions int       `json:"total_decisions"`
	Outcomes       []Outcome `json:"outcomes"`
}

// Manager learns per-channel thresholds. Adjustments move tiers by a
// fixed step and are clamped, so repeated corrections converge to the
// bounds instead of running away.
type Manager struct {
	mu       sync.Mutex
	channels map[string]*channelState

	cfg    config.ThresholdsConfig
	store  store.Store
	logger *zap.Logger
}

// ChannelStats reports learned state for one channel
type ChannelStats struct {
	Tiers          Tiers `json:"tiers"`
	Custom         bool  `json:"custom"`
	FalsePositives int   `json:"false_positives"`
	FalseNegatives int   `json:"false_negatives"`
	TotalDecisions int   `json:"total_decisions"`
	Outcomes       int   `json:"outcomes"`
}

// NewManager creates a threshold manager. The store may be nil.
func NewManager(cfg config.ThresholdsConfig, st store.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		channels: make(map[string]*channelState),
		cfg:      cfg,
		store:    st,
		logger:   logger,
	}
}

// Get returns the thresholds for a channel, defaults when unlearned
func (m *Manager) Get(channelID string) Tiers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state(channelID).Tiers
}

// RecordDecision counts a scored decision for a channel
func (m *Manager) RecordDecision(channelID string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state(channelID).TotalDecisions++
}

// RecordOutcome stores an outcome for later batch learning. Overturned
// means a moderator reversed the automated action; not overturned with
// a low score means the automation under-reacted.
func (m *Manager) RecordOutcome(channelID string, score float64, overturned bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(channelID)
	st.Outcomes = append(st.Outcomes, Outcome{Score: score, Overturned: overturned, At: time.Now().UTC()})
	if len(st.Outcomes) > 100 {
		st.Outcomes = st.Outcomes[len(st.Outcomes)-100:]
	}
}

// RecordFalsePositive nudges all tiers up one step (less aggressive)
func (m *Manager) RecordFalsePositive(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(channelID)
	st.FalsePositives++
	m.adjustUp(channelID, st)
}

// RecordFalseNegative nudges all tiers down one step (more aggressive)
func (m *Manager) RecordFalseNegative(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(channelID)
	st.FalseNegatives++
	m.adjustDown(channelID, st)
}

// LearnFromHistory compares mean scores of overturned actions against
// the rest and nudges the channel's tiers once in the indicated
// direction. Does nothing until enough outcomes accumulate.
func (m *Manager) LearnFromHistory(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(channelID)
	if len(st.Outcomes) < m.cfg.MinOutcomes {
		return
	}

	var overturnedSum, confirmedSum float64
	var overturnedN, confirmedN int
	for _, o := range st.Outcomes {
		if o.Overturned {
			overturnedSum += o.Score
			overturnedN++
		} else {
			confirmedSum += o.Score
			confirmedN++
		}
	}
	if overturnedN == 0 || confirmedN == 0 {
		return
	}

	avgOverturned := overturnedSum / float64(overturnedN)
	avgConfirmed := confirmedSum / float64(confirmedN)

	if avgOverturned > st.Tiers.Escalate {
		m.adjustUp(channelID, st)
	}
	if avgConfirmed < st.Tiers.Escalate {
		m.adjustDown(channelID, st)
	}
}

// Stats returns the learned state for a channel
func (m *Manager) Stats(channelID string) ChannelStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(channelID)
	return ChannelStats{
		Tiers:          st.Tiers,
		Custom:         st.Custom,
		FalsePositives: st.FalsePositives,
		FalseNegatives: st.FalseNegatives,
		TotalDecisions: st.TotalDecisions,
		Outcomes:       len(st.Outcomes),
	}
}

// Load restores persisted channel state
func (m *Manager) Load(ctx context.Context) {
	if m.store == nil {
		return
	}
	keys, err := m.store.Keys(ctx, "thresholds:")
	if err != nil {
		m.logger.Warn("failed to list persisted thresholds", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		var st channelState
		if err := m.store.Get(ctx, key, &st); err != nil {
			m.logger.Warn("failed to load thresholds", zap.String("key", key), zap.Error(err))
			continue
		}
		m.channels[key[len("thresholds:"):]] = &st
	}
}

// Persist writes all channel state through the store
func (m *Manager) Persist(ctx context.Context) {
	if m.store == nil {
		return
	}

	m.mu.Lock()
	snapshot := make(map[string]channelState, len(m.channels))
	for id, st := range m.channels {
		snapshot[id] = *st
	}
	m.mu.Unlock()

	for id, st := range snapshot {
		if err := m.store.Put(ctx, "thresholds:"+id, &st); err != nil {
			m.logger.Warn("failed to persist thresholds", zap.String("channel", id), zap.Error(err))
		}
	}
}

func (m *Manager) state(channelID string) *channelState {
	st, ok := m.channels[channelID]
	if !ok {
		st = &channelState{
			Tiers: Tiers{
				Escalate: m.cfg.Escalate,
				Moderate: m.cfg.Moderate,
				Flag:     m.cfg.Flag,
			},
		}
		m.channels[channelID] = st
	}
	return st
}

// adjustUp raises all tiers one step; caller holds the lock
func (m *Manager) adjustUp(channelID string, st *channelState) {
	st.Custom = true
	st.Tiers.Escalate = min(m.cfg.EscalateMax, st.Tiers.Escalate+m.cfg.AdjustStep)
	st.Tiers.Moderate = min(m.cfg.ModerateMax, st.Tiers.Moderate+m.cfg.AdjustStep)
	st.Tiers.Flag = min(m.cfg.FlagMax, st.Tiers.Flag+m.cfg.AdjustStep)
	m.logger.Info("thresholds adjusted up", zap.String("channel", channelID),
		zap.Float64("escalate", st.Tiers.Escalate))
}

// adjustDown lowers all tiers one step; caller holds the lock
func (m *Manager) adjustDown(channelID string, st *channelState) {
	st.Custom = true
	st.Tiers.Escalate = max(m.cfg.EscalateMin, st.Tiers.Escalate-m.cfg.AdjustStep)
	st.Tiers.Moderate = max(m.cfg.ModerateMin, st.Tiers.Moderate-m.cfg.AdjustStep)
	st.Tiers.Flag = max(m.cfg.FlagMin, st.Tiers.Flag-m.cfg.AdjustStep)
	m.logger.Info("thresholds adjusted down", zap.String("channel", channelID),
		zap.Float64("escalate", st.Tiers.Escalate))
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
