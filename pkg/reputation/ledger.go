package reputation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/store"
)

// Level names, ordered by the configured point cutoffs
const (
	LevelNewcomer = "Newcomer"
	LevelMember   = "Member"
	LevelTrusted  = "Trusted"
	LevelVIP      = "VIP"
)

// Account is the persisted reputation state for one sender
type Account struct {
	SenderID     string         `json:"sender_id"`
	Points       int            `json:"points"`
	Warnings     int            `json:"warnings"`
	ValidReports int            `json:"valid_reports"`
	IsAdmin      bool           `json:"is_admin"`
	Joined       time.Time      `json:"joined"`
	LastActive   time.Time      `json:"last_active"`
	DailyEarned  map[string]int `json:"daily_points_earned"`
	ActivityDays map[string]bool `json:"activity_days"`
	LastReportCredit time.Time  `json:"last_report_credit"`
}

// Ledger tracks reputation points per sender. Positive gains are
// capped per UTC day; penalties always land in full.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*Account

	cfg    config.ReputationConfig
	store  store.Store
	logger *zap.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewLedger creates a reputation ledger. The store may be nil.
func NewLedger(cfg config.ReputationConfig, st store.Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		accounts: make(map[string]*Account),
		cfg:      cfg,
		store:    st,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddPoints applies a point delta and returns the new balance.
// Positive deltas are trimmed to the sender's remaining daily
// allowance; a fully capped gain is logged and ignored, never an error.
func (l *Ledger) AddPoints(senderID string, points int, reason string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addPointsLocked(senderID, points, reason)
}

func (l *Ledger) addPointsLocked(senderID string, points int, reason string) int {
	acct := l.account(senderID)
	now := l.now()
	today := now.Format("2006-01-02")

	if points > 0 {
		earned := acct.DailyEarned[today]
		remaining := l.cfg.MaxDailyPoints - earned
		if remaining <= 0 {
			l.logger.Info("daily point cap reached, gain ignored",
				zap.String("sender", senderID), zap.Int("requested", points), zap.String("reason", reason))
			return acct.Points
		}
		if points > remaining {
			l.logger.Info("point gain capped by daily limit",
				zap.String("sender", senderID), zap.Int("requested", points), zap.Int("granted", remaining))
			points = remaining
		}
		acct.DailyEarned[today] += points
		l.pruneDailyEarned(acct, now)
	}

	acct.Points += points
	acct.LastActive = now
	l.logger.Debug("reputation change",
		zap.String("sender", senderID), zap.Int("delta", points),
		zap.Int("total", acct.Points), zap.String("reason", reason))

	l.persist(acct, points < 0)
	return acct.Points
}

// RemovePoints applies a penalty and returns the new balance
func (l *Ledger) RemovePoints(senderID string, points int, reason string) int {
	if points < 0 {
		points = -points
	}
	return l.AddPoints(senderID, -points, reason)
}

// GetPoints returns the current balance for a sender
func (l *Ledger) GetPoints(senderID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[senderID]; ok {
		return acct.Points
	}
	return 0
}

// SetAdmin marks or unmarks a sender as admin
func (l *Ledger) SetAdmin(senderID string, isAdmin bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct := l.account(senderID)
	acct.IsAdmin = isAdmin
	l.persist(acct, true)
}

// TrackDailyActivity awards the daily activity point once per UTC day
// and streak bonuses when consecutive-day runs hit a week or a month.
// Returns true when any points were awarded.
func (l *Ledger) TrackDailyActivity(senderID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.account(senderID)
	now := l.now()
	today := now.Format("2006-01-02")
	if acct.ActivityDays[today] {
		acct.LastActive = now
		return false
	}
	acct.ActivityDays[today] = true
	// Streak walk-back only ever looks 30 days behind
	cutoff := now.AddDate(0, 0, -35).Format("2006-01-02")
	for day := range acct.ActivityDays {
		if day < cutoff {
			delete(acct.ActivityDays, day)
		}
	}
	l.addPointsLocked(senderID, l.cfg.DailyActive, "daily activity")

	streak := l.streakLocked(acct, now)
	switch streak {
	case 7:
		l.addPointsLocked(senderID, l.cfg.WeekStreakBonus, "7-day activity streak")
	case 30:
		l.addPointsLocked(senderID, l.cfg.MonthStreakBonus, "30-day activity streak")
	}
	return true
}

// streakLocked counts consecutive active days ending today
func (l *Ledger) streakLocked(acct *Account, now time.Time) int {
	streak := 0
	day := now
	for {
		if !acct.ActivityDays[day.Format("2006-01-02")] {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Level returns the sender's level name and the points needed for the
// next level (zero at the top)
func (l *Ledger) Level(senderID string) (string, int) {
	points := l.GetPoints(senderID)
	switch {
	case points >= l.cfg.LevelVIP:
		return LevelVIP, 0
	case points >= l.cfg.LevelTrusted:
		return LevelTrusted, l.cfg.LevelVIP
	case points >= l.cfg.LevelMember:
		return LevelMember, l.cfg.LevelTrusted
	default:
		return LevelNewcomer, l.cfg.LevelMember
	}
}

// IsImmune reports whether a sender is exempt from automated
// escalation: admins always, otherwise a high enough balance
func (l *Ledger) IsImmune(senderID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[senderID]
	if !ok {
		return false
	}
	return acct.IsAdmin || acct.Points >= l.cfg.ImmunityFloor
}

// OnWarning applies the warning penalty
func (l *Ledger) OnWarning(senderID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct := l.account(senderID)
	acct.Warnings++
	return l.addPointsLocked(senderID, -l.cfg.WarningPenalty, "warning received")
}

// OnMute applies the mute penalty
func (l *Ledger) OnMute(senderID string) int {
	return l.AddPoints(senderID, -l.cfg.MutePenalty, "muted")
}

// OnUnmute compensates a sender whose mute was overturned
func (l *Ledger) OnUnmute(senderID string) int {
	return l.AddPoints(senderID, l.cfg.UnmuteBonus, "unmuted, false positive")
}

// OnValidReport credits a reporter whose report led to action. A
// cooldown blocks rapid-fire credit farming.
func (l *Ledger) OnValidReport(senderID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.account(senderID)
	now := l.now()
	cooldown := time.Duration(l.cfg.ReportCooldownSeconds) * time.Second
	if !acct.LastReportCredit.IsZero() && now.Sub(acct.LastReportCredit) < cooldown {
		l.logger.Info("report credit on cooldown", zap.String("sender", senderID))
		return acct.Points
	}
	acct.ValidReports++
	acct.LastReportCredit = now
	return l.addPointsLocked(senderID, l.cfg.ValidReport, "valid spam report")
}

// Warnings returns the warning count for a sender
func (l *Ledger) Warnings(senderID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[senderID]; ok {
		return acct.Warnings
	}
	return 0
}

// Account returns a copy of the sender's account, or nil if unknown
func (l *Ledger) Account(senderID string) *Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[senderID]
	if !ok {
		return nil
	}
	cp := *acct
	return &cp
}

// Load restores persisted accounts
func (l *Ledger) Load(ctx context.Context) {
	if l.store == nil {
		return
	}
	keys, err := l.store.Keys(ctx, "reputation:")
	if err != nil {
		l.logger.Warn("failed to list persisted accounts", zap.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		var acct Account
		if err := l.store.Get(ctx, key, &acct); err != nil {
			l.logger.Warn("failed to load account", zap.String("key", key), zap.Error(err))
			continue
		}
		if acct.DailyEarned == nil {
			acct.DailyEarned = make(map[string]int)
		}
		if acct.ActivityDays == nil {
			acct.ActivityDays = make(map[string]bool)
		}
		l.accounts[acct.SenderID] = &acct
	}
}

func (l *Ledger) account(senderID string) *Account {
	acct, ok := l.accounts[senderID]
	if !ok {
		now := l.now()
		acct = &Account{
			SenderID:     senderID,
			Joined:       now,
			LastActive:   now,
			DailyEarned:  make(map[string]int),
			ActivityDays: make(map[string]bool),
		}
		l.accounts[senderID] = acct
	}
	return acct
}

// persist writes an account through the store. Failed writes for
// penalties are retried synchronously by the store itself; either way
// the in-memory balance stays authoritative.
func (l *Ledger) persist(acct *Account, critical bool) {
	if l.store == nil {
		return
	}
	cp := *acct
	if err := l.store.Put(context.Background(), "reputation:"+acct.SenderID, &cp); err != nil {
		if critical {
			l.logger.Error("failed to persist penalty", zap.String("sender", acct.SenderID), zap.Error(err))
		} else {
			l.logger.Warn("failed to persist account", zap.String("sender", acct.SenderID), zap.Error(err))
		}
	}
}

// pruneDailyEarned keeps only the last week of daily gain records
func (l *Ledger) pruneDailyEarned(acct *Account, now time.Time) {
	cutoff := now.AddDate(0, 0, -7).Format("2006-01-02")
	for day := range acct.DailyEarned {
		if day < cutoff {
			delete(acct.DailyEarned, day)
		}
	}
}
