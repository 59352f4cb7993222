package scanner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
)

// Opinion pairs a scanner's result with its configured weight
type Opinion struct {
	Scanner string
	Result  *Result
	Weight  float64
}

// Combined is the weighted aggregate of all scanner opinions
type Combined struct {
	IsSpam     bool
	Confidence float64
	Categories []string
	Opinions   []Opinion
}

// Manager fans a message out to all registered scanners with fault
// isolation. Scanner errors, timeouts and panics are logged and
// dropped; the aggregate is built from whatever opinions arrive.
type Manager struct {
	scanners []Scanner
	weights  map[string]float64
	budget   *Budget
	timeout  time.Duration
	logger   *zap.Logger
}

// NewManager builds a manager from config, registering each enabled
// scanner
func NewManager(cfg config.ScannersConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond

	m := &Manager{
		weights: make(map[string]float64),
		budget:  NewBudget(cfg.RequestsPerMinute),
		timeout: timeout,
		logger:  logger,
	}

	if cfg.LLM.Enabled && cfg.LLM.URL != "" {
		m.Register(NewLLMScanner(cfg.LLM, timeout), cfg.LLM.Weight)
	}
	if cfg.ZeroShot.Enabled && cfg.ZeroShot.URL != "" {
		m.Register(NewZeroShotScanner(cfg.ZeroShot, timeout), cfg.ZeroShot.Weight)
	}
	return m
}

// Register adds a scanner with a weight
func (m *Manager) Register(s Scanner, weight float64) {
	if weight <= 0 {
		weight = 1.0
	}
	m.scanners = append(m.scanners, s)
	m.weights[s.Name()] = weight
}

// Enabled reports whether any scanners are registered
func (m *Manager) Enabled() bool {
	return len(m.scanners) > 0
}

// ScanAll runs every scanner concurrently and combines their
// opinions. The shared budget is consumed once per call; when
// exhausted the whole round is skipped.
func (m *Manager) ScanAll(ctx context.Context, text string) *Combined {
	if len(m.scanners) == 0 || text == "" {
		return nil
	}
	if !m.budget.Allow() {
		m.logger.Debug("scanner budget exhausted, skipping round")
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		opinions []Opinion
	)
	for _, s := range m.scanners {
		wg.Add(1)
		go func(s Scanner) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("scanner panicked",
						zap.String("scanner", s.Name()), zap.Any("panic", r))
				}
			}()

			scanCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			result, err := s.Scan(scanCtx, text)
			if err != nil {
				m.logger.Warn("scanner failed",
					zap.String("scanner", s.Name()), zap.Error(err))
				return
			}
			if result == nil {
				return
			}

			mu.Lock()
			opinions = append(opinions, Opinion{
				Scanner: s.Name(),
				Result:  result,
				Weight:  m.weights[s.Name()],
			})
			mu.Unlock()
		}(s)
	}
	wg.Wait()

	if len(opinions) == 0 {
		return nil
	}
	return combine(opinions)
}

// combine merges opinions with a weighted vote
func combine(opinions []Opinion) *Combined {
	var spamWeight, totalWeight, confSum float64
	var categories []string
	seen := make(map[string]bool)

	for _, o := range opinions {
		totalWeight += o.Weight
		confSum += o.Result.Confidence * o.Weight
		if o.Result.IsSpam {
			spamWeight += o.Weight
			if o.Result.Category != "" && !seen[o.Result.Category] {
				seen[o.Result.Category] = true
				categories = append(categories, o.Result.Category)
			}
		}
	}

	return &Combined{
		IsSpam:     spamWeight > totalWeight/2,
		Confidence: confSum / totalWeight,
		Categories: categories,
		Opinions:   opinions,
	}
}
