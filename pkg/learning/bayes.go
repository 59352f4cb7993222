package learning

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
)

// model is one trained snapshot. Predictions read whichever snapshot
// is current; retraining builds a fresh one and swaps the pointer.
type model struct {
	SpamTokens  map[string]int `json:"spam_tokens"`
	HamTokens   map[string]int `json:"ham_tokens"`
	TotalSpam   int            `json:"total_spam_tokens"`
	TotalHam    int            `json:"total_ham_tokens"`
	SpamDocs    int            `json:"spam_docs"`
	HamDocs     int            `json:"ham_docs"`
	LastTrained time.Time      `json:"last_trained"`
}

// corpus is the persisted raw training set
type corpus struct {
	Spam []string `json:"spam"`
	Ham  []string `json:"ham"`
}

// NaiveBayes is a Laplace-smoothed Naive Bayes classifier over
// unigram, bigram and engineered feature tokens. Training examples
// accumulate in a corpus; every few new spam examples a background
// retrain rebuilds the model from scratch.
type NaiveBayes struct {
	mu         sync.Mutex
	corpus     corpus
	newSpam    int
	retraining bool

	current atomic.Pointer[model]

	cfg    config.LearningConfig
	logger *zap.Logger
}

// NewNaiveBayes loads the persisted corpus and model if present,
// seeds an empty corpus otherwise, and trains when enough samples
// exist
func NewNaiveBayes(cfg config.LearningConfig, logger *zap.Logger) (*NaiveBayes, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nb := &NaiveBayes{cfg: cfg, logger: logger}

	if cfg.CorpusPath != "" {
		if err := os.MkdirAll(cfg.CorpusPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create classifier directory: %w", err)
		}
		nb.loadCorpus()
	}
	if len(nb.corpus.Spam) == 0 && len(nb.corpus.Ham) == 0 {
		nb.corpus = seedCorpus()
	}

	if m := nb.train(); m != nil {
		nb.current.Store(m)
	}
	return nb, nil
}

// Predict classifies text against the current snapshot. Returns
// (false, 0) when no model is trained yet or the text is empty.
func (nb *NaiveBayes) Predict(text string) (bool, float64) {
	m := nb.current.Load()
	if m == nil || text == "" {
		return false, 0
	}
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return false, 0
	}

	spamPrior := float64(m.SpamDocs) / float64(m.SpamDocs+m.HamDocs)
	hamPrior := 1 - spamPrior
	logSpam := math.Log(spamPrior)
	logHam := math.Log(hamPrior)

	k := nb.cfg.SmoothingFactor
	spamDenom := float64(m.TotalSpam) + k*float64(len(m.SpamTokens)+1)
	hamDenom := float64(m.TotalHam) + k*float64(len(m.HamTokens)+1)

	for _, tok := range tokens {
		logSpam += math.Log((float64(m.SpamTokens[tok]) + k) / spamDenom)
		logHam += math.Log((float64(m.HamTokens[tok]) + k) / hamDenom)
	}

	// Normalize in log space to avoid underflow
	maxLog := logSpam
	if logHam > maxLog {
		maxLog = logHam
	}
	pSpam := math.Exp(logSpam - maxLog)
	pHam := math.Exp(logHam - maxLog)
	conf := pSpam / (pSpam + pHam)

	if conf >= 0.5 {
		return true, conf
	}
	return false, 1 - conf
}

// AddSpamExample adds a confirmed spam message to the corpus. Every
// RetrainBatchSize new spam examples a background retrain kicks off.
func (nb *NaiveBayes) AddSpamExample(text string) {
	if text == "" {
		return
	}
	nb.mu.Lock()
	nb.corpus.Spam = append(nb.corpus.Spam, text)
	nb.newSpam++
	shouldRetrain := nb.newSpam >= nb.cfg.RetrainBatchSize && !nb.retraining
	if shouldRetrain {
		nb.newSpam = 0
		nb.retraining = true
	}
	nb.saveCorpusLocked()
	nb.mu.Unlock()

	if shouldRetrain {
		go nb.retrain()
	}
}

// AddHamExample adds a confirmed clean message to the corpus
func (nb *NaiveBayes) AddHamExample(text string) {
	if text == "" {
		return
	}
	nb.mu.Lock()
	nb.corpus.Ham = append(nb.corpus.Ham, text)
	nb.saveCorpusLocked()
	nb.mu.Unlock()
}

// Stats returns training state
func (nb *NaiveBayes) Stats() Stats {
	nb.mu.Lock()
	spam, ham := len(nb.corpus.Spam), len(nb.corpus.Ham)
	nb.mu.Unlock()

	s := Stats{SpamSamples: spam, HamSamples: ham, Backend: "file"}
	if m := nb.current.Load(); m != nil {
		s.Trained = true
		vocab := len(m.SpamTokens)
		for tok := range m.HamTokens {
			if _, ok := m.SpamTokens[tok]; !ok {
				vocab++
			}
		}
		s.Vocabulary = vocab
	}
	return s
}

// retrain builds a fresh model from a corpus snapshot and swaps it in
func (nb *NaiveBayes) retrain() {
	defer func() {
		nb.mu.Lock()
		nb.retraining = false
		nb.mu.Unlock()
	}()

	if m := nb.train(); m != nil {
		nb.current.Store(m)
		nb.saveModel(m)
		nb.logger.Info("classifier retrained",
			zap.Int("spam_docs", m.SpamDocs), zap.Int("ham_docs", m.HamDocs))
	}
}

// train builds a model from the current corpus, or nil when the
// corpus is too small
func (nb *NaiveBayes) train() *model {
	nb.mu.Lock()
	spam := make([]string, len(nb.corpus.Spam))
	copy(spam, nb.corpus.Spam)
	ham := make([]string, len(nb.corpus.Ham))
	copy(ham, nb.corpus.Ham)
	nb.mu.Unlock()

	if len(spam)+len(ham) < nb.cfg.MinTrainingSamples || len(spam) == 0 || len(ham) == 0 {
		return nil
	}

	m := &model{
		SpamTokens:  make(map[string]int),
		HamTokens:   make(map[string]int),
		SpamDocs:    len(spam),
		HamDocs:     len(ham),
		LastTrained: time.Now().UTC(),
	}
	for _, text := range spam {
		for _, tok := range tokenize(text) {
			m.SpamTokens[tok]++
			m.TotalSpam++
		}
	}
	for _, text := range ham {
		for _, tok := range tokenize(text) {
			m.HamTokens[tok]++
			m.TotalHam++
		}
	}
	return m
}

func (nb *NaiveBayes) corpusFile() string {
	return filepath.Join(nb.cfg.CorpusPath, "corpus.json")
}

func (nb *NaiveBayes) modelFile() string {
	return filepath.Join(nb.cfg.CorpusPath, "model.json")
}

func (nb *NaiveBayes) loadCorpus() {
	data, err := os.ReadFile(nb.corpusFile())
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &nb.corpus); err != nil {
		nb.logger.Warn("failed to decode classifier corpus", zap.Error(err))
	}
}

// saveCorpusLocked persists the corpus; caller holds the lock
func (nb *NaiveBayes) saveCorpusLocked() {
	if nb.cfg.CorpusPath == "" {
		return
	}
	data, err := json.Marshal(&nb.corpus)
	if err != nil {
		return
	}
	tmp := nb.corpusFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		nb.logger.Warn("failed to persist classifier corpus", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, nb.corpusFile()); err != nil {
		nb.logger.Warn("failed to persist classifier corpus", zap.Error(err))
	}
}

func (nb *NaiveBayes) saveModel(m *model) {
	if nb.cfg.CorpusPath == "" {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	tmp := nb.modelFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		nb.logger.Warn("failed to persist classifier model", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, nb.modelFile()); err != nil {
		nb.logger.Warn("failed to persist classifier model", zap.Error(err))
	}
}
