package learning

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
)

// Classifier is the statistical spam classifier. Predict returns the
// spam call and a confidence in [0,1]; an untrained classifier answers
// (false, 0).
type Classifier interface {
	Predict(text string) (bool, float64)
	AddSpamExample(text string)
	AddHamExample(text string)
	Stats() Stats
}

// Stats describes classifier training state
type Stats struct {
	Trained     bool   `json:"trained"`
	SpamSamples int    `json:"spam_samples"`
	HamSamples  int    `json:"ham_samples"`
	Vocabulary  int    `json:"vocabulary"`
	Backend     string `json:"backend"`
}

// New builds a classifier from config
func New(cfg config.LearningConfig, logger *zap.Logger) (Classifier, error) {
	switch cfg.Backend {
	case "file":
		return NewNaiveBayes(cfg, logger)
	case "redis":
		return NewRedisBayes(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown learning backend: %s", cfg.Backend)
	}
}
