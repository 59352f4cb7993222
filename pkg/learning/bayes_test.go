package learning

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsentry/modsentry/pkg/config"
)

func testConfig(t *testing.T) config.LearningConfig {
	cfg := config.DefaultConfig().Learning
	cfg.CorpusPath = t.TempDir()
	return cfg
}

func TestSeededClassifierPredicts(t *testing.T) {
	nb, err := NewNaiveBayes(testConfig(t), nil)
	require.NoError(t, err)

	isSpam, conf := nb.Predict("congratulations you won, claim your prize now, click here")
	assert.True(t, isSpam, "obvious spam should classify as spam")
	assert.Greater(t, conf, 0.5)

	isSpam, _ = nb.Predict("what time is the community call tomorrow?")
	assert.False(t, isSpam, "ordinary chat should classify as ham")
}

func TestUntrainedPredictsNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinTrainingSamples = 10000
	nb, err := NewNaiveBayes(cfg, nil)
	require.NoError(t, err)

	isSpam, conf := nb.Predict("anything at all")
	assert.False(t, isSpam)
	assert.Equal(t, 0.0, conf)

	stats := nb.Stats()
	assert.False(t, stats.Trained)
}

func TestEmptyTextPredictsNothing(t *testing.T) {
	nb, err := NewNaiveBayes(testConfig(t), nil)
	require.NoError(t, err)

	isSpam, conf := nb.Predict("")
	assert.False(t, isSpam)
	assert.Equal(t, 0.0, conf)
}

func TestExamplesAccumulate(t *testing.T) {
	nb, err := NewNaiveBayes(testConfig(t), nil)
	require.NoError(t, err)

	before := nb.Stats()
	nb.AddSpamExample("free crypto doubling send now")
	nb.AddHamExample("thanks for the writeup, very helpful")

	after := nb.Stats()
	assert.Equal(t, before.SpamSamples+1, after.SpamSamples)
	assert.Equal(t, before.HamSamples+1, after.HamSamples)
}

func TestCorpusPersists(t *testing.T) {
	cfg := testConfig(t)

	nb, err := NewNaiveBayes(cfg, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		nb.AddSpamExample(fmt.Sprintf("unique spam example %d", i))
	}
	want := nb.Stats().SpamSamples

	nb2, err := NewNaiveBayes(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, want, nb2.Stats().SpamSamples)
}

func TestStatsVocabulary(t *testing.T) {
	nb, err := NewNaiveBayes(testConfig(t), nil)
	require.NoError(t, err)

	stats := nb.Stats()
	assert.True(t, stats.Trained)
	assert.Greater(t, stats.Vocabulary, 0)
	assert.Equal(t, "file", stats.Backend)
}

func TestTokenizeFeatures(t *testing.T) {
	tokens := tokenize("Claim $100 at https://spam.example now @friend")

	has := func(want string) bool {
		for _, tok := range tokens {
			if tok == want {
				return true
			}
		}
		return false
	}
	assert.True(t, has("tokurl"), "URLs collapse to a marker token")
	assert.True(t, has("tokmention"), "mentions collapse to a marker token")
	assert.True(t, has("feat:has_currency"))
	assert.True(t, has("claim_toknum"), "bigrams join adjacent words")
}
