package learning

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
)

// RedisBayes keeps token counts in Redis so several engine instances
// can share one model. Tokens are OSB pairs (Orthogonal Sparse
// Bigrams): word pairs within a sliding window, tagged with their
// distance, which captures phrasing better than bag-of-words.
type RedisBayes struct {
	client *redis.Client
	cfg    config.LearningConfig
	logger *zap.Logger

	tokenTTL time.Duration
}

// NewRedisBayes connects to Redis and verifies the connection
func NewRedisBayes(cfg config.LearningConfig, logger *zap.Logger) (*RedisBayes, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := redis.ParseURL(cfg.Redis.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DB = cfg.Redis.DatabaseNum

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var ttl time.Duration
	if cfg.Redis.TokenTTL != "" {
		ttl, err = time.ParseDuration(cfg.Redis.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid token_ttl: %w", err)
		}
	}

	return &RedisBayes{client: client, cfg: cfg, logger: logger, tokenTTL: ttl}, nil
}

// Predict classifies text against the shared token counts. Redis
// errors degrade to no opinion.
func (rb *RedisBayes) Predict(text string) (bool, float64) {
	if text == "" {
		return false, 0
	}
	ctx := context.Background()

	spamDocs, hamDocs, err := rb.docCounts(ctx)
	if err != nil {
		rb.logger.Warn("classifier unavailable", zap.Error(err))
		return false, 0
	}
	if spamDocs+hamDocs < int64(rb.cfg.MinTrainingSamples) || spamDocs == 0 || hamDocs == 0 {
		return false, 0
	}

	tokens := rb.osbTokens(text)
	if len(tokens) == 0 {
		return false, 0
	}

	pipe := rb.client.Pipeline()
	spamCmds := make([]*redis.StringCmd, len(tokens))
	hamCmds := make([]*redis.StringCmd, len(tokens))
	for i, tok := range tokens {
		spamCmds[i] = pipe.HGet(ctx, rb.key("spam:tokens"), tok)
		hamCmds[i] = pipe.HGet(ctx, rb.key("ham:tokens"), tok)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		rb.logger.Warn("classifier lookup failed", zap.Error(err))
		return false, 0
	}

	totalSpam, _ := rb.client.Get(ctx, rb.key("spam:total")).Int64()
	totalHam, _ := rb.client.Get(ctx, rb.key("ham:total")).Int64()

	k := rb.cfg.SmoothingFactor
	logSpam := math.Log(float64(spamDocs) / float64(spamDocs+hamDocs))
	logHam := math.Log(float64(hamDocs) / float64(spamDocs+hamDocs))
	spamDenom := float64(totalSpam) + k*float64(len(tokens)+1)
	hamDenom := float64(totalHam) + k*float64(len(tokens)+1)

	for i := range tokens {
		sc, _ := spamCmds[i].Int64()
		hc, _ := hamCmds[i].Int64()
		logSpam += math.Log((float64(sc) + k) / spamDenom)
		logHam += math.Log((float64(hc) + k) / hamDenom)
	}

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

// AddSpamExample increments spam token counts
func (rb *RedisBayes) AddSpamExample(text string) {
	rb.train(text, true)
}

// AddHamExample increments ham token counts
func (rb *RedisBayes) AddHamExample(text string) {
	rb.train(text, false)
}

func (rb *RedisBayes) train(text string, isSpam bool) {
	if text == "" {
		return
	}
	tokens := rb.osbTokens(text)
	if len(tokens) == 0 {
		return
	}

	class := "ham"
	if isSpam {
		class = "spam"
	}
	ctx := context.Background()

	pipe := rb.client.Pipeline()
	for _, tok := range tokens {
		pipe.HIncrBy(ctx, rb.key(class+":tokens"), tok, 1)
	}
	pipe.IncrBy(ctx, rb.key(class+":total"), int64(len(tokens)))
	pipe.Incr(ctx, rb.key(class+":docs"))
	if rb.tokenTTL > 0 {
		pipe.Expire(ctx, rb.key(class+":tokens"), rb.tokenTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		rb.logger.Warn("classifier training write failed", zap.Error(err))
	}
}

// Stats returns training state
func (rb *RedisBayes) Stats() Stats {
	ctx := context.Background()
	spamDocs, hamDocs, err := rb.docCounts(ctx)
	if err != nil {
		return Stats{Backend: "redis"}
	}
	vocab, _ := rb.client.HLen(ctx, rb.key("spam:tokens")).Result()
	return Stats{
		Trained:     spamDocs > 0 && hamDocs > 0 && spamDocs+hamDocs >= int64(rb.cfg.MinTrainingSamples),
		SpamSamples: int(spamDocs),
		HamSamples:  int(hamDocs),
		Vocabulary:  int(vocab),
		Backend:     "redis",
	}
}

// Close releases the Redis connection
func (rb *RedisBayes) Close() error {
	return rb.client.Close()
}

// osbTokens produces distance-tagged word pairs over a sliding window
func (rb *RedisBayes) osbTokens(text string) []string {
	words := strings.Fields(preprocess(text))
	minLen := rb.cfg.Redis.MinTokenLength
	maxLen := rb.cfg.Redis.MaxTokenLength

	var filtered []string
	for _, w := range words {
		if len(w) >= minLen && len(w) <= maxLen {
			filtered = append(filtered, w)
		}
	}

	var tokens []string
	for i := 0; i < len(filtered); i++ {
		tokens = append(tokens, filtered[i])
		for j := i + 1; j < len(filtered) && j <= i+rb.cfg.Redis.OSBWindowSize; j++ {
			tokens = append(tokens, fmt.Sprintf("%s|%s|%d", filtered[i], filtered[j], j-i))
			if rb.cfg.Redis.MaxTokens > 0 && len(tokens) >= rb.cfg.Redis.MaxTokens {
				return tokens
			}
		}
	}
	return tokens
}

func (rb *RedisBayes) docCounts(ctx context.Context) (int64, int64, error) {
	spamDocs, err := rb.client.Get(ctx, rb.key("spam:docs")).Int64()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	hamDocs, err := rb.client.Get(ctx, rb.key("ham:docs")).Int64()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	return spamDocs, hamDocs, nil
}

func (rb *RedisBayes) key(suffix string) string {
	return rb.cfg.Redis.KeyPrefix + ":" + suffix
}

var (
	_ Classifier = (*NaiveBayes)(nil)
	_ Classifier = (*RedisBayes)(nil)
)
