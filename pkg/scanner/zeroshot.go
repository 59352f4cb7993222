package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/modsentry/modsentry/pkg/config"
)

// spamLabels are the candidate labels for zero-shot classification.
// The first four count as spam when they win with enough margin.
var spamLabels = []string{
	"casino gambling spam",
	"recruitment job scam",
	"trading investment scam",
	"phishing malicious link",
	"legitimate crypto discussion",
	"normal conversation",
}

var spamLabelSet = map[string]bool{
	"casino gambling spam":     true,
	"recruitment job scam":     true,
	"trading investment scam":  true,
	"phishing malicious link":  true,
}

// ZeroShotScanner classifies messages against candidate labels using
// a hosted zero-shot inference endpoint
type ZeroShotScanner struct {
	cfg    config.ScannerConfig
	client *http.Client
}

// NewZeroShotScanner creates a zero-shot scanner
func NewZeroShotScanner(cfg config.ScannerConfig, timeout time.Duration) *ZeroShotScanner {
	return &ZeroShotScanner{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Name identifies the scanner in logs and combined results
func (s *ZeroShotScanner) Name() string { return "zero_shot" }

// Scan classifies the message. A 503 means the hosted model is still
// loading and yields no opinion rather than an error.
func (s *ZeroShotScanner) Scan(ctx context.Context, text string) (*Result, error) {
	if len(text) < 10 {
		return nil, nil
	}
	if len(text) > 512 {
		text = text[:512]
	}

	payload, err := json.Marshal(map[string]interface{}{
		"inputs": text,
		"parameters": map[string]interface{}{
			"candidate_labels": spamLabels,
			"multi_label":      false,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("zero-shot endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode zero-shot response: %w", err)
	}
	if len(parsed.Labels) == 0 || len(parsed.Scores) == 0 {
		return nil, nil
	}

	top := parsed.Labels[0]
	score := parsed.Scores[0]
	return &Result{
		IsSpam:     spamLabelSet[top] && score > 0.6,
		Confidence: score,
		Category:   top,
	}, nil
}
