package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modsentry/modsentry/pkg/config"
)

const llmPrompt = `You are a chat moderation assistant for a crypto trading community.
Analyze the following message for SPAM, SCAM, PHISHING, or MALICIOUS content.

Strictly identify:
- Crypto scams (doubling money, fake investment schemes)
- Casino/gambling spam (promo codes, bonuses, fake wins)
- Phishing links (wallet drainers, fake airdrops)
- Recruitment scams (fake job offers asking to DM)
- Unsolicited promotion/ads
- NSFW/adult content

Respond in JSON format ONLY:
{"is_spam": boolean, "confidence": float (0.0 to 1.0), "category": "scam/casino/promo/nsfw/safe/other", "reasoning": "short explanation"}

Message:
`

// LLMScanner asks a generative LLM endpoint for a structured spam
// opinion. It speaks the generateContent JSON shape.
type LLMScanner struct {
	cfg    config.ScannerConfig
	client *http.Client
}

// NewLLMScanner creates an LLM scanner
func NewLLMScanner(cfg config.ScannerConfig, timeout time.Duration) *LLMScanner {
	return &LLMScanner{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Name identifies the scanner in logs and combined results
func (s *LLMScanner) Name() string { return "llm" }

// Scan sends the message to the LLM. Very short texts are skipped.
func (s *LLMScanner) Scan(ctx context.Context, text string) (*Result, error) {
	if len(text) < 10 {
		return nil, nil
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": llmPrompt + text}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(s.cfg.URL, "/"), s.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("llm endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode llm response: %w", err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return nil, nil
	}

	// The model sometimes wraps JSON in a code fence
	raw := strings.TrimSpace(envelope.Candidates[0].Content.Parts[0].Text)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var result Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse llm verdict: %w", err)
	}
	return &result, nil
}
