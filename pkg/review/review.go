package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoReviewer is returned when AI review is requested but not configured.
var ErrNoReviewer = errors.New("ai review is not configured")

// ErrEmptyText is returned for blank drafts; there is nothing to review.
var ErrEmptyText = errors.New("draft text is empty")

const reviewPrompt = `You are an editor helping a creator polish a short social media post before publishing.

Read the draft below and respond with a JSON object with these fields:
- "verdict": one of "post" (ready as is), "revise" (worth fixing first) or "reconsider" (likely to be reported, muted or misread).
- "tone": two or three words describing how the post reads (e.g. "warm, curious", "combative").
- "rewrite": an improved version under 280 characters that keeps the author's voice. Empty if the verdict is "post".
- "notes": up to three short, concrete observations.

Judge clarity, likely reader reaction and anything that could be taken as hostile or misleading. Do not add hashtags or links.

Draft:
"""
%s
"""

Return ONLY the JSON object, no other text.`

// Verdicts a review can carry.
const (
	VerdictPost       = "post"
	VerdictRevise     = "revise"
	VerdictReconsider = "reconsider"
)

// Review is the model's opinion of one draft. It is advisory and never feeds
// into the heuristic score.
type Review struct {
	Verdict  string   `json:"verdict"`
	Tone     string   `json:"tone"`
	Rewrite  string   `json:"rewrite,omitempty"`
	Notes    []string `json:"notes"`
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
}

// Reviewer reviews raw draft text.
type Reviewer interface {
	Review(ctx context.Context, text string) (*Review, error)
}

// LLM reviews drafts with an OpenAI- or Anthropic-compatible chat API.
type LLM struct {
	client   *http.Client
	provider string // "openai" or "anthropic"
	model    string
	apiKey   string
	baseURL  string
}

// NewLLM creates a reviewer. An empty model picks the provider's default.
func NewLLM(provider, model, apiKey, baseURL string) *LLM {
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-haiku-4-5"
		default:
			model = "gpt-4o-mini"
		}
	}
	return &LLM{
		client:   &http.Client{Timeout: 60 * time.Second},
		provider: provider,
		model:    model,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Review sends the draft text, and nothing else, to the model.
func (l *LLM) Review(ctx context.Context, text string) (*Review, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	prompt := fmt.Sprintf(reviewPrompt, text)

	var raw string
	var err error
	switch l.provider {
	case "anthropic":
		raw, err = l.callAnthropic(ctx, prompt)
	default:
		raw, err = l.callOpenAI(ctx, prompt)
	}
	if err != nil {
		return nil, err
	}

	r, err := parseReview(raw)
	if err != nil {
		return nil, err
	}
	r.Provider = l.provider
	if r.Provider == "" {
		r.Provider = "openai"
	}
	r.Model = l.model
	return r, nil
}

// parseReview decodes the model output, tolerating a markdown code fence.
func parseReview(raw string) (*Review, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw[3:], "\n"); idx >= 0 {
			raw = raw[3+idx+1:]
		}
		raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "```"))
	}

	var r Review
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("parse review response: %w\nraw: %s", err, truncate(raw, 500))
	}

	switch v := strings.ToLower(strings.TrimSpace(r.Verdict)); v {
	case VerdictPost, VerdictRevise, VerdictReconsider:
		r.Verdict = v
	default:
		r.Verdict = VerdictRevise
	}
	if len(r.Notes) > 3 {
		r.Notes = r.Notes[:3]
	}
	if r.Notes == nil {
		r.Notes = []string{}
	}
	return &r, nil
}

func (l *LLM) callOpenAI(ctx context.Context, prompt string) (string, error) {
	baseURL := l.baseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	payload := map[string]any{
		"model": l.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature":     0.3,
		"response_format": map[string]string{"type": "json_object"},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("openai status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

func (l *LLM) callAnthropic(ctx context.Context, prompt string) (string, error) {
	baseURL := l.baseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	payload := map[string]any{
		"model":      l.model,
		"max_tokens": 1024,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", l.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("anthropic status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic: no content returned")
	}
	return result.Content[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
