package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider task names.
const (
	TaskReviewResponse = "review_response"
	TaskCaption        = "caption"
)

// maxErrorBody bounds how much of a failed provider response is kept for
// the error message.
const maxErrorBody = 512

// HTTPConfig configures the provider client.
type HTTPConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// HTTPGenerator calls an external text generation provider. Each call is a
// JSON POST of {"task": ..., "input": ...} answered by {"text": ...,
// "hashtags": [...]}.
type HTTPGenerator struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPGenerator creates a provider client.
func NewHTTPGenerator(cfg HTTPConfig) *HTTPGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &HTTPGenerator{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type providerRequest struct {
	Task  string `json:"task"`
	Input any    `json:"input"`
}

type providerResponse struct {
	Text     string   `json:"text"`
	Hashtags []string `json:"hashtags"`
}

// ReviewResponse asks the provider for a reply to a review.
func (g *HTTPGenerator) ReviewResponse(ctx context.Context, p ReviewPrompt) (string, error) {
	resp, err := g.call(ctx, TaskReviewResponse, p)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Caption asks the provider for a post caption.
func (g *HTTPGenerator) Caption(ctx context.Context, p CaptionPrompt) (*CaptionResult, error) {
	resp, err := g.call(ctx, TaskCaption, p)
	if err != nil {
		return nil, err
	}
	return &CaptionResult{Caption: resp.Text, Hashtags: resp.Hashtags}, nil
}

func (g *HTTPGenerator) call(ctx context.Context, task string, input any) (*providerResponse, error) {
	payload, err := json.Marshal(providerRequest{Task: task, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshaling %s request: %w", task, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", task, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling provider for %s: %w", task, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("provider returned %d for %s: %s", resp.StatusCode, task, strings.TrimSpace(string(body)))
	}

	var out providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", task, err)
	}
	out.Text = strings.TrimSpace(out.Text)
	if out.Text == "" {
		return nil, ErrEmptyGeneration
	}
	return &out, nil
}
