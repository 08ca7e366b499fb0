// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/notemorph/internal/httputil"
	"github.com/pdiddy/notemorph/pkg/types"
)

const (
	defaultAnthropicURL   = "https://api.anthropic.com"
	defaultAnthropicModel = "claude-sonnet-4-5"
	anthropicVersion      = "2023-06-01"
	anthropicMaxTokens    = 8192
)

// AnthropicBackend calls the Claude Messages API over plain HTTP. Rate
// limited requests are retried with backoff before the 429 is surfaced.
type AnthropicBackend struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxRetries  int
	Client      *http.Client
	Log         *slog.Logger
}

// NewAnthropicBackend creates a backend from cfg. Models named for another
// provider fall back to the default Claude model.
func NewAnthropicBackend(cfg types.AIConfig, log *slog.Logger) *AnthropicBackend {
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultAnthropicModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	return &AnthropicBackend{
		APIKey:      cfg.APIKey,
		Model:       model,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Temperature: cfg.Temperature,
		MaxRetries:  cfg.MaxRetries,
		Log:         log,
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string { return string(types.ProviderAnthropic) }

// Complete implements Backend.
func (b *AnthropicBackend) Complete(ctx context.Context, rawText string) (string, error) {
	system, user, err := Prompt(rawText)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	bodyBytes, err := json.Marshal(anthropicRequest{
		Model:       b.Model,
		MaxTokens:   anthropicMaxTokens,
		System:      system,
		Temperature: b.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries, b.Log)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		se := &ServiceError{Provider: "Claude", StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var apiErr anthropicError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Type != "" {
			se.Code = apiErr.Error.Type
			se.Message = apiErr.Error.Message
		}
		return "", se
	}

	var cResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	var text strings.Builder
	for _, block := range cResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}
