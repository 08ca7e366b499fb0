// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/pdiddy/notemorph/pkg/types"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIBackend completes prompts with the OpenAI chat completions API in
// JSON mode.
type OpenAIBackend struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAIBackend creates a backend from cfg. The SDK's own retries are
// disabled; the Normalizer decides what to retry.
func NewOpenAIBackend(cfg types.AIConfig) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIBackend{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
	}
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string { return string(types.ProviderOpenAI) }

// Complete implements Backend.
func (b *OpenAIBackend) Complete(ctx context.Context, rawText string) (string, error) {
	system, user, err := Prompt(rawText)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	completion, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(b.temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ServiceError{
				Provider:   "OpenAI",
				StatusCode: apiErr.StatusCode,
				Code:       apiErr.Code,
				Message:    apiErr.Message,
			}
		}
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return completion.Choices[0].Message.Content, nil
}
