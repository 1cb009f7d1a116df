package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edgard/finmatbot/internal/config"
)

type openAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	retry       retryPolicy
	log         *slog.Logger
}

// NewOpenAICompleter builds a Completer backed by the OpenAI chat completions API
// (or any compatible endpoint set through cfg.BaseURL).
func NewOpenAICompleter(cfg config.AIConfig, log *slog.Logger) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		retry: retryPolicy{
			maxRetries: cfg.MaxRetries,
			delay:      cfg.RetryDelay,
			retriable: func(err error) bool {
				var apiErr *openai.APIError
				return errors.As(err, &apiErr) && retriableStatus(apiErr.HTTPStatusCode)
			},
		},
		log: log.With("component", "openai_completer"),
	}, nil
}

func (c *openAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
	}

	var resp openai.ChatCompletionResponse
	err := c.retry.do(ctx, c.log, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.log.ErrorContext(ctx, "OpenAI API error", "status", apiErr.HTTPStatusCode, "type", apiErr.Type, "error", apiErr.Message)
		} else {
			c.log.ErrorContext(ctx, "OpenAI request failed", "error", err)
		}
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	c.log.DebugContext(ctx, "OpenAI completion received",
		"model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
