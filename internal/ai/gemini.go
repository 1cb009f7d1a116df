package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/edgard/finmatbot/internal/config"
)

type geminiCompleter struct {
	client      *genai.Client
	model       string
	temperature float32
	retry       retryPolicy
	log         *slog.Logger
}

// NewGeminiCompleter builds a Completer backed by Google's Gemini API.
func NewGeminiCompleter(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiCompleter{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		retry: retryPolicy{
			maxRetries: cfg.MaxRetries,
			delay:      cfg.RetryDelay,
			retriable: func(err error) bool {
				var apiErr *genai.APIError
				return errors.As(err, &apiErr) && retriableStatus(apiErr.Code)
			},
		},
		log: log.With("component", "gemini_completer"),
	}, nil
}

func (c *geminiCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	temperature := c.temperature
	contentCfg := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}

	var resp *genai.GenerateContentResponse
	err := c.retry.do(ctx, c.log, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.client.Models.GenerateContent(ctx, c.model, contents, contentCfg)
		return callErr
	})
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			c.log.ErrorContext(ctx, "Gemini API error", "code", apiErr.Code, "error", apiErr.Message)
		} else {
			c.log.ErrorContext(ctx, "Gemini request failed", "error", err)
		}
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.WarnContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("gemini blocked the prompt: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("gemini returned no content, finish reason: %s", finishReason)
	}

	return resp.Text(), nil
}
