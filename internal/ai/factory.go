package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/finmatbot/internal/config"
)

// NewCompleter creates the Completer selected by cfg.Provider, wrapped in a
// circuit breaker when cfg.BreakerFailures is positive.
func NewCompleter(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Completer, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("Initializing completion provider", "provider", cfg.Provider, "model", cfg.Model)

	var (
		completer Completer
		err       error
	)
	switch cfg.Provider {
	case "openai":
		completer, err = NewOpenAICompleter(cfg, log)
	case "gemini":
		completer, err = NewGeminiCompleter(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithCircuitBreaker(completer, cfg.BreakerFailures, cfg.BreakerCooldown, log), nil
}
