package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Fallback produces AI-estimated answers through a Completer.
type Fallback struct {
	completer   Completer
	instruction string
	timeout     time.Duration
	log         *slog.Logger
}

// NewFallback creates a Fallback. A non-positive timeout disables the bound.
func NewFallback(completer Completer, instruction string, timeout time.Duration, log *slog.Logger) *Fallback {
	if log == nil {
		log = slog.Default()
	}
	return &Fallback{
		completer:   completer,
		instruction: instruction,
		timeout:     timeout,
		log:         log.With("component", "ai_fallback"),
	}
}

// Answer sends prompt with the system instruction and returns the trimmed
// completion. Upstream failures and empty output wrap ErrProvider.
func (f *Fallback) Answer(ctx context.Context, prompt string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := f.completer.Complete(ctx, f.instruction, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			f.log.WarnContext(ctx, "Completion timed out", "timeout", f.timeout, "elapsed", time.Since(start))
		}
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrProvider)
	}

	f.log.DebugContext(ctx, "Completion received", "chars", len(text), "elapsed", time.Since(start))
	return text, nil
}
