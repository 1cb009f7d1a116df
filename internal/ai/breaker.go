package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the provider circuit is open.
var ErrCircuitOpen = gobreaker.ErrOpenState

type breakerCompleter struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

// WithCircuitBreaker fails fast after failures consecutive provider errors,
// letting one probe through per cooldown. A non-positive failures value
// returns next unchanged.
func WithCircuitBreaker(next Completer, failures int, cooldown time.Duration, log *slog.Logger) Completer {
	if failures <= 0 {
		return next
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	threshold := uint32(failures)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "completion_provider",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up is not a provider fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &breakerCompleter{next: next, cb: cb}
}

func (b *breakerCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		text, err := b.next.Complete(ctx, systemPrompt, userPrompt)
		return text, err
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
