package ai

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// retryPolicy repeats a provider call when the failure is transient.
type retryPolicy struct {
	maxRetries int
	delay      time.Duration
	retriable  func(error) bool
}

func (p retryPolicy) do(ctx context.Context, log *slog.Logger, call func(context.Context) error) error {
	retriable := p.retriable
	if retriable == nil {
		retriable = func(error) bool { return false }
	}

	return retry.Do(
		func() error { return call(ctx) },
		retry.Context(ctx),
		retry.Attempts(uint(p.maxRetries)+1),
		retry.Delay(p.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retriable),
		retry.OnRetry(func(n uint, err error) {
			log.WarnContext(ctx, "Provider call failed, retrying", "attempt", n+1, "max_retries", p.maxRetries, "delay", p.delay, "error", err)
		}),
	)
}

func retriableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	}
	return false
}
