// Package dedup suppresses repeated deliveries of the same Telegram update.
// Telegram retries a webhook delivery until it gets a 2xx answer, so a slow
// handler can see the same update_id more than once.
package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/finmatbot/internal/config"
)

// Deduplicator remembers update ids for a bounded time.
type Deduplicator interface {
	// Seen records updateID and reports whether it had already been recorded.
	Seen(ctx context.Context, updateID int64) (bool, error)
	Close() error
}

// New builds the Deduplicator selected by cfg.Backend.
func New(ctx context.Context, cfg config.DedupConfig, log *slog.Logger) (Deduplicator, error) {
	switch cfg.Backend {
	case "none", "":
		return Nop{}, nil
	case "memory":
		return NewMemory(cfg.TTL), nil
	case "redis":
		return NewRedis(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported dedup backend: %q", cfg.Backend)
	}
}

// Nop never reports duplicates.
type Nop struct{}

// Seen always returns false.
func (Nop) Seen(context.Context, int64) (bool, error) { return false, nil }

// Close is a no-op.
func (Nop) Close() error { return nil }
