package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edgard/finmatbot/internal/config"
)

const keyPrefix = "finmatbot:update:"

// Redis shares seen update ids between instances with SET NX and a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to cfg.RedisAddr. An unreachable server is logged but not
// fatal; Seen reports the error on each call until it comes back.
func NewRedis(ctx context.Context, cfg config.DedupConfig, log *slog.Logger) (*Redis, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address is required for the redis dedup backend")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		MaxRetries:   3,
		PoolTimeout:  4 * time.Second,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil && log != nil {
		log.WarnContext(ctx, "Redis connection failed, dedup will fail open", "addr", cfg.RedisAddr, "error", err)
	}

	return &Redis{client: client, ttl: cfg.TTL}, nil
}

// Seen implements Deduplicator.
func (r *Redis) Seen(ctx context.Context, updateID int64) (bool, error) {
	created, err := r.client.SetNX(ctx, key(updateID), 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX failed: %w", err)
	}
	return !created, nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func key(updateID int64) string {
	return keyPrefix + strconv.FormatInt(updateID, 10)
}
