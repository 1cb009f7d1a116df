package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// DefaultTypingInterval is below the ~5s Telegram keeps a chat action visible.
const DefaultTypingInterval = 4 * time.Second

// ChatActionAPI is the part of *bot.Bot used for chat actions.
type ChatActionAPI interface {
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// Typing shows the "typing" indicator while a slow reply is produced.
type Typing struct {
	api      ChatActionAPI
	interval time.Duration
	log      *slog.Logger
}

// NewTyping creates a Typing helper. A non-positive interval uses DefaultTypingInterval.
func NewTyping(api ChatActionAPI, interval time.Duration, logger *slog.Logger) *Typing {
	if interval <= 0 {
		interval = DefaultTypingInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Typing{api: api, interval: interval, log: logger.With("component", "typing")}
}

// Start refreshes the typing indicator for chatID until the returned stop
// function is called or ctx ends. Failures are only logged.
func (t *Typing) Start(ctx context.Context, chatID int64) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			if _, err := t.api.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil && ctx.Err() == nil {
				t.log.DebugContext(ctx, "Typing action failed", "chat_id", chatID, "error", err)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
