// Package telegram wraps the go-telegram/bot client: construction, reply
// delivery, typing indicators, the command menu and webhook registration.
package telegram

import (
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}

// ModeOptions returns the bot options a delivery mode needs. In webhook mode
// handlers run on the request goroutine, so the HTTP server's graceful
// shutdown waits for updates still being handled.
func ModeOptions(mode string) []bot.Option {
	if mode == "webhook" {
		return []bot.Option{bot.WithNotAsyncHandlers()}
	}
	return nil
}

// RegisterMessageHandler routes every update carrying a message, text or not,
// to handler. Other update types reach the bot's default handler.
func RegisterMessageHandler(b *bot.Bot, handler bot.HandlerFunc, mw ...bot.Middleware) string {
	return b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handler, mw...)
}
