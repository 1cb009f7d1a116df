package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MessageAPI is the part of *bot.Bot used to deliver replies.
type MessageAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Sender delivers HTML-formatted replies with link previews disabled.
type Sender struct {
	api MessageAPI
	log *slog.Logger
}

// NewSender creates a Sender on top of api (normally a *bot.Bot).
func NewSender(api MessageAPI, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{api: api, log: logger.With("component", "telegram_sender")}
}

// Send posts text to chatID using the HTML parse mode.
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	previewDisabled := true
	_, err := s.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &previewDisabled},
	})
	if err != nil {
		var tooMany *bot.TooManyRequestsError
		if errors.As(err, &tooMany) {
			s.log.WarnContext(ctx, "Telegram rate limit hit", "chat_id", chatID, "retry_after", tooMany.RetryAfter)
		}
		return fmt.Errorf("sendMessage to chat %d failed: %w", chatID, err)
	}

	s.log.DebugContext(ctx, "Reply delivered", "chat_id", chatID, "chars", len(text))
	return nil
}
