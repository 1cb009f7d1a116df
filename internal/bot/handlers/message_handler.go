package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/finmatbot/internal/database"
	"github.com/edgard/finmatbot/internal/metrics"
	"github.com/edgard/finmatbot/internal/resolver"
)

// NewMessageHandler returns the default handler: every message, commands
// included, goes through the resolver.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update without message or sender", "update_id", update.ID)
		metrics.UpdatesTotal.WithLabelValues(metrics.UpdateIgnored).Inc()
		return
	}

	if h.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deps.Timeout)
		defer cancel()
	}

	if h.deps.Typing != nil {
		stop := h.deps.Typing.Start(ctx, msg.Chat.ID)
		defer stop()
	}

	in := resolver.Inbound{
		ChatID: msg.Chat.ID,
		Profile: database.Profile{
			ID:        msg.From.ID,
			Username:  msg.From.Username,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
		},
		Text: msg.Text,
	}

	if err := h.deps.Resolver.Handle(ctx, in); err != nil {
		log.ErrorContext(ctx, "Failed to handle message", "update_id", update.ID, "chat_id", msg.Chat.ID, "user_id", msg.From.ID, "error", err)
		metrics.UpdatesTotal.WithLabelValues(metrics.UpdateFailed).Inc()
		return
	}

	metrics.UpdatesTotal.WithLabelValues(metrics.UpdateProcessed).Inc()
}
