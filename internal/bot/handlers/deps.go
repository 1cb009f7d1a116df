// Package handlers contains the Telegram update handlers.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/finmatbot/internal/resolver"
)

// MessageResolver resolves and answers an inbound message.
type MessageResolver interface {
	Handle(ctx context.Context, in resolver.Inbound) error
}

// TypingIndicator shows a chat action while a reply is being produced.
type TypingIndicator interface {
	Start(ctx context.Context, chatID int64) (stop func())
}

// HandlerDeps provides dependencies for Telegram update handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Resolver MessageResolver
	// Typing is optional.
	Typing TypingIndicator
	// Timeout bounds the processing of one update; zero disables it.
	Timeout time.Duration
}
