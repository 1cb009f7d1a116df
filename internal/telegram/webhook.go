package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// SetupAPI is the part of *bot.Bot used at startup.
type SetupAPI interface {
	SetMyCommands(ctx context.Context, params *bot.SetMyCommandsParams) (bool, error)
	SetWebhook(ctx context.Context, params *bot.SetWebhookParams) (bool, error)
	DeleteWebhook(ctx context.Context, params *bot.DeleteWebhookParams) (bool, error)
}

// Command is an entry of the client command menu.
type Command struct {
	Name        string
	Description string
}

// RegisterCommandMenu publishes the command menu shown by Telegram clients.
func RegisterCommandMenu(ctx context.Context, api SetupAPI, commands []Command, logger *slog.Logger) error {
	botCommands := make([]models.BotCommand, 0, len(commands))
	for _, c := range commands {
		botCommands = append(botCommands, models.BotCommand{Command: c.Name, Description: c.Description})
	}

	if _, err := api.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: botCommands}); err != nil {
		return fmt.Errorf("setMyCommands failed: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "Registered command menu", "count", len(botCommands))
	}
	return nil
}

// RegisterWebhook points Telegram at url. When secret is set Telegram sends it
// back in the X-Telegram-Bot-Api-Secret-Token header of every delivery.
func RegisterWebhook(ctx context.Context, api SetupAPI, url, secret string, logger *slog.Logger) error {
	_, err := api.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "Registered webhook", "url", url, "secret_set", secret != "")
	}
	return nil
}

// RemoveWebhook deletes any registered webhook so long polling can receive updates.
func RemoveWebhook(ctx context.Context, api SetupAPI) error {
	if _, err := api.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		return fmt.Errorf("deleteWebhook failed: %w", err)
	}
	return nil
}
