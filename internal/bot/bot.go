// Package bot implements lifecycle management and component orchestration:
// the HTTP server, the Telegram listener and the task scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/finmatbot/internal/config"
	"github.com/edgard/finmatbot/internal/resolver"
	"github.com/edgard/finmatbot/internal/server"
	"github.com/edgard/finmatbot/internal/telegram"
)

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	tgBot     *tgbot.Bot
	server    *server.Server
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	tgBot *tgbot.Bot,
	srv *server.Server,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		tgBot:     tgBot,
		server:    srv,
		scheduler: scheduler,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "mode", b.cfg.Telegram.Mode)

	if err := b.registerWithTelegram(ctx); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.server.Start(); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping HTTP server...")

		// Webhook handlers run synchronously, so in-flight updates get up to one
		// handler timeout to finish.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), b.cfg.Server.HandlerTimeout)
		defer cancel()
		if err := b.server.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error stopping HTTP server", "error", err)
		}
		return nil
	})

	if b.cfg.Telegram.Mode == "polling" {
		g.Go(func() error {
			b.logger.Info("Starting Telegram long polling...")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram long polling stopped.")

			if gCtx.Err() == nil {
				b.logger.Warn("Telegram listener stopped unexpectedly without context cancellation.")
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

// registerWithTelegram publishes the command menu and points Telegram at the
// right update source. A menu failure is not fatal.
func (b *Bot) registerWithTelegram(ctx context.Context) error {
	menu := resolver.Menu()
	commands := make([]telegram.Command, 0, len(menu))
	for _, m := range menu {
		commands = append(commands, telegram.Command{Name: m.Command, Description: m.Description})
	}
	if err := telegram.RegisterCommandMenu(ctx, b.tgBot, commands, b.logger); err != nil {
		b.logger.Warn("Failed to register command menu", "error", err)
	}

	switch {
	case b.cfg.Telegram.Mode == "polling":
		if err := telegram.RemoveWebhook(ctx, b.tgBot); err != nil {
			return fmt.Errorf("failed to switch to polling: %w", err)
		}
	case b.cfg.Telegram.WebhookURL != "":
		if err := telegram.RegisterWebhook(ctx, b.tgBot, b.cfg.Telegram.WebhookURL, b.cfg.Telegram.WebhookSecret, b.logger); err != nil {
			return fmt.Errorf("failed to register webhook: %w", err)
		}
	default:
		b.logger.Info("No webhook URL configured, assuming the webhook is registered externally")
	}
	return nil
}
