// Package main contains the entrypoint for the course assistant bot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/edgard/finmatbot/internal/ai"
	"github.com/edgard/finmatbot/internal/archive"
	"github.com/edgard/finmatbot/internal/bot"
	"github.com/edgard/finmatbot/internal/bot/handlers"
	"github.com/edgard/finmatbot/internal/bot/tasks"
	"github.com/edgard/finmatbot/internal/config"
	"github.com/edgard/finmatbot/internal/database"
	"github.com/edgard/finmatbot/internal/dedup"
	"github.com/edgard/finmatbot/internal/logger"
	"github.com/edgard/finmatbot/internal/metrics"
	"github.com/edgard/finmatbot/internal/resolver"
	"github.com/edgard/finmatbot/internal/server"
	"github.com/edgard/finmatbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	configPath := flags.String("config", "./config.yaml", "Path to configuration file")
	flags.String("log-level", "", "Override log.level (debug, info, warn, error)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	arch := archive.NewStore(log)
	records, err := arch.LoadFile(cfg.Archive.Path)
	if err != nil {
		log.Error("Failed to load archive", "path", cfg.Archive.Path, "error", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(registry)
	metrics.ArchiveRecords.Set(float64(records))

	completer, err := ai.NewCompleter(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize completion provider", "provider", cfg.AI.Provider, "error", err)
		return 1
	}
	fallback := ai.NewFallback(completer, ai.SystemInstruction(cfg.Course.Name, cfg.AI.Instruction), cfg.AI.Timeout, log)

	dd, err := dedup.New(ctx, cfg.Dedup, log)
	if err != nil {
		log.Error("Failed to initialize update dedup", "backend", cfg.Dedup.Backend, "error", err)
		return 1
	}
	defer func() {
		if err := dd.Close(); err != nil {
			log.Warn("Error closing dedup backend", "error", err)
		}
	}()

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithHTTPClient(cfg.Telegram.RequestTimeout, &http.Client{Timeout: cfg.Telegram.RequestTimeout + 10*time.Second}),
	}
	botOpts = append(botOpts, telegram.ModeOptions(cfg.Telegram.Mode)...)
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	res := resolver.New(cfg, store, arch, fallback, telegram.NewSender(tg, log), log)
	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Resolver: res,
		Typing:   telegram.NewTyping(tg, telegram.DefaultTypingInterval, log),
		Timeout:  cfg.Server.HandlerTimeout,
	}
	telegram.RegisterMessageHandler(tg, handlers.NewMessageHandler(hDeps))

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Archive: arch,
		Config:  cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var processor server.UpdateProcessor
	if cfg.Telegram.Mode == "webhook" {
		processor = tg
	}
	srv := server.New(cfg.Server, cfg.Telegram.WebhookSecret, processor, dd, registry, log)

	app := bot.NewBot(log, cfg, tg, srv, sched)

	log.Info("Starting bot...", "course", cfg.Course.Name, "quota", cfg.Course.TotalQuota, "archive_records", records)
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
