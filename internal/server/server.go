// Package server exposes the HTTP surface: the Telegram webhook, the health
// probe and the Prometheus metrics endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-telegram/bot/models"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgard/finmatbot/internal/config"
	"github.com/edgard/finmatbot/internal/dedup"
	"github.com/edgard/finmatbot/internal/metrics"
)

// SecretTokenHeader carries the webhook secret set with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateProcessor runs the bot handlers for one update. *bot.Bot implements it.
type UpdateProcessor interface {
	ProcessUpdate(ctx context.Context, update *models.Update)
}

type okResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Server is the echo application.
type Server struct {
	echo      *echo.Echo
	cfg       config.ServerConfig
	secret    string
	processor UpdateProcessor
	dedup     dedup.Deduplicator
	log       *slog.Logger
}

// New builds the routes. The webhook route is only mounted when processor is
// non-nil, so polling deployments expose just /health and /metrics.
func New(cfg config.ServerConfig, webhookSecret string, processor UpdateProcessor, dd dedup.Deduplicator, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if dd == nil {
		dd = dedup.Nop{}
	}

	s := &Server{
		echo:      echo.New(),
		cfg:       cfg,
		secret:    webhookSecret,
		processor: processor,
		dedup:     dd,
		log:       logger.With("component", "http_server"),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))

	e.GET("/health", s.handleHealth)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	if processor != nil {
		e.POST(cfg.WebhookPath, s.handleWebhook)
	}

	return s
}

// ServeHTTP lets the server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.cfg.Addr, "webhook", s.processor != nil)
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleWebhook(c echo.Context) error {
	req := c.Request()

	if s.secret != "" && req.Header.Get(SecretTokenHeader) != s.secret {
		metrics.UpdatesTotal.WithLabelValues(metrics.UpdateRejected).Inc()
		s.log.WarnContext(req.Context(), "Rejected webhook call with a bad secret token", "remote_ip", c.RealIP())
		return c.JSON(http.StatusUnauthorized, okResponse{OK: false, Error: "unauthorized"})
	}

	var update models.Update
	if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
		metrics.UpdatesTotal.WithLabelValues(metrics.UpdateRejected).Inc()
		return c.JSON(http.StatusBadRequest, okResponse{OK: false, Error: "invalid update payload"})
	}

	if update.Message == nil {
		metrics.UpdatesTotal.WithLabelValues(metrics.UpdateIgnored).Inc()
		return c.JSON(http.StatusOK, okResponse{OK: true})
	}

	seen, err := s.dedup.Seen(req.Context(), update.ID)
	if err != nil {
		s.log.WarnContext(req.Context(), "Update dedup failed, processing anyway", "update_id", update.ID, "error", err)
	} else if seen {
		metrics.UpdatesTotal.WithLabelValues(metrics.UpdateDuplicate).Inc()
		s.log.InfoContext(req.Context(), "Skipping redelivered update", "update_id", update.ID)
		return c.JSON(http.StatusOK, okResponse{OK: true})
	}

	// Telegram may drop the connection on slow replies; the work must finish anyway.
	s.processor.ProcessUpdate(context.WithoutCancel(req.Context()), &update)
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	attrs := []slog.Attr{
		slog.String("method", v.Method),
		slog.String("uri", v.URI),
		slog.Int("status", v.Status),
		slog.Duration("latency", v.Latency),
	}
	level := slog.LevelDebug
	if v.Error != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", v.Error.Error()))
	}
	s.log.LogAttrs(c.Request().Context(), level, "HTTP request", attrs...)
	return nil
}
