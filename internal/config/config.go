// Package config provides configuration loading, validation, and management
// for the course bot. It reads an optional YAML file, applies BOT_* environment
// overrides and validates the result before any component is started.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration wraps every error returned by Load.
var ErrConfiguration = errors.New("configuration error")

// Config is the root configuration structure.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Course    CourseConfig    `mapstructure:"course"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds bot credentials and update delivery settings.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	Mode           string        `mapstructure:"mode"            validate:"oneof=webhook polling"`
	WebhookURL     string        `mapstructure:"webhook_url"     validate:"omitempty,url"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=2m"`
}

// ServerConfig configures the HTTP listener serving the webhook, health and metrics routes.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"            validate:"required"`
	WebhookPath    string        `mapstructure:"webhook_path"    validate:"required,startswith=/"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" validate:"min=1s,max=10m"`
}

// AIConfig selects and configures the completion provider.
// BreakerFailures consecutive failures open the circuit; 0 disables it.
type AIConfig struct {
	Provider        string        `mapstructure:"provider"         validate:"oneof=openai gemini"`
	APIKey          string        `mapstructure:"api_key"          validate:"required"`
	BaseURL         string        `mapstructure:"base_url"         validate:"omitempty,url"`
	Model           string        `mapstructure:"model"            validate:"required"`
	Temperature     float32       `mapstructure:"temperature"      validate:"min=0,max=2"`
	Timeout         time.Duration `mapstructure:"timeout"          validate:"min=1s,max=10m"`
	Instruction     string        `mapstructure:"instruction"`
	MaxRetries      int           `mapstructure:"max_retries"      validate:"min=0,max=5"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"      validate:"min=0,max=1m"`
	BreakerFailures int           `mapstructure:"breaker_failures" validate:"min=0"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" validate:"min=0"`
}

// CourseConfig describes the course the bot serves and its access rules.
type CourseConfig struct {
	Name         string `mapstructure:"name"          validate:"required"`
	TotalQuota   int    `mapstructure:"total_quota"   validate:"gt=0"`
	UnlockSecret string `mapstructure:"unlock_secret" validate:"required"`
}

// ArchiveConfig points at the CSV of graded exam exercises.
type ArchiveConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DedupConfig controls suppression of redelivered webhook updates.
type DedupConfig struct {
	Backend       string        `mapstructure:"backend"        validate:"oneof=none memory redis"`
	TTL           time.Duration `mapstructure:"ttl"            validate:"min=1s"`
	RedisAddr     string        `mapstructure:"redis_addr"     validate:"required_if=Backend redis"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"       validate:"min=0"`
}

// SchedulerConfig lists the periodic tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a task and gives it a cron schedule (seconds field optional).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig contains every fixed reply. Placeholders {course}, {secret},
// {used} and {quota} are substituted at send time.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	UnlockOK      string `mapstructure:"unlock_ok"      validate:"required"`
	UnlockFailed  string `mapstructure:"unlock_failed"  validate:"required"`
	QuotaStatus   string `mapstructure:"quota_status"   validate:"required"`
	Policy        string `mapstructure:"policy"         validate:"required"`
	Help          string `mapstructure:"help"           validate:"required"`
	Locked        string `mapstructure:"locked"         validate:"required"`
	QuotaExceeded string `mapstructure:"quota_exceeded" validate:"required"`
	OutOfScope    string `mapstructure:"out_of_scope"   validate:"required"`
	ProviderError string `mapstructure:"provider_error" validate:"required"`
}
