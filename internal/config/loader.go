package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from, in increasing priority:
//  1. default values
//  2. the YAML file at path (optional; a missing file is not an error)
//  3. BOT_* environment variables (e.g. BOT_TELEGRAM_TOKEN)
//  4. command-line flags bound from flags, when non-nil
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("log-level"); f != nil {
			if err := v.BindPFlag("log.level", f); err != nil {
				return nil, fmt.Errorf("%w: failed to bind flag: %v", ErrConfiguration, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.mode", DefaultTelegramMode)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.request_timeout", DefaultTelegramRequestTimeout)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.webhook_path", DefaultServerWebhookPath)
	v.SetDefault("server.handler_timeout", DefaultServerHandlerTimeout)

	v.SetDefault("ai.provider", DefaultAIProvider)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.temperature", DefaultAITemperature)
	v.SetDefault("ai.timeout", DefaultAITimeout)
	v.SetDefault("ai.instruction", "")
	v.SetDefault("ai.max_retries", DefaultAIMaxRetries)
	v.SetDefault("ai.retry_delay", DefaultAIRetryDelay)
	v.SetDefault("ai.breaker_failures", DefaultAIBreakerFailures)
	v.SetDefault("ai.breaker_cooldown", DefaultAIBreakerCooldown)

	v.SetDefault("course.name", DefaultCourseName)
	v.SetDefault("course.total_quota", DefaultCourseTotalQuota)
	v.SetDefault("course.unlock_secret", DefaultCourseUnlockSecret)

	v.SetDefault("archive.path", DefaultArchivePath)
	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("dedup.backend", DefaultDedupBackend)
	v.SetDefault("dedup.ttl", DefaultDedupTTL)
	v.SetDefault("dedup.redis_addr", "")
	v.SetDefault("dedup.redis_password", "")
	v.SetDefault("dedup.redis_db", 0)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.unlock_ok", DefaultMessages.UnlockOK)
	v.SetDefault("messages.unlock_failed", DefaultMessages.UnlockFailed)
	v.SetDefault("messages.quota_status", DefaultMessages.QuotaStatus)
	v.SetDefault("messages.policy", DefaultMessages.Policy)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.locked", DefaultMessages.Locked)
	v.SetDefault("messages.quota_exceeded", DefaultMessages.QuotaExceeded)
	v.SetDefault("messages.out_of_scope", DefaultMessages.OutOfScope)
	v.SetDefault("messages.provider_error", DefaultMessages.ProviderError)
}
