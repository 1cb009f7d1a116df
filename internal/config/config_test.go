package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("BOT_AI_API_KEY", "sk-test")
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, "123456:test-token", cfg.Telegram.Token)
	assert.Equal(t, DefaultTelegramMode, cfg.Telegram.Mode)
	assert.Equal(t, DefaultServerWebhookPath, cfg.Server.WebhookPath)
	assert.Equal(t, DefaultCourseTotalQuota, cfg.Course.TotalQuota)
	assert.Equal(t, DefaultCourseUnlockSecret, cfg.Course.UnlockSecret)
	assert.Equal(t, DefaultAIModel, cfg.AI.Model)
	assert.InDelta(t, DefaultAITemperature, cfg.AI.Temperature, 0.0001)
	assert.Equal(t, DefaultAIMaxRetries, cfg.AI.MaxRetries)
	assert.Zero(t, cfg.AI.MaxRetries, "provider calls are not retried unless configured")
	assert.Equal(t, DefaultAIBreakerFailures, cfg.AI.BreakerFailures)
	assert.Equal(t, DefaultAIBreakerCooldown, cfg.AI.BreakerCooldown)
	assert.Equal(t, DefaultMessages.Locked, cfg.Messages.Locked)
	assert.True(t, cfg.Scheduler.Tasks["archive_reload"].Enabled)
}

func TestLoad_MissingSecretsIsFatal(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_AI_API_KEY", "")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOT_COURSE_UNLOCK_SECRET", "apriti")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ai:
  provider: gemini
  model: gemini-2.0-flash
  timeout: 30s
course:
  total_quota: 5
  unlock_secret: from-file
dedup:
  backend: none
scheduler:
  tasks:
    sql_maintenance:
      enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 5, cfg.Course.TotalQuota)
	assert.Equal(t, "apriti", cfg.Course.UnlockSecret)
	assert.Equal(t, "none", cfg.Dedup.Backend)
	assert.False(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	setRequiredEnv(t)

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown provider", key: "BOT_AI_PROVIDER", val: "llama"},
		{name: "zero quota", key: "BOT_COURSE_TOTAL_QUOTA", val: "0"},
		{name: "unknown mode", key: "BOT_TELEGRAM_MODE", val: "carrier-pigeon"},
		{name: "relative webhook path", key: "BOT_SERVER_WEBHOOK_PATH", val: "hook"},
		{name: "redis without address", key: "BOT_DEDUP_BACKEND", val: "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestLoad_FlagOverridesLogLevel(t *testing.T) {
	setRequiredEnv(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", DefaultLogLevel, "")
	require.NoError(t, fs.Parse([]string{"--log-level=debug"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestRender(t *testing.T) {
	t.Parallel()

	cfg := &Config{Course: CourseConfig{Name: "Matematica Finanziaria", TotalQuota: 300, UnlockSecret: "sblocco"}}

	assert.Equal(t, "Hai usato <b>7/300</b> risposte totali.", cfg.Render(DefaultMessages.QuotaStatus, 7))
	assert.Equal(t, "🔒 Bot bloccato. Sbloccalo con: <code>/unlock sblocco</code>", cfg.Render(DefaultMessages.Locked, 0))
	assert.Contains(t, cfg.Render(DefaultMessages.Welcome, 0), "<b>Matematica Finanziaria</b>")
}
