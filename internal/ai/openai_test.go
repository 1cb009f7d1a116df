package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/finmatbot/internal/config"
	"github.com/edgard/finmatbot/internal/logger"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1717000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "[STIMA AI] Risultato: 5,1234%"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestAIConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Provider:    "openai",
		APIKey:      "sk-test",
		BaseURL:     baseURL,
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
	}
}

func TestOpenAICompleterComplete(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	t.Cleanup(srv.Close)

	completer, err := NewOpenAICompleter(newTestAIConfig(srv.URL+"/v1"), logger.Discard())
	require.NoError(t, err)

	text, err := completer.Complete(context.Background(), "sistema", "utente")
	require.NoError(t, err)
	assert.Equal(t, "[STIMA AI] Risultato: 5,1234%", text)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sistema", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "utente", got.Messages[1].Content)
}

func TestOpenAICompleterRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(completionBody))
	}))
	t.Cleanup(srv.Close)

	cfg := newTestAIConfig(srv.URL + "/v1")
	cfg.MaxRetries = 1

	completer, err := NewOpenAICompleter(cfg, logger.Discard())
	require.NoError(t, err)

	text, err := completer.Complete(context.Background(), "sistema", "utente")
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFallbackDefaultConfigMakesSingleRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	t.Cleanup(srv.Close)

	cfg := newTestAIConfig(srv.URL + "/v1")
	cfg.MaxRetries = config.DefaultAIMaxRetries
	cfg.RetryDelay = config.DefaultAIRetryDelay

	completer, err := NewOpenAICompleter(cfg, logger.Discard())
	require.NoError(t, err)

	_, err = NewFallback(completer, "sistema", time.Minute, logger.Discard()).Answer(context.Background(), "utente")
	require.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAICompleterClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	cfg := newTestAIConfig(srv.URL + "/v1")
	cfg.MaxRetries = 3

	completer, err := NewOpenAICompleter(cfg, logger.Discard())
	require.NoError(t, err)

	_, err = completer.Complete(context.Background(), "sistema", "utente")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "non-transient errors are not retried")
}

func TestNewCompleter(t *testing.T) {
	t.Parallel()

	_, err := NewCompleter(context.Background(), config.AIConfig{Provider: "unknown", APIKey: "k"}, logger.Discard())
	require.Error(t, err)

	_, err = NewCompleter(context.Background(), config.AIConfig{Provider: "openai"}, logger.Discard())
	require.Error(t, err)

	c, err := NewCompleter(context.Background(), newTestAIConfig("http://localhost"), logger.Discard())
	require.NoError(t, err)
	assert.NotNil(t, c)
}
