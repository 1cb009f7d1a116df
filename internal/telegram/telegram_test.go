package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/finmatbot/internal/logger"
)

const testToken = "123456:TEST-token"

type apiCall struct {
	method string
	form   map[string]string
}

type fakeTelegram struct {
	mu    sync.Mutex
	calls []apiCall
	// fail makes every call answer with a Telegram error payload.
	fail bool
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
	form := map[string]string{}
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: form})
	fail := f.fail
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
		return
	}
	if method == "sendMessage" {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1717000000,"chat":{"id":42,"type":"private"}}}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
}

func (f *fakeTelegram) recorded() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func newTestBot(t *testing.T) (*bot.Bot, *fakeTelegram) {
	t.Helper()
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	b, err := NewTelegramBot(testToken, logger.Discard(), bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)
	return b, fake
}

func TestNewTelegramBotRequiresToken(t *testing.T) {
	t.Parallel()
	_, err := NewTelegramBot("", logger.Discard())
	require.Error(t, err)
}

func TestModeOptions(t *testing.T) {
	t.Parallel()

	assert.Len(t, ModeOptions("webhook"), 1)
	assert.Empty(t, ModeOptions("polling"))
}

func TestSenderSend(t *testing.T) {
	t.Parallel()
	b, fake := newTestBot(t)

	err := NewSender(b, logger.Discard()).Send(context.Background(), 42, "<b>[UFFICIALE] Risultato</b>")
	require.NoError(t, err)

	calls := fake.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendMessage", calls[0].method)
	assert.Equal(t, "42", calls[0].form["chat_id"])
	assert.Equal(t, "<b>[UFFICIALE] Risultato</b>", calls[0].form["text"])
	assert.Equal(t, "HTML", calls[0].form["parse_mode"])

	var preview map[string]any
	require.NoError(t, json.Unmarshal([]byte(calls[0].form["link_preview_options"]), &preview))
	assert.Equal(t, true, preview["is_disabled"])
}

func TestSenderSendFailure(t *testing.T) {
	t.Parallel()
	b, fake := newTestBot(t)
	fake.fail = true

	err := NewSender(b, logger.Discard()).Send(context.Background(), 42, "ciao")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 42")
}

func TestRegisterCommandMenu(t *testing.T) {
	t.Parallel()
	b, fake := newTestBot(t)

	err := RegisterCommandMenu(context.Background(), b, []Command{
		{Name: "start", Description: "Istruzioni"},
		{Name: "quota", Description: "Quota"},
	}, logger.Discard())
	require.NoError(t, err)

	calls := fake.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "setMyCommands", calls[0].method)

	var commands []map[string]string
	require.NoError(t, json.Unmarshal([]byte(calls[0].form["commands"]), &commands))
	require.Len(t, commands, 2)
	assert.Equal(t, "start", commands[0]["command"])
	assert.Equal(t, "Quota", commands[1]["description"])
}

func TestRegisterWebhook(t *testing.T) {
	t.Parallel()
	b, fake := newTestBot(t)

	require.NoError(t, RegisterWebhook(context.Background(), b, "https://bot.example.com/api/telegram/webhook", "s3cret", logger.Discard()))
	require.NoError(t, RemoveWebhook(context.Background(), b))

	calls := fake.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "setWebhook", calls[0].method)
	assert.Equal(t, "https://bot.example.com/api/telegram/webhook", calls[0].form["url"])
	assert.Equal(t, "s3cret", calls[0].form["secret_token"])
	assert.Equal(t, "deleteWebhook", calls[1].method)

	fake.fail = true
	assert.Error(t, RegisterWebhook(context.Background(), b, "https://bot.example.com/hook", "", logger.Discard()))
}

type countingChatAction struct {
	calls atomic.Int32
}

func (c *countingChatAction) SendChatAction(context.Context, *bot.SendChatActionParams) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func TestTypingStartStop(t *testing.T) {
	t.Parallel()

	api := &countingChatAction{}
	stop := NewTyping(api, 10*time.Millisecond, logger.Discard()).Start(context.Background(), 42)
	time.Sleep(35 * time.Millisecond)
	stop()

	after := api.calls.Load()
	assert.GreaterOrEqual(t, after, int32(2))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, api.calls.Load(), "no actions after stop")
}
