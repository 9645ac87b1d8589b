package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNote(passed bool) Notification {
	note := Notification{
		RunID:      "8c1f6c0e-0000-5000-8000-000000000042",
		Seed:       42,
		Passed:     passed,
		Summary:    "PASS: 17 findings (0 out of band), 0 failed checks",
		Highlights: []string{"volatility_ratio[NVDA] = 1.9000"},
	}
	if !passed {
		note.Summary = "FAIL: 17 findings (1 out of band), 1 failed checks"
		note.FailedChecks = []string{"slippage_direction"}
	}
	return note
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/bottoken/sendMessage"), r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL+"/", time.Second, zerolog.Nop())
	require.NoError(t, notifier.Notify(context.Background(), sampleNote(true)))

	assert.Equal(t, "chat", received["chat_id"])
	assert.Contains(t, received["text"], "[Scenario QA PASS]")
	assert.Contains(t, received["text"], "seed 42")
	assert.Contains(t, received["text"], "- volatility_ratio[NVDA]")
}

func TestTelegramNotifierOKFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	assert.Error(t, notifier.Notify(context.Background(), sampleNote(true)))
}

func TestTelegramNotifierStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	err := notifier.Notify(context.Background(), sampleNote(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRenderMessageFailure(t *testing.T) {
	msg := renderMessage(sampleNote(false))
	assert.True(t, strings.HasPrefix(msg, "[Scenario QA FAIL]\n"))
	assert.Contains(t, msg, "Failed: slippage_direction")
	assert.NotContains(t, msg, "Generated:")
}
