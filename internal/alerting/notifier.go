package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notification carries the outcome of one generation run.
type Notification struct {
	RunID        string
	Seed         uint64
	GeneratedAt  time.Time
	Passed       bool
	Summary      string
	Highlights   []string
	FailedChecks []string
}

// Notifier delivers run notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier posts notifications through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered text.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		return fmt.Errorf("telegram returned ok=false")
	}

	n.logger.Info().Str("run_id", note.RunID).
		Bool("passed", note.Passed).
		Int("failed_checks", len(note.FailedChecks)).
		Msg("run notification sent (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	status := "PASS"
	if !note.Passed {
		status = "FAIL"
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Scenario QA %s]\n", status))
	builder.WriteString(fmt.Sprintf("Run: %s (seed %d)\n", note.RunID, note.Seed))
	if !note.GeneratedAt.IsZero() {
		builder.WriteString(fmt.Sprintf("Generated: %s UTC\n", note.GeneratedAt.UTC().Format(time.RFC3339)))
	}
	builder.WriteString(note.Summary)
	builder.WriteString("\n")
	for _, h := range note.Highlights {
		builder.WriteString(fmt.Sprintf("- %s\n", h))
	}
	if len(note.FailedChecks) > 0 {
		builder.WriteString(fmt.Sprintf("Failed: %s\n", strings.Join(note.FailedChecks, ", ")))
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
