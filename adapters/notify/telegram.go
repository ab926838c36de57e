// Package notify implements ports.Notifier over the Telegram bot API,
// the human-facing channel for WARNING/CRITICAL verdicts and liveness
// alerts, a thin wrapper over the Bot API's sendMessage endpoint
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotem-industrial/pump-pdm/internal/config"
	"github.com/rotem-industrial/pump-pdm/ports"
)

const requestTimeout = 5 * time.Second

// Telegram sends alert text to a fixed chat via the Bot API's sendMessage
// endpoint. A zero-value Token/ChatID makes Notify a no-op, so engines
// without Telegram configured can still wire a Telegram{} in unconditionally.
type Telegram struct {
	token  string
	chatID string
	client *http.Client
}

// New builds a Telegram notifier from cfg.Telegram.
func New(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		token:  cfg.Token,
		chatID: cfg.ChatID,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Notify implements ports.Notifier. Disabled (empty token/chat) is a
// silent no-op so callers don't need to branch on configuration.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	if t.token == "" || t.chatID == "" {
		return nil
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	form := url.Values{
		"chat_id": {t.chatID},
		"text":    {message},
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram api returned status %d", resp.StatusCode)
	}
	return nil
}

var _ ports.Notifier = (*Telegram)(nil)
