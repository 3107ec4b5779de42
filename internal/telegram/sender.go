// Package telegram delivers alert payloads to the Telegram Bot API.
//
// Delivery is best effort: failures are retried with exponential backoff
// and, once attempts are exhausted, logged and reported as a terminal error
// the caller can count but need not act on.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arbscan/arbscan/internal/logger"
)

const maxAttempts = 4

// Sender posts plain-text messages to Telegram chats. No parse mode is ever
// set: payloads are delivered exactly as formatted.
type Sender struct {
	apiBaseURL    string
	botToken      string
	defaultChatID string
	client        *http.Client

	sleep func(time.Duration) // swapped out in tests
}

// NewSender creates a Sender. apiBaseURL is normally
// "https://api.telegram.org"; defaultChatID is used when a send names no
// destination.
func NewSender(apiBaseURL, botToken, defaultChatID string) *Sender {
	return &Sender{
		apiBaseURL:    strings.TrimRight(apiBaseURL, "/"),
		botToken:      botToken,
		defaultChatID: defaultChatID,
		client:        &http.Client{Timeout: 10 * time.Second},
		sleep:         time.Sleep,
	}
}

// Send delivers text to chatID with link previews suppressed. A blank text
// is a silent no-op; a blank chatID falls back to the default destination,
// and if that is also blank the call is a no-op. A non-nil error means the
// payload was definitively not delivered.
func (s *Sender) Send(ctx context.Context, chatID, text string) error {
	return s.SendWith(ctx, chatID, text, true, false)
}

// SendWith is Send with explicit preview-suppression and silent-delivery
// flags.
func (s *Sender) SendWith(ctx context.Context, chatID, text string, disablePreview, silent bool) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	chatID = s.resolveChatID(chatID)
	if chatID == "" {
		logger.Warn("telegram: no destination chat configured, dropping payload")
		return nil
	}

	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": disablePreview,
		"disable_notification":     silent,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBaseURL, s.botToken)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := s.post(ctx, url, body); err == nil {
			return nil
		} else {
			logger.Warn("telegram: send failed (attempt %d/%d): chat=%s %v",
				attempt, maxAttempts, chatID, err)
		}
		if attempt < maxAttempts {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return fmt.Errorf("send cancelled: %w", ctx.Err())
			default:
			}
			s.sleep(backoff)
		}
	}

	logger.Error("telegram: send failed after %d attempts (chat=%s)", maxAttempts, chatID)
	return fmt.Errorf("send failed after %d attempts", maxAttempts)
}

func (s *Sender) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

func (s *Sender) resolveChatID(chatID string) string {
	if c := strings.TrimSpace(chatID); c != "" {
		return c
	}
	return strings.TrimSpace(s.defaultChatID)
}
