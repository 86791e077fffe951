package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/model"
)

const (
	telegramAPI = "https://api.telegram.org"
	// telegramMaxLen is the sendMessage text limit in characters.
	telegramMaxLen = 4096
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken   string
	ChatID     string
	BaseURL    string
	Client     *http.Client
	MaxRetries int

	log *logger.Entry
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, log *logger.Log) *TelegramNotifier {
	if log == nil {
		log = logger.GetLogger()
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		BaseURL:    telegramAPI,
		MaxRetries: 2,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log.WithComponent("telegram"),
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, method)
}

// Send sends a message to the configured chat, split at line boundaries
// when it exceeds the API limit.
func (t *TelegramNotifier) Send(text string) error {
	for _, chunk := range splitMessage(text, telegramMaxLen) {
		if err := t.sendChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) sendChunk(text string) error {
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(t.endpoint("sendMessage"), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(text); err != nil {
			lastErr = err
			if i == maxRetries {
				break
			}
			backoff := time.Duration(1<<uint(i)) * time.Second
			t.log.WithError(err).WithField("attempt", i+1).Warnf("send failed, retrying in %v", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// Render pushes the scan report to the chat.
func (t *TelegramNotifier) Render(o *model.ScanOutcome) error {
	return t.SendWithRetry(context.Background(), FormatScanReport(o), t.MaxRetries)
}

func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		chunks []string
		b      strings.Builder
		n      int
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n > 0 && n+ln > limit {
			chunks = append(chunks, b.String())
			b.Reset()
			n = 0
		}
		for ln > limit {
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
			ln -= limit
		}
		b.WriteString(line)
		n += ln
	}
	if n > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
