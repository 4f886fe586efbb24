package history

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/scrapekit/models"
)

// EventRecorded is the type of events sent for each recorded entry.
const EventRecorded = "history.recorded"

// SignatureHeader carries "sha256=<hex HMAC of the body>" when a secret is set.
const SignatureHeader = "X-Scrapekit-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string               `json:"type"`
	UserID    string               `json:"user_id"`
	Timestamp int64                `json:"timestamp"`
	Data      models.HistoryRecord `json:"data"`
}

// Deliver sends a webhook event synchronously.
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Scrapekit-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Webhook is a Recorder that forwards entries to an external endpoint in
// the background. Record never blocks on the network.
type Webhook struct {
	url    string
	secret string
	client *http.Client

	// delays before each delivery attempt.
	delays []time.Duration
}

// NewWebhook creates a forwarder to url, signing with secret when non-empty.
// Delivery is retried after 1s, 5s and 30s.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Record schedules delivery of a history.recorded event for entry.
func (w *Webhook) Record(_ context.Context, entry *models.HistoryEntry) error {
	event := &Event{
		Type:      EventRecorded,
		UserID:    entry.UserID,
		Timestamp: time.Now().Unix(),
		Data:      entry.Record(),
	}
	go w.deliver(event)
	return nil
}

func (w *Webhook) deliver(event *Event) {
	for attempt, delay := range w.delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := Deliver(ctx, w.client, w.url, w.secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", w.url,
				"event", event.Type,
				"entry_id", event.Data.ID,
				"attempt", attempt+1,
			)
			return
		}
		slog.Warn("webhook delivery failed",
			"url", w.url,
			"event", event.Type,
			"entry_id", event.Data.ID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", w.url,
		"event", event.Type,
		"entry_id", event.Data.ID,
	)
}
