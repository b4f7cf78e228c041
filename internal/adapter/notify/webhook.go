package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// payload follows the Apprise API notify body.
type payload struct {
	Title  string `json:"title,omitempty"`
	Body   string `json:"body"`
	Format string `json:"format"`
}

// Webhook POSTs notifications as JSON with retry and exponential backoff.
type Webhook struct {
	url        string
	title      string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithRetries sets the maximum number of retries. Default: 3.
func WithRetries(n int) WebhookOption {
	return func(w *Webhook) { w.maxRetries = n }
}

// WithBackoff sets the first retry delay; it doubles per attempt. Default: 1s.
func WithBackoff(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.backoff = d }
}

// WithHTTPClient replaces the default 10s-timeout client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// NewWebhook creates a notifier posting to url.
func NewWebhook(url, title string, logger *zap.Logger, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:        url,
		title:      title,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		backoff:    time.Second,
		logger:     logger,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Webhook) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(payload{Title: w.title, Body: message, Format: "html"})
	if err != nil {
		return fmt.Errorf("notify: marshal: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			delay := w.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = w.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		w.logger.Warn("notification attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}
	return fmt.Errorf("notify: giving up after %d attempts: %w", w.maxRetries+1, lastErr)
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
