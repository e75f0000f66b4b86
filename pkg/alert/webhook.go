package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	// SignatureHeader carries Sign(secret, body) when a secret is configured.
	SignatureHeader = "X-Signature-256"
	// EventHeader repeats the event name so receivers can route before parsing.
	EventHeader = "X-Postgrade-Event"

	EventPostFlagged = "post.flagged"
)

// WebhookEvent is the JSON body delivered to generic webhooks.
type WebhookEvent struct {
	Event  string        `json:"event"`
	SentAt time.Time     `json:"sent_at"`
	Post   *Notification `json:"post"`
}

// Webhook delivers signed events to any HTTP endpoint.
type Webhook struct {
	client *http.Client
	url    string
	secret string
	now    func() time.Time
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		secret: secret,
		now:    time.Now,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(WebhookEvent{
		Event:  EventPostFlagged,
		SentAt: w.now().UTC(),
		Post:   n,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	header := http.Header{}
	header.Set(EventHeader, EventPostFlagged)
	if w.secret != "" {
		header.Set(SignatureHeader, Sign(w.secret, body))
	}

	if err := postJSON(ctx, w.client, w.url, body, header); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// Sign returns "sha256=<hex hmac>" of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
