package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/score"
)

// maxWarnings caps how many warnings a message lists.
const maxWarnings = 3

// Notification describes a risky post.
type Notification struct {
	PostID    string                `json:"post_id"`
	Source    string                `json:"source"`
	Author    string                `json:"author,omitempty"`
	URL       string                `json:"url,omitempty"`
	Text      string                `json:"text"`
	Overall   int                   `json:"overall"`
	Grade     string                `json:"grade"`
	RiskLevel controversy.RiskLevel `json:"risk_level"`
	RiskScore float64               `json:"risk_score"`
	Warnings  []controversy.Warning `json:"warnings"`
	ScoredAt  time.Time             `json:"scored_at"`
}

// NewNotification builds a notification from a score, keeping the top warnings.
func NewNotification(postID, source, author, url, text string, s score.TweetScore) *Notification {
	warnings := s.Controversy.Warnings
	if len(warnings) > maxWarnings {
		warnings = warnings[:maxWarnings]
	}
	return &Notification{
		PostID:    postID,
		Source:    source,
		Author:    author,
		URL:       url,
		Text:      text,
		Overall:   s.Overall,
		Grade:     string(s.Grade),
		RiskLevel: s.Controversy.RiskLevel,
		RiskScore: s.Controversy.RiskScore,
		Warnings:  append([]controversy.Warning{}, warnings...),
		ScoredAt:  time.Now().UTC(),
	}
}

// Title is the one-line summary used by chat notifiers.
func (n *Notification) Title() string {
	return fmt.Sprintf("%s %s post from %s", levelEmoji(n.RiskLevel), n.RiskLevel, n.Source)
}

func levelEmoji(l controversy.RiskLevel) string {
	switch l {
	case controversy.RiskDangerous:
		return "🚨"
	case controversy.RiskRisky:
		return "⚠️"
	case controversy.RiskCaution:
		return "🟡"
	}
	return "✅"
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// postJSON sends body and treats any 2xx as success.
func postJSON(ctx context.Context, client *http.Client, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "postgrade/1.0")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "…"
}
