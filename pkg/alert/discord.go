package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elonfeng/postgrade/pkg/controversy"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var lines []string
	for _, w := range n.Warnings {
		lines = append(lines, fmt.Sprintf("• **%s** [%s] %s", w.Severity, w.Category, w.Detail))
	}

	embed := map[string]any{
		"title": n.Title(),
		"description": fmt.Sprintf("**Grade:** %s (%d/100) | **Risk:** %s (%.0f/100)\n\n> %s\n\n%s",
			n.Grade, n.Overall, n.RiskLevel, n.RiskScore, truncate(n.Text, 280), strings.Join(lines, "\n")),
		"color":     levelColor(n.RiskLevel),
		"timestamp": n.ScoredAt.UTC().Format(time.RFC3339),
	}
	if n.URL != "" {
		embed["url"] = n.URL
	}

	body, err := json.Marshal(map[string]any{"embeds": []map[string]any{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	if err := postJSON(ctx, d.client, d.webhookURL, body, nil); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

func levelColor(l controversy.RiskLevel) int {
	switch l {
	case controversy.RiskDangerous:
		return 0xD7263D
	case controversy.RiskRisky:
		return 0xFF6600
	case controversy.RiskCaution:
		return 0xF4D35E
	}
	return 0x2E933C
}
