package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Slack posts Block Kit messages to an incoming webhook.
type Slack struct {
	client     *http.Client
	webhookURL string
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (s *Slack) Name() string { return "slack" }

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

func mrkdwn(format string, args ...any) slackText {
	return slackText{Type: "mrkdwn", Text: fmt.Sprintf(format, args...)}
}

// slackMessage lays out header, quoted post with grade and risk fields,
// warnings as context, then the link.
func slackMessage(n *Notification) []slackBlock {
	quoted := "> " + strings.ReplaceAll(truncate(n.Text, 280), "\n", "\n> ")
	post := mrkdwn("%s", quoted)

	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: n.Title()}},
		{
			Type: "section",
			Text: &post,
			Fields: []slackText{
				mrkdwn("*Grade*\n%s (%d/100)", n.Grade, n.Overall),
				mrkdwn("*Risk*\n%s (%.0f/100)", n.RiskLevel, n.RiskScore),
			},
		},
	}

	if len(n.Warnings) > 0 {
		ctx := slackBlock{Type: "context"}
		for _, w := range n.Warnings {
			ctx.Elements = append(ctx.Elements, mrkdwn("*%s* %s: %s", w.Severity, w.Category, w.Message))
		}
		blocks = append(blocks, ctx)
	}

	if n.URL != "" {
		link := mrkdwn("<%s|Open post>", n.URL)
		blocks = append(blocks, slackBlock{Type: "section", Text: &link})
	}
	return blocks
}

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(map[string]any{
		"text":   n.Title(),
		"blocks": slackMessage(n),
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	if err := postJSON(ctx, s.client, s.webhookURL, body, nil); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}
