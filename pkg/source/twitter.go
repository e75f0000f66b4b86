package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Nitter collects an account's recent posts via a Nitter instance's RSS feed.
type Nitter struct {
	client    *http.Client
	parser    *gofeed.Parser
	nitterURL string
	accounts  []string
	filter    *Filter
	log       *zap.Logger
	maxAge    time.Duration
	now       func() time.Time
}

// NewNitter creates a Nitter source for the given accounts.
func NewNitter(nitterURL string, accounts []string, filter *Filter, log *zap.Logger) *Nitter {
	if nitterURL == "" {
		nitterURL = "https://nitter.net"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Nitter{
		client:    &http.Client{Timeout: 30 * time.Second},
		parser:    gofeed.NewParser(),
		nitterURL: strings.TrimRight(nitterURL, "/"),
		accounts:  accounts,
		filter:    filter,
		log:       log,
		maxAge:    DefaultMaxAge,
		now:       time.Now,
	}
}

func (t *Nitter) Name() string { return "nitter" }

// Collect reads every account. A failing account is logged and skipped.
func (t *Nitter) Collect(ctx context.Context) ([]Post, error) {
	var all []Post

	for _, account := range t.accounts {
		posts, err := t.collectAccount(ctx, strings.TrimPrefix(account, "@"))
		if err != nil {
			t.log.Warn("nitter collect failed", zap.String("account", account), zap.Error(err))
			continue
		}
		all = append(all, posts...)
	}

	return all, nil
}

func (t *Nitter) collectAccount(ctx context.Context, account string) ([]Post, error) {
	feed, err := fetchFeed(ctx, t.client, t.parser, fmt.Sprintf("%s/%s/rss", t.nitterURL, account))
	if err != nil {
		return nil, fmt.Errorf("nitter @%s: %w", account, err)
	}

	var posts []Post
	cutoff := t.now().Add(-t.maxAge)

	for _, entry := range feed.Items {
		published := publishedAt(entry, t.now)
		if published.Before(cutoff) {
			continue
		}

		// Retweets are someone else's writing.
		if strings.HasPrefix(entry.Title, "RT by ") {
			continue
		}

		text, isReply := stripReplyPrefix(entry.Title)
		body := parseHTML(entry.Description)
		if text == "" {
			text = body.text
		}
		if text == "" || !t.filter.Match(text) {
			continue
		}

		posts = append(posts, Post{
			Source:      "@" + account,
			ExternalID:  entryID(entry),
			Author:      account,
			URL:         strings.Replace(entryLink(entry), t.nitterURL, "https://x.com", 1),
			Text:        text,
			MediaType:   body.mediaType,
			MediaCount:  body.mediaCount,
			IsReply:     isReply,
			PublishedAt: published,
		})
	}

	return posts, nil
}

// stripReplyPrefix removes Nitter's "R to @user: " title prefix.
func stripReplyPrefix(title string) (string, bool) {
	title = collapseSpace(title)
	if !strings.HasPrefix(title, "R to @") {
		return title, false
	}
	if i := strings.Index(title, ": "); i >= 0 {
		return title[i+2:], true
	}
	return title, true
}
