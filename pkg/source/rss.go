package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// FeedURL is a named RSS/Atom feed.
type FeedURL struct {
	Name string
	URL  string
}

// Feed collects posts from RSS/Atom feeds, e.g. a drafts feed exported by a
// scheduling tool or a blog's short-post feed.
type Feed struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []FeedURL
	filter *Filter
	log    *zap.Logger
	maxAge time.Duration
	now    func() time.Time
}

// NewFeed creates a feed source. A nil filter scores everything.
func NewFeed(feeds []FeedURL, filter *Filter, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		filter: filter,
		log:    log,
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
}

func (r *Feed) Name() string { return "feed" }

// Collect reads every feed. A failing feed is logged and skipped.
func (r *Feed) Collect(ctx context.Context) ([]Post, error) {
	var all []Post

	for _, feed := range r.feeds {
		posts, err := r.collectFeed(ctx, feed)
		if err != nil {
			r.log.Warn("feed collect failed", zap.String("feed", feed.Name), zap.Error(err))
			continue
		}
		all = append(all, posts...)
	}

	return all, nil
}

func (r *Feed) collectFeed(ctx context.Context, feed FeedURL) ([]Post, error) {
	parsed, err := fetchFeed(ctx, r.client, r.parser, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
	}

	var posts []Post
	cutoff := r.now().Add(-r.maxAge)

	for _, entry := range parsed.Items {
		published := publishedAt(entry, r.now)
		if published.Before(cutoff) {
			continue
		}

		raw := entry.Content
		if raw == "" {
			raw = entry.Description
		}
		if raw == "" {
			raw = entry.Title
		}
		body := parseHTML(raw)
		if body.text == "" || !r.filter.Match(body.text) {
			continue
		}
		if body.mediaType == "" {
			body.mediaType, body.mediaCount = enclosureMedia(entry)
		}

		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}

		posts = append(posts, Post{
			Source:      feed.Name,
			ExternalID:  entryID(entry),
			Author:      author,
			URL:         entryLink(entry),
			Text:        body.text,
			MediaType:   body.mediaType,
			MediaCount:  body.mediaCount,
			PublishedAt: published,
		})
	}

	return posts, nil
}

// fetchFeed GETs and parses one feed URL.
func fetchFeed(ctx context.Context, client *http.Client, parser *gofeed.Parser, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "postgrade/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	parsed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return parsed, nil
}

func publishedAt(entry *gofeed.Item, now func() time.Time) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}
	return now().UTC()
}

func entryID(entry *gofeed.Item) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	return entryLink(entry)
}

func entryLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if len(entry.Links) > 0 {
		return entry.Links[0]
	}
	return ""
}
