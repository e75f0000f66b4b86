package source

import (
	"context"
	"time"
)

// DefaultMaxAge bounds how far back a collect pass looks.
const DefaultMaxAge = 24 * time.Hour

// Media types a post can carry, matching score.MediaType values.
const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaGIF   = "gif"
)

// Post is one piece of text pulled from a watched source, ready to be scored.
type Post struct {
	Source      string    `json:"source"`
	ExternalID  string    `json:"external_id"`
	Author      string    `json:"author,omitempty"`
	URL         string    `json:"url,omitempty"`
	Text        string    `json:"text"`
	MediaType   string    `json:"media_type,omitempty"`
	MediaCount  int       `json:"media_count,omitempty"`
	IsReply     bool      `json:"is_reply,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Source is the interface every watched source implements.
type Source interface {
	Name() string
	Collect(ctx context.Context) ([]Post, error)
}
