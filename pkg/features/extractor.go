package features

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// TweetFeatures is the structured view of a draft's raw text.
type TweetFeatures struct {
	ExternalLinks   int  `json:"externalLinks"`
	Hashtags        int  `json:"hashtags"`
	Mentions        int  `json:"mentions"`
	HasQuestion     bool `json:"hasQuestion"`
	HasEmoji        bool `json:"hasEmoji"`
	HasCallToAction bool `json:"hasCallToAction"`
	IsThread        bool `json:"isThread"`
	Length          int  `json:"length"`
}

// PlatformHosts are the platform's own web, short-link and mobile hosts.
// Links to these never count as external.
var PlatformHosts = []string{
	"x.com",
	"twitter.com",
	"t.co",
	"mobile.twitter.com",
	"mobile.x.com",
}

// DefaultCallToActions is the phrase list used for call-to-action detection.
// It is compiled once at init; phrases only match on word boundaries.
var DefaultCallToActions = []string{
	"retweet if", "rt if", "like if", "follow for more", "follow me",
	"reply with", "comment below", "let me know", "share this",
	"tag someone", "drop a", "sign up", "subscribe", "link in bio",
	"click the link", "check out",
}

var (
	linkPattern     = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"]+|\bwww\.[^\s<>"]+`)
	hashtagPattern  = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_&/])#[\p{L}\p{N}_]+`)
	mentionPattern  = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_@.])@[\p{L}\p{N}_]+`)
	// Auxiliary openers (is, do, will...) start imperatives too, so only
	// wh-words count without a question mark.
	questionPattern = regexp.MustCompile(`(?im)^\s*(who|what|when|where|why|how|which)\b`)
	ctaPattern      = phrasePattern(DefaultCallToActions)
	threadPattern   = regexp.MustCompile(`(?i)🧵|👇|\bthread\b|(?:^|\s|\()1/(?:n\b|\d+|\s|$)`)
)

// Extract parses raw draft text into a TweetFeatures record.
// Blank text yields the zero value.
func Extract(text string) TweetFeatures {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return TweetFeatures{}
	}

	links := linkPattern.FindAllString(trimmed, -1)
	stripped := linkPattern.ReplaceAllString(trimmed, " ")
	lower := strings.ToLower(trimmed)

	return TweetFeatures{
		ExternalLinks:   countExternal(links),
		Hashtags:        len(hashtagPattern.FindAllString(stripped, -1)),
		Mentions:        len(mentionPattern.FindAllString(stripped, -1)),
		HasQuestion:     strings.Contains(stripped, "?") || questionPattern.MatchString(stripped),
		HasEmoji:        containsEmoji(trimmed),
		HasCallToAction: ctaPattern.MatchString(lower),
		IsThread:        threadPattern.MatchString(stripped),
		Length:          utf8.RuneCountInString(trimmed),
	}
}

// IsPlatformHost reports whether host belongs to the platform itself.
func IsPlatformHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, h := range PlatformHosts {
		if host == h {
			return true
		}
	}
	return false
}

func countExternal(links []string) int {
	n := 0
	for _, link := range links {
		if !IsPlatformHost(linkHost(link)) {
			n++
		}
	}
	return n
}

// linkHost extracts the host from a matched link, tolerating missing schemes
// and trailing punctuation.
func linkHost(link string) string {
	link = strings.TrimRight(link, ".,;:!?)]}'")
	if !strings.Contains(link, "://") {
		link = "http://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		// Fall back to everything between the scheme and the first slash.
		rest := link[strings.Index(link, "://")+3:]
		if i := strings.IndexAny(rest, "/?#"); i >= 0 {
			rest = rest[:i]
		}
		return rest
	}
	return u.Hostname()
}

func containsEmoji(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF:
			return true
		case r >= 0x2600 && r <= 0x27BF:
			return true
		case r >= 0x2B00 && r <= 0x2BFF:
			return true
		}
	}
	return false
}

// phrasePattern builds one case-insensitive, word-bounded alternation.
func phrasePattern(phrases []string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(p))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
