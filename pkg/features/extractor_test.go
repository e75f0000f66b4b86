package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_MixedTweet(t *testing.T) {
	f := Extract("Check this out https://example.com #ai #ux @someone What do you think?")

	assert.Equal(t, 1, f.ExternalLinks)
	assert.Equal(t, 2, f.Hashtags)
	assert.Equal(t, 1, f.Mentions)
	assert.True(t, f.HasQuestion)
	assert.False(t, f.HasEmoji)
}

func TestExtract_PlatformLinksAreNotExternal(t *testing.T) {
	f := Extract("Links: https://x.com/foo https://twitter.com/bar https://t.co/xyz")
	assert.Equal(t, 0, f.ExternalLinks)

	f = Extract("mobile https://mobile.twitter.com/status/1 and www.twitter.com/home")
	assert.Equal(t, 0, f.ExternalLinks)
}

func TestExtract_ExternalLinks(t *testing.T) {
	f := Extract("read https://blog.example.org/post, then www.news.com and https://t.co/abc.")
	assert.Equal(t, 2, f.ExternalLinks)
}

func TestExtract_EmptyAndWhitespace(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		assert.Equal(t, TweetFeatures{}, Extract(text), "text %q", text)
	}
}

func TestExtract_Length(t *testing.T) {
	assert.Equal(t, 5, Extract("  hello  ").Length)
	// Runes, not bytes.
	assert.Equal(t, 3, Extract("héé").Length)
}

func TestExtract_DuplicateTagsCountSeparately(t *testing.T) {
	f := Extract("#go #go #go @dev @dev")
	assert.Equal(t, 3, f.Hashtags)
	assert.Equal(t, 2, f.Mentions)
}

func TestExtract_URLFragmentsAndEmailsIgnored(t *testing.T) {
	f := Extract("docs at https://example.com/page#section, mail me at me@example.com")
	assert.Equal(t, 0, f.Hashtags)
	assert.Equal(t, 0, f.Mentions)
}

func TestExtract_Question(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Is this the best editor?", true},
		{"Is this the best editor", false},
		{"How do you ship on Fridays", true},
		{"Do it now.", false},
		{"Will power matters.", false},
		{"ship it?", true},
		{"Shipping today.", false},
		{"This is great\nwhy did nobody tell me", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Extract(tt.text).HasQuestion, tt.text)
	}
}

func TestExtract_EmojiCTAThread(t *testing.T) {
	f := Extract("Big launch today 🚀 follow for more")
	assert.True(t, f.HasEmoji)
	assert.True(t, f.HasCallToAction)
	assert.False(t, f.IsThread)

	f = Extract("How we scaled to 1M users 🧵")
	assert.True(t, f.IsThread)

	f = Extract("1/ Lessons from a year of building")
	assert.True(t, f.IsThread)

	f = Extract("A thread on observability")
	assert.True(t, f.IsThread)
}

func TestExtract_CallToAction(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"RT if you agree", true},
		{"New video is up, subscribe!", true},
		{"Check out the changelog", true},
		{"Drop a 🔥 if you shipped today", true},
		{"Let me know.", true},
		{"I'll start if you do", false},
		{"I unsubscribed from that newsletter", false},
		{"Drop all the tables", false},
		{"Check outcomes before merging", false},
		{"The checkout flow is faster now", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Extract(tt.text).HasCallToAction, tt.text)
	}
}

func TestIsPlatformHost(t *testing.T) {
	assert.True(t, IsPlatformHost("X.com"))
	assert.True(t, IsPlatformHost("www.twitter.com"))
	assert.True(t, IsPlatformHost("t.co"))
	assert.False(t, IsPlatformHost("example.com"))
	assert.False(t, IsPlatformHost("notx.com"))
}
