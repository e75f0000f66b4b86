package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/postgrade/internal/store"
	"github.com/elonfeng/postgrade/pkg/alert"
	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/score"
	"github.com/elonfeng/postgrade/pkg/source"
)

type staticSource struct {
	name  string
	posts []source.Post
	err   error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Collect(context.Context) ([]source.Post, error) {
	return s.posts, s.err
}

type recorder struct {
	mu   sync.Mutex
	sent []*alert.Notification
	err  error
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Send(_ context.Context, n *alert.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

var published = time.Date(2026, 10, 14, 13, 0, 0, 0, time.UTC)

func fixture(t *testing.T) (*store.SQLiteStore, []source.Source) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "watch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	posts := []source.Post{
		{Source: "@dev", ExternalID: "1", Text: "Shipped dark mode today. Which theme do you use?", PublishedAt: published, MediaType: "image", MediaCount: 1},
		{Source: "@dev", ExternalID: "2", Text: "I will kill you, you worthless idiot", PublishedAt: published, IsReply: true},
	}
	return st, []source.Source{
		staticSource{name: "nitter", posts: posts},
		staticSource{name: "broken", err: errors.New("offline")},
	}
}

func TestRunOnce_ScoresStoresAndAlerts(t *testing.T) {
	st, sources := fixture(t)
	rec := &recorder{}
	s := New(st, sources, score.NewEngine(score.DefaultWeights()), score.DefaultUserContext(),
		alert.NewManager([]alert.Notifier{rec}), time.Minute, controversy.RiskRisky, nil)

	sum := s.RunOnce(context.Background())
	assert.Equal(t, Summary{Collected: 2, Scored: 2, Alerted: 1}, sum)

	require.Len(t, rec.sent, 1)
	assert.Equal(t, controversy.RiskDangerous, rec.sent[0].RiskLevel)
	assert.Equal(t, "@dev", rec.sent[0].Source)

	posts, err := st.ListScores(context.Background(), store.ListOpts{Source: "@dev"})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	alerted := map[string]bool{}
	for _, p := range posts {
		alerted[p.ExternalID] = p.Alerted
	}
	assert.Equal(t, map[string]bool{"1": false, "2": true}, alerted)

	// A second pass sees nothing new.
	again := s.RunOnce(context.Background())
	assert.Equal(t, Summary{Collected: 2, Skipped: 2}, again)
	assert.Len(t, rec.sent, 1)
}

func TestRunOnce_FailedAlertIsNotMarked(t *testing.T) {
	st, sources := fixture(t)
	rec := &recorder{err: errors.New("slack down")}
	s := New(st, sources, score.NewEngine(score.DefaultWeights()), score.DefaultUserContext(),
		alert.NewManager([]alert.Notifier{rec}), time.Minute, controversy.RiskCaution, nil)

	sum := s.RunOnce(context.Background())
	assert.Equal(t, 2, sum.Scored)
	assert.Equal(t, 0, sum.Alerted)

	unalerted, err := st.ListScores(context.Background(), store.ListOpts{Unalerted: true})
	require.NoError(t, err)
	assert.Len(t, unalerted, 2)
}

func TestRunOnce_RetriesFailedAlert(t *testing.T) {
	st, sources := fixture(t)
	rec := &recorder{err: errors.New("slack down")}
	s := New(st, sources, score.NewEngine(score.DefaultWeights()), score.DefaultUserContext(),
		alert.NewManager([]alert.Notifier{rec}), time.Minute, controversy.RiskCaution, nil)

	first := s.RunOnce(context.Background())
	assert.Equal(t, Summary{Collected: 2, Scored: 2}, first)

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	second := s.RunOnce(context.Background())
	assert.Equal(t, Summary{Collected: 2, Skipped: 2, Alerted: 1, Retried: 1}, second)

	require.Len(t, rec.sent, 1)
	n := rec.sent[0]
	assert.Equal(t, controversy.RiskDangerous, n.RiskLevel)
	assert.Equal(t, "I will kill you, you worthless idiot", n.Text)
	assert.NotEmpty(t, n.Warnings)
	assert.LessOrEqual(t, len(n.Warnings), 3)

	// Once delivered it is not sent again.
	third := s.RunOnce(context.Background())
	assert.Equal(t, Summary{Collected: 2, Skipped: 2}, third)
	assert.Len(t, rec.sent, 1)
}

func TestRun_StopsOnCancel(t *testing.T) {
	st, sources := fixture(t)
	s := New(st, sources, score.NewEngine(score.DefaultWeights()), score.DefaultUserContext(), nil, time.Hour, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		posts, err := st.ListScores(context.Background(), store.ListOpts{})
		return err == nil && len(posts) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestDraftFromPost(t *testing.T) {
	d := DraftFromPost(source.Post{
		Text:        "What do you think? 🧵",
		MediaType:   "video",
		MediaCount:  1,
		IsReply:     true,
		PublishedAt: published,
	})

	assert.Equal(t, score.MediaVideo, d.MediaType)
	assert.True(t, d.HasMedia)
	assert.True(t, d.IsReply)
	assert.True(t, d.IsThread)
	assert.True(t, d.Features.HasQuestion)
	assert.Equal(t, published, d.ScheduledAt)
}
