package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/elonfeng/postgrade/internal/store"
	"github.com/elonfeng/postgrade/pkg/alert"
	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/score"
	"github.com/elonfeng/postgrade/pkg/source"
)

// Scheduler periodically collects posts from watched sources, scores the new
// ones, stores them and alerts on risky ones.
type Scheduler struct {
	store    store.Store
	sources  []source.Source
	engine   *score.Engine
	user     score.UserContext
	alertMgr *alert.Manager
	interval time.Duration
	minLevel controversy.RiskLevel
	log      *zap.Logger
}

// Summary counts what one pass did.
type Summary struct {
	Collected int
	Scored    int
	Skipped   int
	Alerted   int
	// Retried counts earlier alerts that failed and went out on this pass.
	// They are included in Alerted.
	Retried int
}

// retryBatch bounds how many pending alerts one pass re-sends.
const retryBatch = 50

// New creates a new scheduler.
func New(
	s store.Store,
	sources []source.Source,
	engine *score.Engine,
	user score.UserContext,
	alertMgr *alert.Manager,
	interval time.Duration,
	minLevel controversy.RiskLevel,
	log *zap.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if minLevel == "" {
		minLevel = controversy.RiskRisky
	}
	if alertMgr == nil {
		alertMgr = alert.NewManager(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		store:    s,
		sources:  sources,
		engine:   engine,
		user:     user,
		alertMgr: alertMgr,
		interval: interval,
		minLevel: minLevel,
		log:      log,
	}
}

// Run starts the watch loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("watch started", zap.Duration("interval", s.interval), zap.Int("sources", len(s.sources)))
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("watch stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single collect, score and alert pass.
func (s *Scheduler) RunOnce(ctx context.Context) Summary {
	var sum Summary
	s.retryPending(ctx, &sum)

	for _, src := range s.sources {
		posts, err := src.Collect(ctx)
		if err != nil {
			s.log.Warn("collect failed", zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		sum.Collected += len(posts)

		for _, p := range posts {
			if ctx.Err() != nil {
				return sum
			}
			s.handle(ctx, p, &sum)
		}
	}

	s.log.Info("watch pass done",
		zap.Int("collected", sum.Collected),
		zap.Int("scored", sum.Scored),
		zap.Int("skipped", sum.Skipped),
		zap.Int("alerted", sum.Alerted),
		zap.Int("retried", sum.Retried))
	return sum
}

// retryPending re-sends alerts for watched posts that crossed the threshold
// within the collect window but were never marked alerted.
func (s *Scheduler) retryPending(ctx context.Context, sum *Summary) {
	if !s.alertMgr.HasNotifiers() {
		return
	}

	var levels []string
	for _, l := range s.minLevel.AtLeast() {
		levels = append(levels, string(l))
	}
	pending, err := s.store.ListScores(ctx, store.ListOpts{
		RiskLevels:     levels,
		ExcludeSources: []string{store.SourceCLI, store.SourceAPI},
		Since:          time.Now().Add(-source.DefaultMaxAge),
		Unalerted:      true,
		Limit:          retryBatch,
	})
	if err != nil {
		s.log.Warn("list pending alerts failed", zap.Error(err))
		return
	}

	for i := range pending {
		if ctx.Err() != nil {
			return
		}
		row := &pending[i]
		if s.alert(ctx, row, notificationFor(row)) {
			sum.Alerted++
			sum.Retried++
		}
	}
}

func (s *Scheduler) handle(ctx context.Context, p source.Post, sum *Summary) {
	seen, err := s.store.Seen(ctx, p.Source, p.ExternalID)
	if err != nil {
		s.log.Warn("seen check failed", zap.String("source", p.Source), zap.Error(err))
		return
	}
	if seen {
		sum.Skipped++
		return
	}

	user := s.user
	result := s.engine.Score(DraftFromPost(p), &user)

	row := store.NewScoredPost(p.Source, p.ExternalID, p.Text, result)
	row.Author = p.Author
	row.URL = p.URL
	if err := s.store.SaveScore(ctx, row); err != nil {
		s.log.Warn("save score failed", zap.String("source", p.Source), zap.String("external_id", p.ExternalID), zap.Error(err))
		return
	}
	sum.Scored++

	s.log.Debug("scored post",
		zap.String("id", row.ID),
		zap.String("source", p.Source),
		zap.Int("overall", result.Overall),
		zap.String("grade", string(result.Grade)),
		zap.String("risk_level", string(result.Controversy.RiskLevel)))

	if result.Controversy.RiskLevel.Rank() < s.minLevel.Rank() || !s.alertMgr.HasNotifiers() {
		return
	}

	n := alert.NewNotification(row.ID, p.Source, p.Author, p.URL, p.Text, result)
	if s.alert(ctx, row, n) {
		sum.Alerted++
	}
}

// alert broadcasts n and marks the row so later passes leave it alone.
func (s *Scheduler) alert(ctx context.Context, row *store.ScoredPost, n *alert.Notification) bool {
	if err := s.alertMgr.Broadcast(ctx, n); err != nil {
		s.log.Warn("alert failed", zap.String("id", row.ID), zap.Error(err))
		return false
	}
	if err := s.store.MarkAlerted(ctx, row.ID); err != nil {
		s.log.Warn("mark alerted failed", zap.String("id", row.ID), zap.Error(err))
		return false
	}
	s.log.Info("alerted",
		zap.String("id", row.ID),
		zap.String("source", row.Source),
		zap.String("risk_level", row.RiskLevel))
	return true
}

// notificationFor rebuilds a notification from a stored row.
func notificationFor(row *store.ScoredPost) *alert.Notification {
	n := alert.NewNotification(row.ID, row.Source, row.Author, row.URL, row.Text, score.TweetScore{
		Overall: row.Overall,
		Grade:   score.Grade(row.Grade),
		Controversy: controversy.Result{
			Warnings:  row.Warnings,
			RiskScore: row.RiskScore,
			RiskLevel: controversy.RiskLevel(row.RiskLevel),
		},
	})
	n.ScoredAt = row.ScoredAt
	return n
}

// DraftFromPost maps a collected post onto a draft. Timing is scored at the
// time the post was actually published.
func DraftFromPost(p source.Post) score.DraftTweet {
	d := score.NewDraft(p.Text).WithMedia(score.ParseMediaType(p.MediaType), p.MediaCount)
	d.IsReply = p.IsReply
	d.ScheduledAt = p.PublishedAt
	return d
}
