package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elonfeng/postgrade/internal/config"
	"github.com/elonfeng/postgrade/internal/logger"
	"github.com/elonfeng/postgrade/internal/scheduler"
	"github.com/elonfeng/postgrade/internal/store"
	"github.com/elonfeng/postgrade/pkg/alert"
	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/review"
	"github.com/elonfeng/postgrade/pkg/score"
	"github.com/elonfeng/postgrade/pkg/server"
	"github.com/elonfeng/postgrade/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func buildEngine(cfg *config.Config) *score.Engine {
	return score.NewEngine(cfg.Scoring)
}

func buildReviewer(cfg *config.Config, log *zap.Logger) review.Reviewer {
	if !cfg.Review.Enabled || cfg.Review.APIKey == "" {
		return nil
	}
	log.Info("ai review enabled",
		zap.String("provider", cfg.Review.Provider),
		zap.String("model", cfg.Review.Model))
	return review.NewLLM(cfg.Review.Provider, cfg.Review.Model, cfg.Review.APIKey, cfg.Review.BaseURL)
}

func buildSources(cfg *config.Config, log *zap.Logger) []source.Source {
	var sources []source.Source
	filter := source.NewFilter(cfg.Watch.Filter.Include, cfg.Watch.Filter.Exclude)

	if len(cfg.Watch.Feeds) > 0 {
		feeds := make([]source.FeedURL, len(cfg.Watch.Feeds))
		for i, f := range cfg.Watch.Feeds {
			feeds[i] = source.FeedURL{Name: f.Name, URL: f.URL}
		}
		sources = append(sources, source.NewFeed(feeds, filter, log))
	}
	if cfg.Watch.Nitter.Enabled && len(cfg.Watch.Nitter.Accounts) > 0 {
		sources = append(sources, source.NewNitter(cfg.Watch.Nitter.URL, cfg.Watch.Nitter.Accounts, filter, log))
	}

	return sources
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func buildScheduler(cfg *config.Config, db store.Store, log *zap.Logger) (*scheduler.Scheduler, error) {
	sources := buildSources(cfg, log)
	if len(sources) == 0 {
		return nil, errors.New("no watch sources configured (set watch.feeds or watch.nitter)")
	}
	return scheduler.New(db, sources, buildEngine(cfg), cfg.User, buildAlertManager(cfg),
		cfg.Watch.ParseInterval(), cfg.Alerts.MinLevel(), log), nil
}

// readText returns the positional text, or stdin when it is absent or "-".
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (f scoreFlags) draft(text string) (score.DraftTweet, error) {
	media := score.ParseMediaType(f.media)
	if media == score.MediaNone && f.media != "" && !strings.EqualFold(f.media, string(score.MediaNone)) {
		return score.DraftTweet{}, fmt.Errorf("unknown media type %q", f.media)
	}
	count := f.mediaCount
	if media != score.MediaNone && count == 0 {
		count = 1
	}

	d := score.NewDraft(text).WithMedia(media, count)
	if f.thread > 1 {
		d.IsThread = true
		d.ThreadLength = f.thread
	}
	d.IsReply = f.reply
	d.QuoteTweet = f.quote

	if f.at != "" {
		t, err := time.Parse(time.RFC3339, f.at)
		if err != nil {
			return score.DraftTweet{}, fmt.Errorf("parse --at: %w", err)
		}
		d.ScheduledAt = t
	}
	return d, nil
}

type scoreOutput struct {
	ID     string           `json:"id,omitempty"`
	Score  score.TweetScore `json:"score"`
	Review *review.Review   `json:"review,omitempty"`
}

func runScore(cmd *cobra.Command, args []string, f scoreFlags) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	text, err := readText(cmd, args)
	if err != nil {
		return err
	}
	draft, err := f.draft(text)
	if err != nil {
		return err
	}

	user := cfg.User
	if cmd.Flags().Changed("followers") {
		user.FollowerCount = f.followers
	}
	if cmd.Flags().Changed("premium") {
		user.IsPremium = f.premium
	}
	if cmd.Flags().Changed("verified") {
		user.IsVerified = f.verified
	}

	out := scoreOutput{Score: buildEngine(cfg).Score(draft, &user)}

	if f.save {
		db, err := store.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()

		row := store.NewScoredPost(store.SourceCLI, "", text, out.Score)
		if err := db.SaveScore(cmd.Context(), row); err != nil {
			return err
		}
		out.ID = row.ID
	}

	if f.ai {
		reviewer := buildReviewer(cfg, log)
		if reviewer == nil {
			return review.ErrNoReviewer
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()
		out.Review, err = reviewer.Review(ctx, text)
		if err != nil {
			return fmt.Errorf("ai review: %w", err)
		}
	}

	w := cmd.OutOrStdout()
	if f.jsonOutput {
		return writeJSON(w, out)
	}

	if err := printScore(w, out.Score); err != nil {
		return err
	}
	if out.Review != nil {
		printReview(w, out.Review)
	}
	if out.ID != "" {
		fmt.Fprintf(w, "\nsaved as %s\n", out.ID)
	}
	return nil
}

func printScore(w io.Writer, s score.TweetScore) error {
	fmt.Fprintf(w, "Score: %d/100 (%s)\n\n", s.Overall, s.Grade)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tPOINTS")
	fmt.Fprintf(tw, "content\t%.1f\n", s.Breakdown.Content)
	fmt.Fprintf(tw, "media\t%.1f\n", s.Breakdown.Media)
	fmt.Fprintf(tw, "timing\t%.1f\n", s.Breakdown.Timing)
	fmt.Fprintf(tw, "engagement\t%.1f\n", s.Breakdown.Engagement)
	fmt.Fprintf(tw, "risk\t-%.1f\n", s.Breakdown.Risk)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nControversy: %s (risk %.0f/100)\n", s.Controversy.RiskLevel, s.Controversy.RiskScore)
	printWarnings(w, s.Controversy.Warnings)

	r := s.PredictedReach
	fmt.Fprintf(w, "\nPredicted reach: %s to %s impressions (median %s, confidence %.0f%%)\n",
		humanize.Comma(int64(r.Low)), humanize.Comma(int64(r.High)),
		humanize.Comma(int64(r.Median)), r.Confidence*100)

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FACTOR\tWEIGHT\tVALUE\tOPTIMAL\tSTATUS")
	for _, f := range s.AlgorithmFactors {
		fmt.Fprintf(tw, "%s\t%+.0f\t%g\t%g..%g\t%s\n",
			f.Name, f.Weight, f.CurrentValue, f.OptimalRange.Min, f.OptimalRange.Max, f.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, sg := range s.Suggestions {
			fmt.Fprintf(w, "  - [%s] %s\n", sg.Impact, sg.Message)
			if sg.Action != "" {
				fmt.Fprintf(w, "      %s\n", sg.Action)
			}
		}
	}
	return nil
}

func printWarnings(w io.Writer, warnings []controversy.Warning) {
	for _, wn := range warnings {
		fmt.Fprintf(w, "  [%s] %s: %s\n", wn.Severity, wn.Category, wn.Message)
	}
}

func printReview(w io.Writer, r *review.Review) {
	fmt.Fprintf(w, "\nAI review (%s/%s): %s, %s\n", r.Provider, r.Model, r.Verdict, r.Tone)
	if r.Rewrite != "" {
		fmt.Fprintf(w, "  rewrite: %s\n", r.Rewrite)
	}
	for _, n := range r.Notes {
		fmt.Fprintf(w, "  - %s\n", n)
	}
}

func runScan(cmd *cobra.Command, args []string, jsonOutput bool) error {
	text, err := readText(cmd, args)
	if err != nil {
		return err
	}

	res := controversy.Scan(text)
	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, res)
	}

	fmt.Fprintf(w, "Controversy: %s (risk %.0f/100, penalty %d)\n", res.RiskLevel, res.RiskScore, res.TotalPenalty)
	if len(res.Warnings) == 0 {
		fmt.Fprintln(w, "no warnings")
		return nil
	}
	printWarnings(w, res.Warnings)
	return nil
}

type historyOpts struct {
	source string
	grade  string
	risk   string
	since  time.Duration
	limit  int
}

func runHistory(cmd *cobra.Command, o historyOpts, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts := store.ListOpts{
		Source:    o.source,
		Grade:     strings.ToUpper(o.grade),
		RiskLevel: strings.ToLower(o.risk),
		Limit:     o.limit,
	}
	if o.since > 0 {
		opts.Since = time.Now().Add(-o.since)
	}

	posts, err := db.ListScores(cmd.Context(), opts)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, posts)
	}

	if len(posts) == 0 {
		fmt.Fprintln(w, "no scored posts yet (try: postgrade score --save \"your draft\")")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORED\tGRADE\tSCORE\tRISK\tSOURCE\tTEXT")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			shortID(p.ID), humanize.Time(p.ScoredAt), p.Grade, p.Overall, p.RiskLevel, p.Source, oneLine(p.Text, 48))
	}
	return tw.Flush()
}

func runStats(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	st, err := db.Stats(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, st)
	}

	fmt.Fprintf(w, "%s scored posts, average %.1f\n\n", humanize.Comma(int64(st.Count)), st.AvgOverall)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GRADE\tCOUNT")
	for _, g := range []score.Grade{score.GradeS, score.GradeA, score.GradeB, score.GradeC, score.GradeD, score.GradeF} {
		fmt.Fprintf(tw, "%s\t%d\n", g, st.ByGrade[string(g)])
	}
	fmt.Fprintln(tw, "\nRISK\tCOUNT")
	for _, l := range []controversy.RiskLevel{controversy.RiskSafe, controversy.RiskCaution, controversy.RiskRisky, controversy.RiskDangerous} {
		fmt.Fprintf(tw, "%s\t%d\n", l, st.ByRiskLevel[string(l)])
	}
	return tw.Flush()
}

func runServe(port int) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return serve(ctx, cfg, db, port, log)
}

func runWatch(cmd *cobra.Command, once bool) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	sched, err := buildScheduler(cfg, db, log)
	if err != nil {
		return err
	}

	if once {
		sum := sched.RunOnce(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "collected %d, scored %d, skipped %d, alerted %d\n",
			sum.Collected, sum.Scored, sum.Skipped, sum.Alerted)
		return nil
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemon(port int) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Watching is optional for the daemon; the API is not.
	sched, err := buildScheduler(cfg, db, log)
	if err != nil {
		log.Warn("watcher disabled", zap.Error(err))
	} else {
		go func() {
			if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("scheduler error", zap.Error(err))
			}
		}()
	}

	return serve(ctx, cfg, db, port, log)
}

// serve runs the API until ctx is done.
func serve(ctx context.Context, cfg *config.Config, db store.Store, port int, log *zap.Logger) error {
	srv := server.New(server.Options{
		Store:    db,
		Engine:   buildEngine(cfg),
		Reviewer: buildReviewer(cfg, log),
		Port:     port,
		Persist:  cfg.Server.Persist,
		Logger:   log,
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	return srv.ListenAndServe()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func oneLine(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes-3]) + "..."
}
