package score

import (
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/features"
)

// Engine scores drafts. It holds only immutable configuration, so a single
// Engine may be shared across goroutines.
type Engine struct {
	weights Weights
	scanner *controversy.Scanner
	loc     *time.Location
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the clock used when a draft has no ScheduledAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithScanner replaces the default controversy scanner.
func WithScanner(s *controversy.Scanner) Option {
	return func(e *Engine) { e.scanner = s }
}

// NewEngine creates a scoring engine. Zero-valued weights fall back to DefaultWeights.
func NewEngine(w Weights, opts ...Option) *Engine {
	if w.MaxPositive() == 0 {
		w = DefaultWeights()
	}
	e := &Engine{
		weights: w,
		scanner: controversy.MustNewScanner(controversy.DefaultTables),
		loc:     loadLocation(w.Timing.TimeZone),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the engine's configuration.
func (e *Engine) Weights() Weights { return e.weights }

var defaultEngine = NewEngine(DefaultWeights())

// Score scores a draft with the default weights. A draft without ScheduledAt
// is timed against the wall clock, so its timing component can change between
// calls; set ScheduledAt when the result must be reproducible.
func Score(tweet DraftTweet, user *UserContext) TweetScore {
	return defaultEngine.Score(tweet, user)
}

// Score computes the full score record for one draft. A nil user falls back
// to DefaultUserContext and lowers the reach confidence. A zero ScheduledAt
// reads the engine clock (time.Now unless WithClock is given), so output is
// deterministic only when ScheduledAt is set or the clock is fixed.
func (e *Engine) Score(tweet DraftTweet, user *UserContext) TweetScore {
	hasContext := user != nil
	uc := DefaultUserContext()
	if hasContext {
		uc = sanitizeUser(*user)
	}

	f := tweet.Features
	if f == (features.TweetFeatures{}) && strings.TrimSpace(tweet.Text) != "" {
		f = features.Extract(tweet.Text)
	}
	f = sanitizeFeatures(f)

	in := signals{
		features:  f,
		isThread:  tweet.IsThread || f.IsThread,
		isReply:   tweet.IsReply,
		quote:     tweet.QuoteTweet,
		media:     mediaOf(tweet),
		template:  isTemplate(tweet.Text),
		sentiment: analyzeSentiment(tweet.Text),
		scan:      e.scanner.Scan(tweet.Text),
		at:        tweet.ScheduledAt,
		premium:   uc.IsPremium,
	}
	if in.at.IsZero() {
		in.at = e.now()
	}
	in.local = in.at.In(e.loc)

	risk := e.riskDetail(in)
	b := Breakdown{
		Content:    e.contentScore(in),
		Media:      e.mediaScore(in.media),
		Timing:     e.timingScore(in.local),
		Engagement: e.engagementScore(in),
		Risk:       clamp(risk.Sum(), 0, e.weights.Risk.Budget),
	}

	overall := e.overall(b)

	return TweetScore{
		Overall:          overall,
		Grade:            GradeFor(overall),
		Breakdown:        b,
		Suggestions:      e.suggestions(in, b, risk),
		PredictedReach:   predictReach(overall, uc, hasContext, f),
		AlgorithmFactors: e.algorithmFactors(in, b),
		Features:         f,
		Controversy:      in.scan,
		RiskDetail:       risk,
	}
}

// signals is the per-call working set shared by the component scorers.
type signals struct {
	features  features.TweetFeatures
	isThread  bool
	isReply   bool
	quote     bool
	media     MediaType
	template  bool
	sentiment sentiment
	scan      controversy.Result
	at        time.Time
	local     time.Time
	premium   bool
}

// overall normalizes the net component sum to 0-100.
func (e *Engine) overall(b Breakdown) int {
	maxPositive := e.weights.MaxPositive()
	if maxPositive <= 0 {
		return 0
	}
	raw := b.Content + b.Media + b.Timing + b.Engagement - b.Risk
	return int(clamp(math.Round(raw/maxPositive*100), 0, 100))
}

// mediaOf resolves the effective media type. A draft flagged HasMedia with
// no known type scores as no media.
func mediaOf(t DraftTweet) MediaType {
	return ParseMediaType(string(t.MediaType))
}

func sanitizeFeatures(f features.TweetFeatures) features.TweetFeatures {
	f.ExternalLinks = nonNegative(f.ExternalLinks)
	f.Hashtags = nonNegative(f.Hashtags)
	f.Mentions = nonNegative(f.Mentions)
	f.Length = nonNegative(f.Length)
	return f
}

func sanitizeUser(u UserContext) UserContext {
	u.FollowerCount = nonNegative(u.FollowerCount)
	u.FollowingCount = nonNegative(u.FollowingCount)
	u.AccountAgeMonths = nonNegative(u.AccountAgeMonths)
	u.AvgEngagementRate = math.Max(0, u.AvgEngagementRate)
	u.RecentPostFrequency = math.Max(0, u.RecentPostFrequency)
	return u
}

func loadLocation(name string) *time.Location {
	if name == "" {
		name = "America/New_York"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
