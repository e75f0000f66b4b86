package score

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/features"
)

const goodText = "Spent the week rebuilding our onboarding flow from scratch. " +
	"Activation went from 31% to 48% after we cut two screens. Which step would you cut first?"

// wednesdayMorning is 09:00 in New York on a Wednesday.
var wednesdayMorning = time.Date(2026, 10, 14, 13, 0, 0, 0, time.UTC)

func fixedEngine(t *testing.T, w Weights) *Engine {
	t.Helper()
	return NewEngine(w, WithClock(func() time.Time { return wednesdayMorning }))
}

func TestScore_GoodDraft(t *testing.T) {
	e := fixedEngine(t, DefaultWeights())
	draft := NewDraft(goodText).WithMedia(MediaVideo, 1)

	s := e.Score(draft, nil)

	assert.Equal(t, 22.0, s.Breakdown.Content)
	assert.Equal(t, 20.0, s.Breakdown.Media)
	assert.Equal(t, 15.0, s.Breakdown.Timing)
	assert.Equal(t, 8.0, s.Breakdown.Engagement)
	assert.Equal(t, 0.0, s.Breakdown.Risk)
	assert.Equal(t, 81, s.Overall)
	assert.Equal(t, GradeA, s.Grade)
	assert.Empty(t, s.Controversy.Warnings)
	assert.Equal(t, controversy.RiskSafe, s.Controversy.RiskLevel)
}

func TestScore_EmptyText(t *testing.T) {
	s := fixedEngine(t, DefaultWeights()).Score(NewDraft(""), nil)

	assert.Equal(t, 0, s.Features.Length)
	assert.Equal(t, 0.0, s.Breakdown.Content)
	require.NotNil(t, s.Controversy.Warnings)
	assert.Empty(t, s.Controversy.Warnings)
	assert.GreaterOrEqual(t, s.Overall, 0)

	require.NotEmpty(t, s.Suggestions)
	assert.Equal(t, "content", s.Suggestions[0].Category)
	assert.Equal(t, ImpactHigh, s.Suggestions[0].Impact)
}

func TestScore_OverallInRangeAndGraded(t *testing.T) {
	e := fixedEngine(t, DefaultWeights())
	drafts := []DraftTweet{
		NewDraft(""),
		NewDraft("gm"),
		NewDraft(goodText).WithMedia(MediaVideo, 1),
		NewDraft("I will kill you, you worthless idiot https://a.com https://b.com #a #b #c #d @a @b @c @d @e"),
		NewDraft("Which tool do you use? Let me know 🧵 1/5").WithMedia(MediaImage, 2),
		{Text: "raw", MediaType: "hologram", HasMedia: true},
	}

	for _, d := range drafts {
		s := e.Score(d, nil)
		assert.GreaterOrEqual(t, s.Overall, 0, d.Text)
		assert.LessOrEqual(t, s.Overall, 100, d.Text)
		assert.Equal(t, GradeFor(s.Overall), s.Grade, d.Text)
		assert.LessOrEqual(t, s.Breakdown.Risk, 30.0, d.Text)
		assert.GreaterOrEqual(t, s.Breakdown.Risk, 0.0, d.Text)
	}
}

func TestScore_MixedEntityFeatures(t *testing.T) {
	s := Score(NewDraft("Check this out https://example.com #ai #ux @someone What do you think?"), nil)

	assert.Equal(t, 1, s.Features.ExternalLinks)
	assert.Equal(t, 2, s.Features.Hashtags)
	assert.Equal(t, 1, s.Features.Mentions)
	assert.True(t, s.Features.HasQuestion)
	assert.Equal(t, 10.0, s.RiskDetail.Links)
	assert.Equal(t, 0.0, s.RiskDetail.Hashtags)
}

func TestScore_PremiumLinksCostLess(t *testing.T) {
	e := fixedEngine(t, DefaultWeights())
	draft := NewDraft("New write-up on our cache design https://blog.example.com/cache")

	free := DefaultUserContext()
	premium := DefaultUserContext()
	premium.IsPremium = true

	fs := e.Score(draft, &free)
	ps := e.Score(draft, &premium)

	assert.Equal(t, 10.0, fs.RiskDetail.Links)
	assert.Equal(t, 4.0, ps.RiskDetail.Links)
	assert.Less(t, ps.Breakdown.Risk, fs.Breakdown.Risk)
	assert.GreaterOrEqual(t, ps.Overall, fs.Overall)
}

func TestScore_PlatformLinksAreFree(t *testing.T) {
	s := Score(NewDraft("Links: https://x.com/foo https://twitter.com/bar https://t.co/xyz"), nil)

	assert.Equal(t, 0, s.Features.ExternalLinks)
	assert.Equal(t, 0.0, s.RiskDetail.Links)
}

func TestScore_ControversyIsCapped(t *testing.T) {
	s := fixedEngine(t, DefaultWeights()).Score(NewDraft("I will kill you, you worthless idiot"), nil)

	assert.Equal(t, 32, s.Controversy.TotalPenalty)
	assert.Equal(t, controversy.RiskDangerous, s.Controversy.RiskLevel)
	assert.InDelta(t, 10.0, s.RiskDetail.Controversy, 1e-9)

	require.NotEmpty(t, s.Suggestions)
	top := s.Suggestions[0]
	assert.Equal(t, "controversy", top.Category)
	assert.Equal(t, SuggestionNegative, top.Type)
	assert.Equal(t, ImpactHigh, top.Impact)
}

func TestScore_RiskBudgetClamp(t *testing.T) {
	s := fixedEngine(t, DefaultWeights()).Score(
		NewDraft("a https://a.com b https://b.com c https://c.com d https://d.com"), nil)

	assert.Equal(t, 40.0, s.RiskDetail.Sum())
	assert.Equal(t, 30.0, s.Breakdown.Risk)
}

func TestScore_TemplateAndSentiment(t *testing.T) {
	e := fixedEngine(t, DefaultWeights())

	gm := e.Score(NewDraft("gm everyone"), nil)
	assert.Equal(t, 0.0, gm.Breakdown.Content)
	assert.Equal(t, 3.0, gm.RiskDetail.Template)

	sad := e.Score(NewDraft("This update is terrible and I hate it"), nil)
	assert.Equal(t, 4.0, sad.RiskDetail.Sentiment)
	assert.Empty(t, sad.Controversy.Warnings)
}

func TestScore_Idempotent(t *testing.T) {
	e := fixedEngine(t, DefaultWeights())
	draft := NewDraft("Unpopular opinion: tabs > spaces. Prove me wrong https://example.com #dev")
	user := UserContext{FollowerCount: 1200, IsVerified: true}

	first := e.Score(draft, &user)
	second := e.Score(draft, &user)

	assert.Equal(t, first, second)
}

func TestScore_UnscheduledDraftUsesEngineClock(t *testing.T) {
	// Sunday 03:00 in New York.
	sunday := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	weekday := fixedEngine(t, DefaultWeights())
	weekend := NewEngine(DefaultWeights(), WithClock(func() time.Time { return sunday }))

	draft := NewDraft("Shipped dark mode today. Which theme do you use?")
	assert.NotEqual(t, weekday.Score(draft, nil).Breakdown.Timing, weekend.Score(draft, nil).Breakdown.Timing)

	draft.ScheduledAt = wednesdayMorning
	assert.Equal(t, weekday.Score(draft, nil), weekend.Score(draft, nil))
}

func TestScore_ExtractsWhenFeaturesMissing(t *testing.T) {
	s := Score(DraftTweet{Text: "What do you think? #go"}, nil)

	assert.True(t, s.Features.HasQuestion)
	assert.Equal(t, 1, s.Features.Hashtags)
}

func TestScore_NegativeCountsClampToZero(t *testing.T) {
	draft := DraftTweet{
		Features: features.TweetFeatures{ExternalLinks: -3, Hashtags: -2, Mentions: -1, Length: -5},
	}
	s := fixedEngine(t, DefaultWeights()).Score(draft, nil)

	assert.Equal(t, features.TweetFeatures{}, s.Features)
	assert.Equal(t, 0.0, s.Breakdown.Content)
	assert.Equal(t, 0.0, s.Breakdown.Risk)
}

func TestScore_MediaOrdering(t *testing.T) {
	e := fixedEngine(t, DefaultWeights())
	media := func(m MediaType) float64 {
		return e.Score(NewDraft(goodText).WithMedia(m, 1), nil).Breakdown.Media
	}

	assert.Greater(t, media(MediaVideo), media(MediaImage))
	assert.Greater(t, media(MediaImage), media(MediaGIF))
	assert.Greater(t, media(MediaGIF), media(MediaPoll))
	assert.Greater(t, media(MediaPoll), media(MediaNone))
	assert.Equal(t, 0.0, media(MediaType("hologram")))
}

func TestScore_EngagementClamp(t *testing.T) {
	w := DefaultWeights()
	w.Engagement.Max = 10

	draft := NewDraft("Which one do you prefer? Let me know")
	draft.QuoteTweet = true
	draft.IsReply = true

	s := fixedEngine(t, w).Score(draft, nil)
	assert.Equal(t, 10.0, s.Breakdown.Engagement)

	s = fixedEngine(t, DefaultWeights()).Score(draft, nil)
	assert.Equal(t, 17.0, s.Breakdown.Engagement)
}

func TestScore_Timing(t *testing.T) {
	e := NewEngine(DefaultWeights())
	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"wednesday peak", time.Date(2026, 10, 14, 13, 0, 0, 0, time.UTC), 15},
		{"wednesday shoulder before window", time.Date(2026, 10, 14, 11, 0, 0, 0, time.UTC), 11},
		{"monday shoulder after window", time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC), 9},
		{"sunday night", time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC), 4},
		{"thursday evening crosses utc midnight", time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := NewDraft(goodText)
			draft.ScheduledAt = tt.at
			assert.Equal(t, tt.want, e.Score(draft, nil).Breakdown.Timing)
		})
	}
}

func TestScore_AlgorithmFactors(t *testing.T) {
	e := fixedEngine(t, DefaultWeights())

	clean := e.Score(NewDraft(goodText).WithMedia(MediaVideo, 1), nil)
	require.Len(t, clean.AlgorithmFactors, 9)

	names := make([]string, 0, len(clean.AlgorithmFactors))
	status := map[string]FactorStatus{}
	for _, f := range clean.AlgorithmFactors {
		names = append(names, f.Name)
		status[f.Name] = f.Status
	}
	assert.Equal(t, []string{
		"Reply Potential", "Native Media Boost", "External Link Penalty", "Hashtag Density",
		"Length Sweet Spot", "Posting Time", "Mention Density", "Negative Feedback Risk", "Premium Boost",
	}, names)
	assert.Equal(t, StatusOptimal, status["Reply Potential"])
	assert.Equal(t, StatusOptimal, status["Length Sweet Spot"])
	assert.Equal(t, StatusOptimal, status["External Link Penalty"])
	assert.Equal(t, StatusSuboptimal, status["Premium Boost"])

	linked := e.Score(NewDraft("Read it here https://example.com"), nil)
	for _, f := range linked.AlgorithmFactors {
		if f.Name == "External Link Penalty" {
			assert.Equal(t, StatusHarmful, f.Status)
			assert.Equal(t, 1.0, f.CurrentValue)
			assert.Negative(t, f.Weight)
		}
	}
}

func TestStatusFor(t *testing.T) {
	r := Range{Min: 2, Max: 4}
	assert.Equal(t, StatusOptimal, statusFor(AlgorithmFactor{Weight: -1, CurrentValue: 3, OptimalRange: r}))
	assert.Equal(t, StatusHarmful, statusFor(AlgorithmFactor{Weight: -1, CurrentValue: 5, OptimalRange: r}))
	assert.Equal(t, StatusSuboptimal, statusFor(AlgorithmFactor{Weight: -1, CurrentValue: 1, OptimalRange: r}))
	assert.Equal(t, StatusSuboptimal, statusFor(AlgorithmFactor{Weight: 1, CurrentValue: 5, OptimalRange: r}))
}

func TestSuggestions_SortedByImpact(t *testing.T) {
	s := fixedEngine(t, DefaultWeights()).Score(
		NewDraft("gm #a #b #c #d @a @b @c @d @e https://example.com"), nil)

	require.NotEmpty(t, s.Suggestions)
	for i := 1; i < len(s.Suggestions); i++ {
		assert.GreaterOrEqual(t, s.Suggestions[i-1].Impact.Weight(), s.Suggestions[i].Impact.Weight())
	}
}

func TestPredictReach_Monotonic(t *testing.T) {
	f := features.TweetFeatures{Length: 150}
	followers := []int{0, 99, 100, 1000, 50000}

	for _, n := range followers {
		uc := UserContext{FollowerCount: n}
		prev := predictReach(0, uc, true, f)
		for overall := 5; overall <= 100; overall += 5 {
			cur := predictReach(overall, uc, true, f)
			assert.GreaterOrEqual(t, cur.Low, prev.Low)
			assert.GreaterOrEqual(t, cur.Median, prev.Median)
			assert.GreaterOrEqual(t, cur.High, prev.High)
			assert.LessOrEqual(t, cur.Low, cur.Median)
			assert.LessOrEqual(t, cur.Median, cur.High)
			prev = cur
		}
	}

	small := predictReach(70, UserContext{FollowerCount: 100}, true, f)
	large := predictReach(70, UserContext{FollowerCount: 10000}, true, f)
	assert.Greater(t, large.Median, small.Median)

	plain := predictReach(70, UserContext{FollowerCount: 1000}, true, f)
	premium := predictReach(70, UserContext{FollowerCount: 1000, IsPremium: true}, true, f)
	assert.Greater(t, premium.Median, plain.Median)
}

func TestPredictReach_HugeAudienceStaysBounded(t *testing.T) {
	f := features.TweetFeatures{Length: 150}
	followers := []int{math.MaxInt / 4, math.MaxInt - 10, math.MaxInt}

	prev := predictReach(100, UserContext{FollowerCount: 1_000_000, IsPremium: true}, true, f)
	for _, n := range followers {
		r := predictReach(100, UserContext{FollowerCount: n, IsPremium: true}, true, f)
		assert.Positive(t, r.Low, "followers %d", n)
		assert.LessOrEqual(t, r.Low, r.Median)
		assert.LessOrEqual(t, r.Median, r.High)
		assert.LessOrEqual(t, r.High, math.MaxInt32)
		assert.GreaterOrEqual(t, r.Median, prev.Median)
		prev = r
	}

	s := NewEngine(DefaultWeights()).Score(NewDraft(goodText), &UserContext{FollowerCount: math.MaxInt})
	assert.Positive(t, s.PredictedReach.Median)
}

func TestPredictReach_Confidence(t *testing.T) {
	tests := []struct {
		name       string
		uc         UserContext
		hasContext bool
		length     int
		want       float64
	}{
		{"context, long text, real audience", UserContext{FollowerCount: 500}, true, 150, 0.8},
		{"no context", DefaultUserContext(), false, 150, 0.5},
		{"no context, short text", DefaultUserContext(), false, 10, 0.4},
		{"context, tiny audience", UserContext{FollowerCount: 50}, true, 150, 0.7},
		{"sparse everything", UserContext{FollowerCount: 0}, false, 0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := predictReach(60, tt.uc, tt.hasContext, features.TweetFeatures{Length: tt.length})
			assert.InDelta(t, tt.want, got.Confidence, 1e-9)
		})
	}
}

func TestNewEngine_ZeroWeightsFallBack(t *testing.T) {
	e := NewEngine(Weights{})
	assert.Equal(t, DefaultWeights(), e.Weights())
}

func TestGradeFor(t *testing.T) {
	tests := map[int]Grade{
		100: GradeS, 90: GradeS, 89: GradeA, 80: GradeA, 79: GradeB, 65: GradeB,
		64: GradeC, 50: GradeC, 49: GradeD, 35: GradeD, 34: GradeF, 0: GradeF,
	}
	for overall, want := range tests {
		assert.Equal(t, want, GradeFor(overall), "overall=%d", overall)
	}
}
