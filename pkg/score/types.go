package score

import (
	"strings"
	"time"

	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/features"
)

// MediaType identifies the kind of media attached to a draft.
type MediaType string

const (
	MediaNone  MediaType = "none"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaGIF   MediaType = "gif"
	MediaPoll  MediaType = "poll"
)

// ParseMediaType maps free-form input to a MediaType. Unknown values map to MediaNone.
func ParseMediaType(s string) MediaType {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaImage:
		return MediaImage
	case MediaVideo:
		return MediaVideo
	case MediaGIF:
		return MediaGIF
	case MediaPoll:
		return MediaPoll
	}
	return MediaNone
}

// DraftTweet is the input record for one scoring call.
type DraftTweet struct {
	Text         string    `json:"text"`
	HasMedia     bool      `json:"hasMedia"`
	MediaType    MediaType `json:"mediaType"`
	MediaCount   int       `json:"mediaCount"`
	IsThread     bool      `json:"isThread"`
	ThreadLength int       `json:"threadLength"`
	IsReply      bool      `json:"isReply"`
	QuoteTweet   bool      `json:"quoteTweet"`

	// ScheduledAt is the intended publish time. Zero means "now".
	ScheduledAt time.Time `json:"scheduledAt,omitempty"`

	Features features.TweetFeatures `json:"features"`
}

// NewDraft builds a draft from raw text with extracted features merged in.
func NewDraft(text string) DraftTweet {
	f := features.Extract(text)
	return DraftTweet{
		Text:         text,
		MediaType:    MediaNone,
		IsThread:     f.IsThread,
		ThreadLength: 1,
		Features:     f,
	}
}

// WithMedia returns a copy of the draft carrying the given media.
func (d DraftTweet) WithMedia(t MediaType, count int) DraftTweet {
	d.MediaType = t
	d.MediaCount = count
	d.HasMedia = t != MediaNone && count > 0
	return d
}

// UserContext describes the posting account.
type UserContext struct {
	FollowerCount       int     `json:"followerCount" yaml:"follower_count"`
	FollowingCount      int     `json:"followingCount" yaml:"following_count"`
	IsVerified          bool    `json:"isVerified" yaml:"is_verified"`
	IsPremium           bool    `json:"isPremium" yaml:"is_premium"`
	AccountAgeMonths    int     `json:"accountAgeMonths" yaml:"account_age_months"`
	AvgEngagementRate   float64 `json:"avgEngagementRate" yaml:"avg_engagement_rate"`
	RecentPostFrequency float64 `json:"recentPostFrequency" yaml:"recent_post_frequency"`
}

// DefaultUserContext approximates a typical non-premium account.
func DefaultUserContext() UserContext {
	return UserContext{
		FollowerCount:       500,
		FollowingCount:      300,
		AccountAgeMonths:    24,
		AvgEngagementRate:   0.02,
		RecentPostFrequency: 3,
	}
}

// Breakdown holds the five component scores. Risk is a non-negative penalty.
type Breakdown struct {
	Content    float64 `json:"content"`
	Media      float64 `json:"media"`
	Timing     float64 `json:"timing"`
	Engagement float64 `json:"engagement"`
	Risk       float64 `json:"risk"`
}

// RiskDetail itemizes the risk penalty before the budget clamp.
type RiskDetail struct {
	Links       float64 `json:"links"`
	Hashtags    float64 `json:"hashtags"`
	Mentions    float64 `json:"mentions"`
	Template    float64 `json:"template"`
	Sentiment   float64 `json:"sentiment"`
	Controversy float64 `json:"controversy"`
}

// Sum returns the unclamped total.
func (r RiskDetail) Sum() float64 {
	return r.Links + r.Hashtags + r.Mentions + r.Template + r.Sentiment + r.Controversy
}

// Grade is the letter grade of an overall score.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// SuggestionType is the tone of a suggestion.
type SuggestionType string

const (
	SuggestionPositive SuggestionType = "positive"
	SuggestionNegative SuggestionType = "negative"
	SuggestionNeutral  SuggestionType = "neutral"
)

// Impact ranks suggestions for display.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Weight is the display priority of the impact tier.
func (i Impact) Weight() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	}
	return 0
}

// Suggestion is one actionable hint.
type Suggestion struct {
	Type     SuggestionType `json:"type"`
	Category string         `json:"category"`
	Message  string         `json:"message"`
	Action   string         `json:"action,omitempty"`
	Impact   Impact         `json:"impact"`
}

// PredictedReach is an impression estimate.
type PredictedReach struct {
	Low        int     `json:"low"`
	Median     int     `json:"median"`
	High       int     `json:"high"`
	Confidence float64 `json:"confidence"`
}

// FactorStatus compares a factor's value against its optimal range.
type FactorStatus string

const (
	StatusOptimal    FactorStatus = "optimal"
	StatusSuboptimal FactorStatus = "suboptimal"
	StatusHarmful    FactorStatus = "harmful"
)

// Range is an inclusive numeric range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// AlgorithmFactor explains one ranking dimension.
type AlgorithmFactor struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Weight       float64      `json:"weight"`
	CurrentValue float64      `json:"currentValue"`
	OptimalRange Range        `json:"optimalRange"`
	Status       FactorStatus `json:"status"`
}

// TweetScore is the engine's output for one draft.
type TweetScore struct {
	Overall          int                    `json:"overall"`
	Grade            Grade                  `json:"grade"`
	Breakdown        Breakdown              `json:"breakdown"`
	Suggestions      []Suggestion           `json:"suggestions"`
	PredictedReach   PredictedReach         `json:"predictedReach"`
	AlgorithmFactors []AlgorithmFactor      `json:"algorithmFactors"`
	Features         features.TweetFeatures `json:"features"`
	Controversy      controversy.Result     `json:"controversy"`
	RiskDetail       RiskDetail             `json:"riskDetail"`
}
