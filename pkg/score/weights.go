package score

// Weights holds every tunable constant of the engine. It is passed to
// NewEngine explicitly so callers can vary it without global side effects.
type Weights struct {
	Content    ContentWeights    `yaml:"content" json:"content"`
	Media      MediaWeights      `yaml:"media" json:"media"`
	Timing     TimingWeights     `yaml:"timing" json:"timing"`
	Engagement EngagementWeights `yaml:"engagement" json:"engagement"`
	Risk       RiskWeights       `yaml:"risk" json:"risk"`
}

// LengthBand awards Points to lengths up to and including UpTo.
type LengthBand struct {
	UpTo   int     `yaml:"up_to" json:"upTo"`
	Points float64 `yaml:"points" json:"points"`
}

// ContentWeights configures the content component.
type ContentWeights struct {
	Max             float64      `yaml:"max" json:"max"`
	SweetSpotMin    int          `yaml:"sweet_spot_min" json:"sweetSpotMin"`
	SweetSpotMax    int          `yaml:"sweet_spot_max" json:"sweetSpotMax"`
	LengthBands     []LengthBand `yaml:"length_bands" json:"lengthBands"`
	LongPostPoints  float64      `yaml:"long_post_points" json:"longPostPoints"`
	ThreadBonus     float64      `yaml:"thread_bonus" json:"threadBonus"`
	EmojiBonus      float64      `yaml:"emoji_bonus" json:"emojiBonus"`
	TemplatePenalty float64      `yaml:"template_penalty" json:"templatePenalty"`
}

// MediaWeights configures the fixed per-type media award.
type MediaWeights struct {
	Max   float64 `yaml:"max" json:"max"`
	Video float64 `yaml:"video" json:"video"`
	Image float64 `yaml:"image" json:"image"`
	GIF   float64 `yaml:"gif" json:"gif"`
	Poll  float64 `yaml:"poll" json:"poll"`
}

// HourWindow is a [Start, End) range of local hours.
type HourWindow struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// TimingWeights configures the timing component.
type TimingWeights struct {
	Max              float64      `yaml:"max" json:"max"`
	Base             float64      `yaml:"base" json:"base"`
	TimeZone         string       `yaml:"time_zone" json:"timeZone"`
	PeakWindows      []HourWindow `yaml:"peak_windows" json:"peakWindows"`
	PeakBonus        float64      `yaml:"peak_bonus" json:"peakBonus"`
	ShoulderBonus    float64      `yaml:"shoulder_bonus" json:"shoulderBonus"`
	PeakDayBonus     float64      `yaml:"peak_day_bonus" json:"peakDayBonus"`
	ShoulderDayBonus float64      `yaml:"shoulder_day_bonus" json:"shoulderDayBonus"`
}

// EngagementWeights configures the engagement component.
type EngagementWeights struct {
	Max           float64 `yaml:"max" json:"max"`
	QuestionBonus float64 `yaml:"question_bonus" json:"questionBonus"`
	CTABonus      float64 `yaml:"cta_bonus" json:"ctaBonus"`
	QuoteBonus    float64 `yaml:"quote_bonus" json:"quoteBonus"`
	ReplyBonus    float64 `yaml:"reply_bonus" json:"replyBonus"`
}

// RiskWeights configures the risk penalty.
type RiskWeights struct {
	Budget              float64 `yaml:"budget" json:"budget"`
	LinkPenalty         float64 `yaml:"link_penalty" json:"linkPenalty"`
	PremiumLinkPenalty  float64 `yaml:"premium_link_penalty" json:"premiumLinkPenalty"`
	FreeHashtags        int     `yaml:"free_hashtags" json:"freeHashtags"`
	HashtagPenalty      float64 `yaml:"hashtag_penalty" json:"hashtagPenalty"`
	FreeMentions        int     `yaml:"free_mentions" json:"freeMentions"`
	MentionPenalty      float64 `yaml:"mention_penalty" json:"mentionPenalty"`
	TemplatePenalty     float64 `yaml:"template_penalty" json:"templatePenalty"`
	SentimentMaxPenalty float64 `yaml:"sentiment_max_penalty" json:"sentimentMaxPenalty"`
	// ControversyShare is the fraction of Budget the scanner may consume.
	ControversyShare float64 `yaml:"controversy_share" json:"controversyShare"`
}

// DefaultWeights returns the calibrated defaults.
func DefaultWeights() Weights {
	return Weights{
		Content: ContentWeights{
			Max:          25,
			SweetSpotMin: 120,
			SweetSpotMax: 240,
			LengthBands: []LengthBand{
				{UpTo: 0, Points: 0},
				{UpTo: 49, Points: 6},
				{UpTo: 119, Points: 14},
				{UpTo: 240, Points: 22},
				{UpTo: 280, Points: 16},
			},
			LongPostPoints:  12,
			ThreadBonus:     3,
			EmojiBonus:      2,
			TemplatePenalty: 6,
		},
		Media: MediaWeights{
			Max:   20,
			Video: 20,
			Image: 15,
			GIF:   12,
			Poll:  10,
		},
		Timing: TimingWeights{
			Max:      15,
			Base:     4,
			TimeZone: "America/New_York",
			PeakWindows: []HourWindow{
				{Start: 8, End: 11},
				{Start: 17, End: 21},
			},
			PeakBonus:        8,
			ShoulderBonus:    4,
			PeakDayBonus:     3,
			ShoulderDayBonus: 1,
		},
		Engagement: EngagementWeights{
			Max:           20,
			QuestionBonus: 8,
			CTABonus:      4,
			QuoteBonus:    3,
			ReplyBonus:    2,
		},
		Risk: RiskWeights{
			Budget:              30,
			LinkPenalty:         10,
			PremiumLinkPenalty:  4,
			FreeHashtags:        2,
			HashtagPenalty:      3,
			FreeMentions:        3,
			MentionPenalty:      2,
			TemplatePenalty:     3,
			SentimentMaxPenalty: 5,
			ControversyShare:    1.0 / 3.0,
		},
	}
}

// MaxPositive is the sum of the four additive component maxima.
func (w Weights) MaxPositive() float64 {
	return w.Content.Max + w.Media.Max + w.Timing.Max + w.Engagement.Max
}

// ControversyCap is the most the scanner may contribute to the risk penalty.
func (w Weights) ControversyCap() float64 {
	return w.Risk.Budget * w.Risk.ControversyShare
}
