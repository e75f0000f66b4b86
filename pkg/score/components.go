package score

import (
	"math"
	"regexp"
	"time"
)

// lowEffortTemplates are formulaic openers the ranking model treats as filler.
var lowEffortTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(gm|gn)\b`),
	regexp.MustCompile(`(?i)\bunpopular opinion\b`),
	regexp.MustCompile(`(?i)\bday \d+ of\b`),
	regexp.MustCompile(`(?i)\bhot take\b`),
	regexp.MustCompile(`(?i)^\s*(just posted|new post|new video)\b`),
	regexp.MustCompile(`(?i)^\s*(thoughts\?|this\.?|this 👇)\s*$`),
	regexp.MustCompile(`(?i)^\s*who else\b`),
	regexp.MustCompile(`(?i)\blike if you agree\b`),
}

func isTemplate(text string) bool {
	for _, re := range lowEffortTemplates {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// 1. Content (0-Max): length band, thread and emoji bonuses, template penalty.
func (e *Engine) contentScore(in signals) float64 {
	w := e.weights.Content
	if in.features.Length == 0 {
		return 0
	}

	score := lengthPoints(w, in.features.Length)
	if in.isThread {
		score += w.ThreadBonus
	}
	if in.features.HasEmoji {
		score += w.EmojiBonus
	}
	if in.template {
		score -= w.TemplatePenalty
	}
	return clamp(score, 0, w.Max)
}

// lengthPoints walks the ordered band table; lengths past the last band get LongPostPoints.
func lengthPoints(w ContentWeights, length int) float64 {
	for _, band := range w.LengthBands {
		if length <= band.UpTo {
			return band.Points
		}
	}
	return w.LongPostPoints
}

// 2. Media (0-Max): fixed award by type, count ignored.
func (e *Engine) mediaScore(t MediaType) float64 {
	w := e.weights.Media
	var score float64
	switch t {
	case MediaVideo:
		score = w.Video
	case MediaImage:
		score = w.Image
	case MediaGIF:
		score = w.GIF
	case MediaPoll:
		score = w.Poll
	}
	return clamp(score, 0, w.Max)
}

// 3. Timing (Base-Max): peak window or shoulder hour plus weekday bonus,
// evaluated in the reference time zone.
func (e *Engine) timingScore(local time.Time) float64 {
	w := e.weights.Timing
	score := w.Base

	switch windowPosition(w.PeakWindows, local.Hour()) {
	case inPeak:
		score += w.PeakBonus
	case inShoulder:
		score += w.ShoulderBonus
	}

	switch local.Weekday() {
	case time.Tuesday, time.Wednesday, time.Thursday:
		score += w.PeakDayBonus
	case time.Monday, time.Friday:
		score += w.ShoulderDayBonus
	}

	return clamp(score, w.Base, w.Max)
}

type hourPosition int

const (
	offPeak hourPosition = iota
	inShoulder
	inPeak
)

func windowPosition(windows []HourWindow, hour int) hourPosition {
	pos := offPeak
	for _, win := range windows {
		if hour >= win.Start && hour < win.End {
			return inPeak
		}
		if hour == win.Start-1 || hour == win.End {
			pos = inShoulder
		}
	}
	return pos
}

// 4. Engagement (0-Max): additive reply drivers.
func (e *Engine) engagementScore(in signals) float64 {
	w := e.weights.Engagement
	var score float64
	if in.features.HasQuestion {
		score += w.QuestionBonus
	}
	if in.features.HasCallToAction {
		score += w.CTABonus
	}
	if in.quote {
		score += w.QuoteBonus
	}
	if in.isReply {
		score += w.ReplyBonus
	}
	return clamp(score, 0, w.Max)
}

// 5. Risk (penalty, 0-Budget): itemized here, clamped by the caller.
func (e *Engine) riskDetail(in signals) RiskDetail {
	w := e.weights.Risk
	f := in.features

	linkPenalty := w.LinkPenalty
	if in.premium {
		linkPenalty = w.PremiumLinkPenalty
	}

	return RiskDetail{
		Links:       float64(f.ExternalLinks) * linkPenalty,
		Hashtags:    float64(nonNegative(f.Hashtags-w.FreeHashtags)) * w.HashtagPenalty,
		Mentions:    float64(nonNegative(f.Mentions-w.FreeMentions)) * w.MentionPenalty,
		Template:    boolPoints(in.template, w.TemplatePenalty),
		Sentiment:   in.sentiment.penalty(w.SentimentMaxPenalty),
		Controversy: math.Min(float64(in.scan.TotalPenalty), e.weights.ControversyCap()),
	}
}

func boolPoints(ok bool, points float64) float64 {
	if ok {
		return points
	}
	return 0
}

// gradeBands is ordered from the highest lower bound down.
var gradeBands = []struct {
	min   int
	grade Grade
}{
	{90, GradeS},
	{80, GradeA},
	{65, GradeB},
	{50, GradeC},
	{35, GradeD},
}

// GradeFor maps an overall score to its letter grade.
func GradeFor(overall int) Grade {
	for _, b := range gradeBands {
		if overall >= b.min {
			return b.grade
		}
	}
	return GradeF
}
