package score

// Relative signal weights shown alongside each factor. Positive values are
// boosts, negative values are penalties. They describe the ranking model and
// do not feed back into the score.
const (
	replyWeight            = 13.5
	mediaWeight            = 2.0
	hashtagWeight          = -3.0
	lengthWeight           = 1.0
	timeWeight             = 1.5
	mentionWeight          = -2.0
	negativeFeedbackWeight = -74.0
	premiumWeight          = 1.3
)

// quietRiskScore is the highest controversy risk score that still reads as clean.
const quietRiskScore = 5

func (e *Engine) algorithmFactors(in signals, b Breakdown) []AlgorithmFactor {
	w := e.weights
	f := in.features

	linkW := -w.Risk.LinkPenalty
	if in.premium {
		linkW = -w.Risk.PremiumLinkPenalty
	}

	factors := []AlgorithmFactor{
		{
			Name:         "Reply Potential",
			Description:  "Replies are the strongest positive ranking signal",
			Weight:       replyWeight,
			CurrentValue: b.Engagement,
			OptimalRange: Range{Min: w.Engagement.QuestionBonus, Max: w.Engagement.Max},
		},
		{
			Name:         "Native Media Boost",
			Description:  "Native images and video hold attention in the feed",
			Weight:       mediaWeight,
			CurrentValue: b.Media,
			OptimalRange: Range{Min: w.Media.Image, Max: w.Media.Max},
		},
		{
			Name:         "External Link Penalty",
			Description:  "Links that leave the platform are deprioritized",
			Weight:       linkW,
			CurrentValue: float64(f.ExternalLinks),
			OptimalRange: Range{Min: 0, Max: 0},
		},
		{
			Name:         "Hashtag Density",
			Description:  "More than a couple of hashtags reads as spam",
			Weight:       hashtagWeight,
			CurrentValue: float64(f.Hashtags),
			OptimalRange: Range{Min: 0, Max: float64(w.Risk.FreeHashtags)},
		},
		{
			Name:         "Length Sweet Spot",
			Description:  "Mid-length posts earn the most dwell time",
			Weight:       lengthWeight,
			CurrentValue: float64(f.Length),
			OptimalRange: Range{Min: float64(w.Content.SweetSpotMin), Max: float64(w.Content.SweetSpotMax)},
		},
		{
			Name:         "Posting Time",
			Description:  "Early engagement velocity depends on when the audience is online",
			Weight:       timeWeight,
			CurrentValue: b.Timing,
			OptimalRange: Range{Min: w.Timing.Base + w.Timing.PeakBonus, Max: w.Timing.Max},
		},
		{
			Name:         "Mention Density",
			Description:  "Mass tagging is treated as spam",
			Weight:       mentionWeight,
			CurrentValue: float64(f.Mentions),
			OptimalRange: Range{Min: 0, Max: float64(w.Risk.FreeMentions)},
		},
		{
			Name:         "Negative Feedback Risk",
			Description:  "Mutes, blocks and reports outweigh every positive signal",
			Weight:       negativeFeedbackWeight,
			CurrentValue: in.scan.RiskScore,
			OptimalRange: Range{Min: 0, Max: quietRiskScore},
		},
		{
			Name:         "Premium Boost",
			Description:  "Premium accounts get extra distribution",
			Weight:       premiumWeight,
			CurrentValue: boolPoints(in.premium, 1),
			OptimalRange: Range{Min: 1, Max: 1},
		},
	}

	for i := range factors {
		factors[i].Status = statusFor(factors[i])
	}
	return factors
}

// statusFor compares a factor's value against its optimal range. Only
// penalty factors can be harmful, and only when they overshoot.
func statusFor(f AlgorithmFactor) FactorStatus {
	switch {
	case f.OptimalRange.Contains(f.CurrentValue):
		return StatusOptimal
	case f.Weight < 0 && f.CurrentValue > f.OptimalRange.Max:
		return StatusHarmful
	}
	return StatusSuboptimal
}
