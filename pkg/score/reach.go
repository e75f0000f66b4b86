package score

import (
	"math"

	"github.com/elonfeng/postgrade/pkg/features"
)

// Reach model constants. These are heuristics, not a fitted model.
const (
	discoveryFloor   = 50   // impressions a post gets from outside the follower graph
	baseViewRate     = 0.35 // share of audience reached by a perfect post
	minQuality       = 0.05
	lowSpread        = 0.4
	premiumBoost     = 1.3
	verifiedBoost    = 1.1
	contextConf      = 0.8
	noContextConf    = 0.5
	sparsePenalty    = 0.1
	shortTextLen     = 20
	smallAudienceCut = 100

	// maxImpressions caps every estimate so huge follower counts cannot
	// overflow int on any platform.
	maxImpressions = math.MaxInt32
)

// predictReach estimates impressions. Every figure is non-decreasing in both
// overall and follower count.
func predictReach(overall int, uc UserContext, hasContext bool, f features.TweetFeatures) PredictedReach {
	q := clamp(float64(overall)/100, 0, 1)
	audience := float64(uc.FollowerCount) + discoveryFloor
	quality := minQuality + (1-minQuality)*q*q

	boost := 1.0
	switch {
	case uc.IsPremium:
		boost = premiumBoost
	case uc.IsVerified:
		boost = verifiedBoost
	}

	median := audience * baseViewRate * quality * boost
	return PredictedReach{
		Low:        impressions(median * lowSpread),
		Median:     impressions(median),
		High:       impressions(median * (2 + 3*q)),
		Confidence: reachConfidence(uc, hasContext, f),
	}
}

func impressions(v float64) int {
	return int(math.Round(clamp(v, 0, maxImpressions)))
}

func reachConfidence(uc UserContext, hasContext bool, f features.TweetFeatures) float64 {
	c := noContextConf
	if hasContext {
		c = contextConf
	}
	if f.Length < shortTextLen {
		c -= sparsePenalty
	}
	if uc.FollowerCount < smallAudienceCut {
		c -= sparsePenalty
	}
	return math.Round(clamp(c, 0.1, 0.95)*100) / 100
}
