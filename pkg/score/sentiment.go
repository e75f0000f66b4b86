package score

import (
	"math"
	"strings"
)

// sentiment is a lightweight keyword tally, not an NLP model.
type sentiment struct {
	positive float64
	negative float64
}

// net is positive minus negative mass.
func (s sentiment) net() float64 { return s.positive - s.negative }

// penalty charges negative mass only when the overall tone is negative.
func (s sentiment) penalty(max float64) float64 {
	if s.net() >= 0 {
		return 0
	}
	return math.Round(math.Min(max, s.negative*2))
}

func analyzeSentiment(text string) sentiment {
	var s sentiment
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]…")
		if w, ok := positiveWords[word]; ok {
			s.positive += w
		}
		if w, ok := negativeWords[word]; ok {
			s.negative += w
		}
	}
	return s
}

var positiveWords = map[string]float64{
	"love":      1.0,
	"loved":     1.0,
	"amazing":   0.8,
	"awesome":   0.8,
	"great":     0.8,
	"excited":   0.7,
	"grateful":  0.7,
	"thankful":  0.7,
	"thanks":    0.6,
	"thank":     0.6,
	"happy":     0.6,
	"proud":     0.6,
	"helpful":   0.6,
	"beautiful": 0.6,
	"congrats":  0.6,
	"best":      0.5,
	"win":       0.5,
	"fun":       0.5,
	"nice":      0.4,
	"good":      0.4,
}

var negativeWords = map[string]float64{
	"hate":          1.0,
	"hated":         1.0,
	"awful":         0.8,
	"terrible":      0.8,
	"horrible":      0.8,
	"worst":         0.8,
	"scam":          0.9,
	"sucks":         0.7,
	"useless":       0.7,
	"garbage":       0.7,
	"trash":         0.6,
	"ruined":        0.6,
	"angry":         0.6,
	"furious":       0.7,
	"disappointed":  0.6,
	"disappointing": 0.6,
	"annoying":      0.5,
	"broken":        0.5,
	"fail":          0.5,
	"failed":        0.5,
	"sad":           0.4,
	"ugh":           0.4,
	"bad":           0.4,
}
