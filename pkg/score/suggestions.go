package score

import (
	"fmt"
	"sort"

	"github.com/elonfeng/postgrade/pkg/controversy"
)

// suggestions builds one hint per component that has room to improve (or a
// short positive note when it does not), then orders them by impact.
func (e *Engine) suggestions(in signals, b Breakdown, risk RiskDetail) []Suggestion {
	out := []Suggestion{}

	if top, ok := in.scan.Top(); ok {
		out = append(out, controversySuggestion(top, in.scan.RiskLevel))
	}

	out = append(out, e.contentSuggestions(in)...)
	out = append(out, e.mediaSuggestions(in.media)...)
	out = append(out, e.timingSuggestions(in, b)...)
	out = append(out, e.engagementSuggestions(in, b)...)
	out = append(out, e.riskSuggestions(in, risk)...)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Impact.Weight() > out[j].Impact.Weight()
	})
	return out
}

func controversySuggestion(w controversy.Warning, level controversy.RiskLevel) Suggestion {
	return Suggestion{
		Type:     SuggestionNegative,
		Category: "controversy",
		Message:  fmt.Sprintf("%s (%s risk): %s", w.Message, level, w.Detail),
		Action:   "Rephrase or remove this wording before posting",
		Impact:   ImpactHigh,
	}
}

func (e *Engine) contentSuggestions(in signals) []Suggestion {
	w := e.weights.Content
	length := in.features.Length
	var out []Suggestion

	switch {
	case length == 0:
		out = append(out, Suggestion{
			Type:     SuggestionNegative,
			Category: "content",
			Message:  "The draft is empty",
			Action:   "Write something before scoring",
			Impact:   ImpactHigh,
		})
		return out
	case length < w.SweetSpotMin:
		out = append(out, Suggestion{
			Type:     SuggestionNeutral,
			Category: "content",
			Message:  fmt.Sprintf("Short posts (%d chars) get less dwell time", length),
			Action:   fmt.Sprintf("Aim for %d-%d characters", w.SweetSpotMin, w.SweetSpotMax),
			Impact:   ImpactMedium,
		})
	case length > w.SweetSpotMax:
		out = append(out, Suggestion{
			Type:     SuggestionNeutral,
			Category: "content",
			Message:  fmt.Sprintf("At %d chars the post runs past the sweet spot", length),
			Action:   "Tighten the wording or split it into a thread",
			Impact:   ImpactLow,
		})
	default:
		out = append(out, Suggestion{
			Type:     SuggestionPositive,
			Category: "content",
			Message:  "Length is in the sweet spot",
			Impact:   ImpactLow,
		})
	}

	if in.template {
		out = append(out, Suggestion{
			Type:     SuggestionNegative,
			Category: "content",
			Message:  "Formulaic openers read as low-effort",
			Action:   "Lead with a specific claim or story instead",
			Impact:   ImpactMedium,
		})
	}
	return out
}

func (e *Engine) mediaSuggestions(t MediaType) []Suggestion {
	switch t {
	case MediaVideo:
		return []Suggestion{{
			Type:     SuggestionPositive,
			Category: "media",
			Message:  "Native video gets the strongest distribution boost",
			Impact:   ImpactLow,
		}}
	case MediaNone:
		return []Suggestion{{
			Type:     SuggestionNegative,
			Category: "media",
			Message:  "Posts without media are easy to scroll past",
			Action:   "Attach a native image or video",
			Impact:   ImpactHigh,
		}}
	}
	return []Suggestion{{
		Type:     SuggestionNeutral,
		Category: "media",
		Message:  fmt.Sprintf("%s media helps; native video helps more", t),
		Action:   "Consider a short native video",
		Impact:   ImpactLow,
	}}
}

func (e *Engine) timingSuggestions(in signals, b Breakdown) []Suggestion {
	w := e.weights.Timing
	if windowPosition(w.PeakWindows, in.local.Hour()) == inPeak {
		return []Suggestion{{
			Type:     SuggestionPositive,
			Category: "timing",
			Message:  "Scheduled inside a peak window",
			Impact:   ImpactLow,
		}}
	}
	impact := ImpactMedium
	if b.Timing > w.Base+w.ShoulderBonus {
		impact = ImpactLow
	}
	return []Suggestion{{
		Type:     SuggestionNeutral,
		Category: "timing",
		Message:  fmt.Sprintf("%s %02d:00 (%s) is outside the peak windows", in.local.Weekday(), in.local.Hour(), e.loc),
		Action:   peakWindowHint(w.PeakWindows),
		Impact:   impact,
	}}
}

func peakWindowHint(windows []HourWindow) string {
	if len(windows) == 0 {
		return ""
	}
	hint := "Post between"
	for i, win := range windows {
		if i > 0 {
			hint += " or"
		}
		hint += fmt.Sprintf(" %02d:00-%02d:00", win.Start, win.End)
	}
	return hint
}

func (e *Engine) engagementSuggestions(in signals, b Breakdown) []Suggestion {
	var out []Suggestion
	if !in.features.HasQuestion {
		out = append(out, Suggestion{
			Type:     SuggestionNegative,
			Category: "engagement",
			Message:  "No question for readers to answer",
			Action:   "End with a question to invite replies",
			Impact:   ImpactMedium,
		})
	}
	if !in.features.HasCallToAction && !in.features.HasQuestion {
		out = append(out, Suggestion{
			Type:     SuggestionNeutral,
			Category: "engagement",
			Message:  "No call to action",
			Action:   "Tell readers what to do next",
			Impact:   ImpactLow,
		})
	}
	if len(out) == 0 && b.Engagement >= e.weights.Engagement.QuestionBonus {
		out = append(out, Suggestion{
			Type:     SuggestionPositive,
			Category: "engagement",
			Message:  "Invites replies, the heaviest ranking signal",
			Impact:   ImpactLow,
		})
	}
	return out
}

func (e *Engine) riskSuggestions(in signals, risk RiskDetail) []Suggestion {
	w := e.weights.Risk
	f := in.features
	var out []Suggestion

	if f.ExternalLinks > 0 {
		s := Suggestion{
			Type:     SuggestionNegative,
			Category: "risk",
			Message:  fmt.Sprintf("%d external link(s) cost %.0f points of reach", f.ExternalLinks, risk.Links),
			Action:   "Move the link to a reply",
			Impact:   ImpactHigh,
		}
		if in.premium {
			s.Impact = ImpactMedium
		}
		out = append(out, s)
	}
	if f.Hashtags > w.FreeHashtags {
		out = append(out, Suggestion{
			Type:     SuggestionNegative,
			Category: "risk",
			Message:  fmt.Sprintf("%d hashtags look spammy", f.Hashtags),
			Action:   fmt.Sprintf("Keep it to %d or fewer", w.FreeHashtags),
			Impact:   ImpactMedium,
		})
	}
	if f.Mentions > w.FreeMentions {
		out = append(out, Suggestion{
			Type:     SuggestionNegative,
			Category: "risk",
			Message:  fmt.Sprintf("%d mentions can trigger spam filters", f.Mentions),
			Action:   fmt.Sprintf("Tag %d accounts at most", w.FreeMentions),
			Impact:   ImpactLow,
		})
	}
	if risk.Sentiment > 0 {
		out = append(out, Suggestion{
			Type:     SuggestionNeutral,
			Category: "risk",
			Message:  "The overall tone reads negative",
			Action:   "Balance criticism with something constructive",
			Impact:   ImpactLow,
		})
	}
	return out
}
