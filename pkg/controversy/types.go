// Package controversy flags phrasing associated with punitive distribution
// signals (reports, blocks, mutes) using fixed pattern tables.
package controversy

// Category is one of the closed set of controversy categories.
type Category string

const (
	CategoryOffensiveLanguage Category = "offensive_language"
	CategoryHotButtonTopic    Category = "hot_button_topic"
	CategoryInflammatoryTone  Category = "inflammatory_tone"
	CategoryRageBait          Category = "rage_bait"
	CategoryTargetedAttack    Category = "targeted_attack"
	CategoryMisinfoPattern    Category = "misinfo_pattern"
)

// AllCategories returns the categories in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryOffensiveLanguage,
		CategoryHotButtonTopic,
		CategoryInflammatoryTone,
		CategoryRageBait,
		CategoryTargetedAttack,
		CategoryMisinfoPattern,
	}
}

// Severity is the four-level ordinal of a matched rule.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

var severityPenalty = map[Severity]int{
	SeverityLow:      2,
	SeverityMedium:   5,
	SeverityHigh:     10,
	SeverityCritical: 20,
}

// Rank orders severities; unknown severities rank 0.
func (s Severity) Rank() int { return severityRank[s] }

// Penalty returns the fixed penalty points for the severity.
func (s Severity) Penalty() int { return severityPenalty[s] }

// RiskLevel is the four-band classification of a RiskScore.
type RiskLevel string

const (
	RiskSafe      RiskLevel = "safe"
	RiskCaution   RiskLevel = "caution"
	RiskRisky     RiskLevel = "risky"
	RiskDangerous RiskLevel = "dangerous"
)

// riskBands is ordered from the highest lower bound down.
var riskBands = []struct {
	min   float64
	level RiskLevel
}{
	{60, RiskDangerous},
	{30, RiskRisky},
	{10, RiskCaution},
}

// LevelFor maps a risk score to its band. Lower bounds are inclusive.
func LevelFor(riskScore float64) RiskLevel {
	for _, b := range riskBands {
		if riskScore >= b.min {
			return b.level
		}
	}
	return RiskSafe
}

// Rank orders risk levels from safe (0) to dangerous (3).
func (l RiskLevel) Rank() int {
	switch l {
	case RiskCaution:
		return 1
	case RiskRisky:
		return 2
	case RiskDangerous:
		return 3
	}
	return 0
}

// AtLeast returns every level ranked at or above l, lowest first.
func (l RiskLevel) AtLeast() []RiskLevel {
	var out []RiskLevel
	for _, lv := range []RiskLevel{RiskSafe, RiskCaution, RiskRisky, RiskDangerous} {
		if lv.Rank() >= l.Rank() {
			out = append(out, lv)
		}
	}
	return out
}

// Warning is emitted once per matched rule.
type Warning struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Detail   string   `json:"detail"`
	Penalty  int      `json:"penalty"`
}

// Result aggregates every warning matched for one text.
type Result struct {
	Warnings     []Warning `json:"warnings"`
	TotalPenalty int       `json:"totalPenalty"`
	RiskScore    float64   `json:"riskScore"`
	RiskLevel    RiskLevel `json:"riskLevel"`
}

// Top returns the highest-severity warning, if any.
func (r Result) Top() (Warning, bool) {
	if len(r.Warnings) == 0 {
		return Warning{}, false
	}
	return r.Warnings[0], true
}
