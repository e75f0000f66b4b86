package controversy

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// riskScoreMultiplier converts total penalty points to a 0-100 risk score.
const riskScoreMultiplier = 2.5

// Scanner evaluates text against compiled category tables.
// A Scanner is immutable after construction and safe for concurrent use.
type Scanner struct {
	tables []compiledTable
}

type compiledTable struct {
	category Category
	message  string
	rules    []compiledRule
}

type compiledRule struct {
	re       *regexp.Regexp
	severity Severity
	detail   string
}

var defaultScanner = MustNewScanner(DefaultTables)

// NewScanner compiles the given tables. Table order and rule order are
// preserved and determine tie order among equal severities.
func NewScanner(tables []Table) (*Scanner, error) {
	s := &Scanner{tables: make([]compiledTable, 0, len(tables))}
	for _, t := range tables {
		ct := compiledTable{category: t.Category, message: t.Message}
		for i, r := range t.Rules {
			if r.Severity.Rank() == 0 {
				return nil, fmt.Errorf("%s rule %d: unknown severity %q", t.Category, i, r.Severity)
			}
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%s rule %d: compile pattern: %w", t.Category, i, err)
			}
			ct.rules = append(ct.rules, compiledRule{re: re, severity: r.Severity, detail: r.Detail})
		}
		s.tables = append(s.tables, ct)
	}
	return s, nil
}

// MustNewScanner is like NewScanner but panics on an invalid table.
func MustNewScanner(tables []Table) *Scanner {
	s, err := NewScanner(tables)
	if err != nil {
		panic(err)
	}
	return s
}

// Scan classifies text with the default rule tables.
func Scan(text string) Result {
	return defaultScanner.Scan(text)
}

// Scan matches every rule of every table against text. Each matching rule
// yields exactly one warning.
func (s *Scanner) Scan(text string) Result {
	normalized := normalize(text)
	warnings := []Warning{}
	total := 0

	if normalized != "" {
		for _, t := range s.tables {
			for _, r := range t.rules {
				if !r.re.MatchString(normalized) {
					continue
				}
				penalty := r.severity.Penalty()
				warnings = append(warnings, Warning{
					Category: t.category,
					Severity: r.severity,
					Message:  t.message,
					Detail:   r.detail,
					Penalty:  penalty,
				})
				total += penalty
			}
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].Severity.Rank() > warnings[j].Severity.Rank()
	})

	riskScore := RiskScoreFor(total)
	return Result{
		Warnings:     warnings,
		TotalPenalty: total,
		RiskScore:    riskScore,
		RiskLevel:    LevelFor(riskScore),
	}
}

// RiskScoreFor maps total penalty points to a risk score in [0,100].
func RiskScoreFor(totalPenalty int) float64 {
	if totalPenalty <= 0 {
		return 0
	}
	return math.Min(100, float64(totalPenalty)*riskScoreMultiplier)
}

// normalize folds typographic apostrophes so patterns only need ASCII quotes.
func normalize(text string) string {
	text = strings.TrimSpace(text)
	return strings.NewReplacer("’", "'", "‘", "'").Replace(text)
}
