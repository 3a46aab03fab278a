package jobfraud

import (
	"fmt"
	"regexp"
	"strings"
)

var defaultFraudKeywords = []string{
	"easy money", "work from home", "no experience needed",
	"earn thousands", "guaranteed income", "investment required",
	"pay upfront", "wire transfer", "cash only", "urgent hiring",
	"limited spots", "act now", "too good to be true",
}

var defaultUrgencyWords = []string{
	"urgent", "immediate", "asap", "hurry", "limited time",
}

var defaultLegitimatePatterns = []string{
	"benefits", "health insurance", "401k", "pto", "vacation",
	"competitive salary", "team environment", "career growth",
}

var defaultSalaryPatterns = []string{
	`\$\d{4,}.*(?:day|daily|per day)`,
	`\d{4,}.*(?:day|daily|per day)`,
	`\$\d{5,}.*(?:week|weekly|per week)`,
	`unlimited.*(?:income|earning|money)`,
}

// Rules are the phrase and pattern tables. Build once and share; nothing mutates
// them after construction.
type Rules struct {
	FraudKeywords      []string
	UrgencyWords       []string
	LegitimatePatterns []string
	SalaryPatterns     []*regexp.Regexp
}

// DefaultRules returns the built-in tables.
func DefaultRules() Rules {
	rules, err := NewRules(nil, nil, nil, nil)
	if err != nil {
		panic(fmt.Sprintf("jobfraud: default salary patterns: %v", err))
	}
	return rules
}

// NewRules builds tables from overrides. A nil or empty list keeps the default for
// that table. Phrases are lower-cased and trimmed because they are matched against
// lower-cased text; blank phrases are dropped.
func NewRules(keywords, urgency, legitimate, salaryPatterns []string) (Rules, error) {
	rules := Rules{
		FraudKeywords:      pick(phrases(keywords), defaultFraudKeywords),
		UrgencyWords:       pick(phrases(urgency), defaultUrgencyWords),
		LegitimatePatterns: pick(phrases(legitimate), defaultLegitimatePatterns),
	}

	for _, expr := range pick(salaryPatterns, defaultSalaryPatterns) {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Rules{}, fmt.Errorf("compile salary pattern %q: %w", expr, err)
		}
		rules.SalaryPatterns = append(rules.SalaryPatterns, re)
	}
	return rules, nil
}

func pick(override, fallback []string) []string {
	src := fallback
	if len(override) > 0 {
		src = override
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func phrases(in []string) []string {
	var out []string
	for _, p := range in {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
