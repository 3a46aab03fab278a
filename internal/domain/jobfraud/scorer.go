// Package jobfraud scores job postings for fraud with fixed phrase and pattern
// rules. Scoring is total: every posting gets a result.
package jobfraud

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Rule weights.
const (
	keywordWeight      = 0.15
	keywordCap         = 0.6
	salaryWeight       = 0.2
	shortDescWeight    = 0.15
	urgencyWeight      = 0.1
	legitimateOffset   = 0.05
	missingCompanyCost = 0.15

	minDescriptionRunes = 100
	minCompanyRunes     = 3
	maxIndicators       = 5
	decisionThreshold   = 0.5
)

// Indicator texts.
const (
	IndicatorSalary         = "Unrealistic salary claims"
	IndicatorShortDesc      = "Insufficient job description"
	IndicatorUrgency        = "Urgency pressure tactics"
	IndicatorMissingCompany = "Missing or invalid company name"
)

// Posting is a job advert. Every field is optional.
type Posting struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Company      string `json:"company"`
	Requirements string `json:"requirements"`
	Salary       string `json:"salary"`
	Location     string `json:"location"`
}

// Stats are the raw counts behind a result.
type Stats struct {
	KeywordMatches        int `json:"keyword_matches"`
	TextLength            int `json:"text_length"`
	LegitimateSignalCount int `json:"legitimate_signals"`
}

// Result is the fraud assessment. Indicators keep rule order and hold at most five
// entries.
type Result struct {
	IsFraudulent bool     `json:"is_fraudulent"`
	Confidence   float64  `json:"confidence"`
	RiskScore    int      `json:"risk_score"`
	Indicators   []string `json:"indicators"`
	Stats        Stats    `json:"stats"`
}

// Scorer applies Rules. It is safe for concurrent use.
type Scorer struct {
	rules Rules
}

func NewScorer(rules Rules) *Scorer {
	return &Scorer{rules: rules}
}

// KeywordIndicator formats the indicator for a matched phrase.
func KeywordIndicator(phrase string) string {
	return fmt.Sprintf("Suspicious phrase: '%s'", phrase)
}

// Score evaluates one posting.
func (s *Scorer) Score(p Posting) Result {
	title := strings.ToLower(p.Title)
	description := strings.ToLower(p.Description)
	company := strings.ToLower(p.Company)
	requirements := strings.ToLower(p.Requirements)
	salary := strings.ToLower(p.Salary)
	location := strings.ToLower(p.Location)

	text := strings.Join([]string{title, description, company, requirements, salary, location}, " ")

	var indicators []string
	var stats Stats
	stats.TextLength = utf8.RuneCountInString(text)

	for _, phrase := range s.rules.FraudKeywords {
		if strings.Contains(text, phrase) {
			stats.KeywordMatches++
			indicators = append(indicators, KeywordIndicator(phrase))
		}
	}
	score := math.Min(float64(stats.KeywordMatches)*keywordWeight, keywordCap)

	if s.unrealisticSalary(text) {
		score += salaryWeight
		indicators = append(indicators, IndicatorSalary)
	}

	if utf8.RuneCountInString(description) < minDescriptionRunes {
		score += shortDescWeight
		indicators = append(indicators, IndicatorShortDesc)
	}

	if containsAny(text, s.rules.UrgencyWords) {
		score += urgencyWeight
		indicators = append(indicators, IndicatorUrgency)
	}

	for _, pattern := range s.rules.LegitimatePatterns {
		if strings.Contains(text, pattern) {
			stats.LegitimateSignalCount++
		}
	}
	score -= float64(stats.LegitimateSignalCount) * legitimateOffset

	if utf8.RuneCountInString(strings.TrimSpace(company)) < minCompanyRunes {
		score += missingCompanyCost
		indicators = append(indicators, IndicatorMissingCompany)
	}

	score = math.Max(0, math.Min(score, 1))

	if len(indicators) > maxIndicators {
		indicators = indicators[:maxIndicators]
	}
	if indicators == nil {
		indicators = []string{}
	}

	return Result{
		IsFraudulent: score > decisionThreshold,
		Confidence:   score,
		RiskScore:    int(math.Floor(score * 100)),
		Indicators:   indicators,
		Stats:        stats,
	}
}

func (s *Scorer) unrealisticSalary(text string) bool {
	for _, re := range s.rules.SalaryPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
