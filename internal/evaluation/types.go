package evaluation

import "github.com/zatekoja/carematch/internal/domain/entities"

// GoldenCase is one labeled scoring scenario: a requirements/agency pair with
// the outcome the scoring engine is expected to produce. Cases live in JSON
// files so product can review and extend them without touching code.
type GoldenCase struct {
	ID           string                       `json:"id"`
	Description  string                       `json:"description"`
	Difficulty   string                       `json:"difficulty"` // easy, medium, hard
	Requirements entities.PatientRequirements `json:"requirements"`
	Agency       entities.Agency              `json:"agency"`
	Expected     ExpectedOutcome              `json:"expected"`
}

// ExpectedOutcome pins the scores and tags a golden case must produce.
type ExpectedOutcome struct {
	Score       float64  `json:"score"`
	Budget      float64  `json:"budget"`
	PrimaryCare float64  `json:"primaryCare"`
	GeneralCare float64  `json:"generalCare"`
	AddOns      float64  `json:"addOns"`
	Tags        []string `json:"tags"`
}

// CaseResult holds the evaluation outcome for a single golden case.
type CaseResult struct {
	CaseID     string
	Passed     bool
	Actual     entities.MatchResult
	TagRecall  float64
	Deviations []string
}

// Summary aggregates results across a golden case set.
type Summary struct {
	TotalCases   int
	PassedCases  int
	TagRecall    float64 // mean tag recall across all cases
	ByDifficulty map[string]*DifficultySummary
	Failures     []CaseResult
}

// DifficultySummary groups pass rates by case difficulty.
type DifficultySummary struct {
	Count  int
	Passed int
}

// PassRate returns the fraction of cases that matched their expectations.
func (s *Summary) PassRate() float64 {
	if s.TotalCases == 0 {
		return 0
	}
	return float64(s.PassedCases) / float64(s.TotalCases)
}
