package evaluation

import (
	"fmt"

	"github.com/zatekoja/carematch/internal/application/services"
)

// Runner replays golden cases against the scoring engine and reports which
// ones deviate from their pinned expectations. It exists so scoring changes
// are caught before they reach families.
type Runner struct {
	scorer *services.MatchScoringService
}

func NewRunner(scorer *services.MatchScoringService) *Runner {
	return &Runner{scorer: scorer}
}

func (r *Runner) Run(cases []GoldenCase) *Summary {
	summary := &Summary{
		TotalCases:   len(cases),
		ByDifficulty: make(map[string]*DifficultySummary),
	}

	var recallSum float64
	for _, gc := range cases {
		result := r.evaluate(gc)
		recallSum += result.TagRecall
		r.updateSummary(summary, gc, result)
	}
	if summary.TotalCases > 0 {
		summary.TagRecall = recallSum / float64(summary.TotalCases)
	}

	return summary
}

func (r *Runner) evaluate(gc GoldenCase) CaseResult {
	actual := r.scorer.Score(&gc.Requirements, &gc.Agency)

	result := CaseResult{
		CaseID:    gc.ID,
		Actual:    actual,
		TagRecall: TagRecall(gc.Expected.Tags, actual.Tags),
	}

	checks := []struct {
		name     string
		expected float64
		got      float64
	}{
		{"score", gc.Expected.Score, actual.Score},
		{"budget", gc.Expected.Budget, actual.Breakdown.Budget},
		{"primaryCare", gc.Expected.PrimaryCare, actual.Breakdown.PrimaryCare},
		{"generalCare", gc.Expected.GeneralCare, actual.Breakdown.GeneralCare},
		{"addOns", gc.Expected.AddOns, actual.Breakdown.AddOns},
	}
	for _, c := range checks {
		if !WithinTolerance(c.expected, c.got) {
			result.Deviations = append(result.Deviations,
				fmt.Sprintf("%s: expected %.2f, got %.2f", c.name, c.expected, c.got))
		}
	}

	for _, tag := range MissingTags(gc.Expected.Tags, actual.Tags) {
		result.Deviations = append(result.Deviations, fmt.Sprintf("missing tag %q", tag))
	}

	result.Passed = len(result.Deviations) == 0
	return result
}

func (r *Runner) updateSummary(s *Summary, gc GoldenCase, res CaseResult) {
	if _, ok := s.ByDifficulty[gc.Difficulty]; !ok {
		s.ByDifficulty[gc.Difficulty] = &DifficultySummary{}
	}
	ds := s.ByDifficulty[gc.Difficulty]
	ds.Count++

	if res.Passed {
		s.PassedCases++
		ds.Passed++
		return
	}
	s.Failures = append(s.Failures, res)
}
