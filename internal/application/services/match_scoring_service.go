package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/zatekoja/carematch/internal/domain/entities"
)

// Scoring weights and thresholds. Location contributes no points; it is a
// pre-filter gate applied before scoring runs.
const (
	maxBudgetScore      = 30.0
	maxPrimaryCareScore = 40.0
	maxGeneralCareScore = 20.0
	maxAddOnScore       = 10.0

	unratedServiceStars = 0.5
	generalStarsCap     = 3.0

	highLevelWeight = 0.7
	lowLevelWeight  = 0.3
)

// mobilityServices qualify for the specialty add-on bonus when required at
// a high support level and rated well by the agency.
var mobilityServices = map[string]struct{}{
	"mobility-assistance": {},
	"transfer-assistance": {},
	"bathing-dressing":    {},
}

// MatchScoringService computes compatibility scores between a patient's
// requirements and candidate agencies. It is pure and performs no I/O, so
// every rule is unit-testable in isolation.
type MatchScoringService struct{}

// NewMatchScoringService creates a new scoring service
func NewMatchScoringService() *MatchScoringService {
	return &MatchScoringService{}
}

// Score evaluates a single agency against the requirements and returns the
// total score, its breakdown and human-readable tags.
func (s *MatchScoringService) Score(req *entities.PatientRequirements, agency *entities.Agency) entities.MatchResult {
	budget := budgetScore(req.Budget, agency)
	primary := primaryCareScore(req.PrimaryServices(), agency)
	general := generalCareScore(req.GeneralServices(), agency)
	addOns := addOnScore(req, agency, budget)

	breakdown := entities.ScoreBreakdown{
		Location:    true,
		Budget:      budget,
		PrimaryCare: primary,
		GeneralCare: general,
		AddOns:      addOns,
	}

	return entities.MatchResult{
		AgencyID:  agency.ID,
		Score:     round2(budget + primary + general + addOns),
		Breakdown: breakdown,
		Tags:      buildTags(req, agency, breakdown),
	}
}

// Rank scores every candidate, drops non-positive results and returns the
// survivors ordered by descending score, ties broken by agency ID ascending.
func (s *MatchScoringService) Rank(req *entities.PatientRequirements, agencies []*entities.Agency) []entities.MatchResult {
	results := make([]entities.MatchResult, 0, len(agencies))
	for _, agency := range agencies {
		result := s.Score(req, agency)
		if result.Score <= 0 {
			continue
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].AgencyID < results[j].AgencyID
	})

	return results
}

// budgetScore tiers the agency's average monthly rate against the patient's
// budget. A zero budget means no constraint was expressed and scores full
// points; an agency with no monthly rates scores zero.
func budgetScore(budget float64, agency *entities.Agency) float64 {
	if budget == 0 {
		return maxBudgetScore
	}

	var sum float64
	var count int
	for _, rate := range agency.Rates {
		if rate.PricingFormat != entities.PricingFormatMonthly {
			continue
		}
		sum += (rate.MinAmount + rate.MaxAmount) / 2
		count++
	}
	if count == 0 {
		return 0
	}

	avgRate := sum / float64(count)
	overagePercent := (avgRate - budget) / budget * 100

	switch {
	case overagePercent <= 0:
		return 30
	case overagePercent <= 10:
		return 25
	case overagePercent <= 20:
		return 20
	case overagePercent <= 30:
		return 15
	default:
		return 0
	}
}

// primaryCareScore weights level-4 services over level-3 ones, normalizing
// each subset's mean star rating against the 5-star scale.
func primaryCareScore(services []entities.ServiceNeed, agency *entities.Agency) float64 {
	if len(services) == 0 {
		return 0
	}

	level4 := subsetStarsAverage(services, agency, entities.SupportLevelFull, 5)
	level3 := subsetStarsAverage(services, agency, entities.SupportLevelSubstantial, 5)

	weighted := (level4/5)*highLevelWeight + (level3/5)*lowLevelWeight
	return round2(weighted * maxPrimaryCareScore)
}

// generalCareScore mirrors the primary computation for level-1/2 services,
// capping each subset average at 3 stars so lighter-touch services cannot
// dominate the score.
func generalCareScore(services []entities.ServiceNeed, agency *entities.Agency) float64 {
	if len(services) == 0 {
		return 0
	}

	level2 := subsetStarsAverage(services, agency, entities.SupportLevelModerate, generalStarsCap)
	level1 := subsetStarsAverage(services, agency, entities.SupportLevelMinimal, generalStarsCap)

	weighted := (level2/generalStarsCap)*highLevelWeight + (level1/generalStarsCap)*lowLevelWeight
	return round2(weighted * maxGeneralCareScore)
}

// subsetStarsAverage averages the agency's star ratings over the services at
// one support level, defaulting unrated services to 0.5 stars and capping
// the result at maxStars. An empty subset averages to zero.
func subsetStarsAverage(services []entities.ServiceNeed, agency *entities.Agency, level int, maxStars float64) float64 {
	var sum float64
	var count int
	for _, svc := range services {
		if svc.SupportLevel != level {
			continue
		}
		stars, ok := agency.RatingFor(svc.ServiceSlug)
		if !ok {
			stars = unratedServiceStars
		}
		sum += stars
		count++
	}
	if count == 0 {
		return 0
	}

	avg := sum / float64(count)
	if avg > maxStars {
		avg = maxStars
	}
	return avg
}

// addOnScore sums bonus points for standout fits, clamped at 10.
func addOnScore(req *entities.PatientRequirements, agency *entities.Agency, budget float64) float64 {
	var bonus float64

	if allPrimaryFiveStar(req.PrimaryServices(), agency) {
		bonus += 5
	}
	if budget == maxBudgetScore {
		bonus += 5
	}
	if hasMobilitySpecialty(req.Services, agency) {
		bonus += 5
	}

	return math.Min(bonus, maxAddOnScore)
}

func allPrimaryFiveStar(primary []entities.ServiceNeed, agency *entities.Agency) bool {
	if len(primary) == 0 {
		return false
	}
	for _, svc := range primary {
		stars, ok := agency.RatingFor(svc.ServiceSlug)
		if !ok || stars < 5 {
			return false
		}
	}
	return true
}

func hasMobilitySpecialty(services []entities.ServiceNeed, agency *entities.Agency) bool {
	for _, svc := range services {
		if _, ok := mobilityServices[svc.ServiceSlug]; !ok {
			continue
		}
		if svc.SupportLevel < entities.PrimaryCareThreshold {
			continue
		}
		if stars, ok := agency.RatingFor(svc.ServiceSlug); ok && stars >= 4 {
			return true
		}
	}
	return false
}

// buildTags derives the human-readable hints surfaced alongside a match.
func buildTags(req *entities.PatientRequirements, agency *entities.Agency, b entities.ScoreBreakdown) []string {
	tags := make([]string, 0, 4)

	if b.Budget == maxBudgetScore {
		tags = append(tags, "Good fit on budget")
	} else if b.Budget >= 10 && b.Budget < 20 {
		tags = append(tags, "May require financial flexibility")
	}

	if b.PrimaryCare >= 30 {
		tags = append(tags, "High focus on primary care")
	}

	if missing := countMissingServices(req.Services, agency); missing > 0 {
		if missing == 1 {
			tags = append(tags, "Missing 1 required service")
		} else {
			tags = append(tags, fmt.Sprintf("Missing %d required services", missing))
		}
	}

	if b.PrimaryCare+b.GeneralCare >= 45 {
		tags = append(tags, "Good support coverage")
	}

	return tags
}

func countMissingServices(services []entities.ServiceNeed, agency *entities.Agency) int {
	var missing int
	for _, svc := range services {
		if _, ok := agency.RatingFor(svc.ServiceSlug); !ok {
			missing++
		}
	}
	return missing
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
