package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carematch/internal/domain/entities"
)

func monthlyAgency(id string, min, max float64) *entities.Agency {
	return &entities.Agency{
		ID:     id,
		Status: entities.AgencyStatusPublished,
		Rates: []entities.ServiceRate{
			{ServiceSlug: "companionship", MinAmount: min, MaxAmount: max, PricingFormat: entities.PricingFormatMonthly},
		},
	}
}

func TestBudgetScore_Tiers(t *testing.T) {
	tests := []struct {
		name    string
		budget  float64
		avgRate float64
		want    float64
	}{
		{"at budget", 1000, 1000, 30},
		{"5 percent over", 1000, 1050, 25},
		{"15 percent over", 1000, 1150, 20},
		{"25 percent over", 1000, 1250, 15},
		{"50 percent over", 1000, 1500, 0},
		{"no budget constraint", 0, 1500, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agency := monthlyAgency("a1", tt.avgRate, tt.avgRate)
			assert.Equal(t, tt.want, budgetScore(tt.budget, agency))
		})
	}
}

func TestBudgetScore_IgnoresHourlyRates(t *testing.T) {
	agency := &entities.Agency{
		ID: "a1",
		Rates: []entities.ServiceRate{
			{ServiceSlug: "companionship", MinAmount: 20, MaxAmount: 40, PricingFormat: entities.PricingFormatHourly},
		},
	}

	assert.Equal(t, 0.0, budgetScore(1000, agency))
}

func TestPrimaryCareScore_SingleLevel4FiveStar(t *testing.T) {
	services := []entities.ServiceNeed{
		{ServiceSlug: "medication-management", SupportLevel: entities.SupportLevelFull},
	}
	agency := &entities.Agency{
		ID:      "a1",
		Ratings: []entities.ServiceRating{{ServiceSlug: "medication-management", Stars: 5}},
	}

	assert.Equal(t, 28.0, primaryCareScore(services, agency))
}

func TestPrimaryCareScore_UnratedDefaultsToHalfStar(t *testing.T) {
	services := []entities.ServiceNeed{
		{ServiceSlug: "wound-care", SupportLevel: entities.SupportLevelFull},
	}
	agency := &entities.Agency{ID: "a1"}

	// (0.5/5)*0.7*40 = 2.8
	assert.Equal(t, 2.8, primaryCareScore(services, agency))
}

func TestGeneralCareScore_CappedAtThreeStars(t *testing.T) {
	services := []entities.ServiceNeed{
		{ServiceSlug: "companionship", SupportLevel: entities.SupportLevelModerate},
	}
	agency := &entities.Agency{
		ID:      "a1",
		Ratings: []entities.ServiceRating{{ServiceSlug: "companionship", Stars: 4}},
	}

	// 4 stars caps at 3, (3/3)*0.7*20 = 14.0
	assert.Equal(t, 14.0, generalCareScore(services, agency))
}

func TestAddOnScore_ClampsAtTen(t *testing.T) {
	req := &entities.PatientRequirements{
		Budget: 0,
		Services: []entities.ServiceNeed{
			{ServiceSlug: "mobility-assistance", SupportLevel: entities.SupportLevelFull},
		},
	}
	agency := &entities.Agency{
		ID:      "a1",
		Ratings: []entities.ServiceRating{{ServiceSlug: "mobility-assistance", Stars: 5}},
	}

	// All three bonuses qualify: all-primary-5-star, budget fit, mobility specialty.
	assert.Equal(t, 10.0, addOnScore(req, agency, 30))
}

func TestScore_EndToEnd(t *testing.T) {
	svc := NewMatchScoringService()

	req := &entities.PatientRequirements{
		PatientID: "p1",
		Location:  "Austin, TX",
		Budget:    1000,
		Services: []entities.ServiceNeed{
			{ServiceSlug: "medication-management", SupportLevel: entities.SupportLevelFull},
		},
	}
	agency := &entities.Agency{
		ID:           "a1",
		BusinessName: "Sunrise Care",
		Status:       entities.AgencyStatusPublished,
		Ratings:      []entities.ServiceRating{{ServiceSlug: "medication-management", Stars: 5}},
		Rates: []entities.ServiceRate{
			{ServiceSlug: "medication-management", MinAmount: 900, MaxAmount: 1100, PricingFormat: entities.PricingFormatMonthly},
		},
	}

	result := svc.Score(req, agency)

	assert.Equal(t, 30.0, result.Breakdown.Budget)
	assert.Equal(t, 28.0, result.Breakdown.PrimaryCare)
	assert.Equal(t, 0.0, result.Breakdown.GeneralCare)
	assert.Equal(t, 10.0, result.Breakdown.AddOns)
	assert.Equal(t, 68.0, result.Score)
	assert.Contains(t, result.Tags, "Good fit on budget")
}

func TestScore_MissingServicesTag(t *testing.T) {
	svc := NewMatchScoringService()

	req := &entities.PatientRequirements{
		Budget: 0,
		Services: []entities.ServiceNeed{
			{ServiceSlug: "wound-care", SupportLevel: entities.SupportLevelFull},
			{ServiceSlug: "companionship", SupportLevel: entities.SupportLevelMinimal},
		},
	}
	agency := &entities.Agency{ID: "a1"}

	result := svc.Score(req, agency)

	assert.Contains(t, result.Tags, "Missing 2 required services")
}

func TestRank_SortsDescending(t *testing.T) {
	svc := NewMatchScoringService()

	req := &entities.PatientRequirements{
		PatientID: "p1",
		Budget:    1000,
		Services: []entities.ServiceNeed{
			{ServiceSlug: "medication-management", SupportLevel: entities.SupportLevelFull},
		},
	}

	strong := &entities.Agency{
		ID:      "a-strong",
		Ratings: []entities.ServiceRating{{ServiceSlug: "medication-management", Stars: 5}},
		Rates: []entities.ServiceRate{
			{ServiceSlug: "medication-management", MinAmount: 900, MaxAmount: 1100, PricingFormat: entities.PricingFormatMonthly},
		},
	}
	weak := &entities.Agency{
		ID:      "a-weak",
		Ratings: []entities.ServiceRating{{ServiceSlug: "medication-management", Stars: 3}},
		Rates: []entities.ServiceRate{
			{ServiceSlug: "medication-management", MinAmount: 1000, MaxAmount: 1200, PricingFormat: entities.PricingFormatMonthly},
		},
	}
	results := svc.Rank(req, []*entities.Agency{weak, strong})

	require.Len(t, results, 2)
	assert.Equal(t, "a-strong", results[0].AgencyID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRank_DropsZeroScores(t *testing.T) {
	svc := NewMatchScoringService()

	// Budget blown, no services to earn care points.
	req := &entities.PatientRequirements{PatientID: "p1", Budget: 1000}
	hopeless := &entities.Agency{
		ID: "a-hopeless",
		Rates: []entities.ServiceRate{
			{ServiceSlug: "companionship", MinAmount: 5000, MaxAmount: 6000, PricingFormat: entities.PricingFormatMonthly},
		},
	}

	assert.Empty(t, svc.Rank(req, []*entities.Agency{hopeless}))
}

func TestRank_TieBreaksByAgencyID(t *testing.T) {
	svc := NewMatchScoringService()

	req := &entities.PatientRequirements{PatientID: "p1", Budget: 0}

	// Identical agencies except for ID score identically.
	a := &entities.Agency{ID: "b-agency"}
	b := &entities.Agency{ID: "a-agency"}

	results := svc.Rank(req, []*entities.Agency{a, b})

	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "a-agency", results[0].AgencyID)
}
