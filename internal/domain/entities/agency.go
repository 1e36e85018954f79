package entities

import "time"

// Agency statuses as stored. Only published agencies are eligible for matching.
const (
	AgencyStatusDraft     = "draft"
	AgencyStatusPublished = "published"
	AgencyStatusSuspended = "suspended"
)

// Pricing formats for service rates. Only monthly rates participate in
// budget scoring.
const (
	PricingFormatMonthly = "monthly"
	PricingFormatHourly  = "hourly"
)

// Agency represents a care agency candidate, projected with the rating and
// rate data the scoring engine consumes.
type Agency struct {
	ID           string          `json:"id" db:"id"`
	BusinessName string          `json:"business_name" db:"business_name"`
	Status       string          `json:"status" db:"status"`
	ServiceAreas []ServiceArea   `json:"service_areas" db:"-"`
	Ratings      []ServiceRating `json:"service_ratings" db:"-"`
	Rates        []ServiceRate   `json:"service_rates" db:"-"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ServiceArea is a locality the agency serves.
type ServiceArea struct {
	City  string `json:"city" db:"city"`
	State string `json:"state" db:"state"`
}

// ServiceRating is the agency's star rating for one catalog service.
// Stars are on a 0-5 scale.
type ServiceRating struct {
	ServiceSlug string  `json:"service_slug" db:"service_slug"`
	Stars       float64 `json:"stars" db:"stars"`
}

// ServiceRate is the agency's published rate range for one catalog service.
type ServiceRate struct {
	ServiceSlug   string  `json:"service_slug" db:"service_slug"`
	MinAmount     float64 `json:"min_amount" db:"min_amount"`
	MaxAmount     float64 `json:"max_amount" db:"max_amount"`
	PricingFormat string  `json:"pricing_format" db:"pricing_format"`
}

// ServesLocality reports whether any of the agency's service areas matches
// the given city and state exactly.
func (a *Agency) ServesLocality(city, state string) bool {
	for _, area := range a.ServiceAreas {
		if area.City == city && area.State == state {
			return true
		}
	}
	return false
}

// RatingFor returns the agency's star rating for a service slug.
func (a *Agency) RatingFor(serviceSlug string) (float64, bool) {
	for _, r := range a.Ratings {
		if r.ServiceSlug == serviceSlug {
			return r.Stars, true
		}
	}
	return 0, false
}
