package entities

// Support levels encode how much hands-on care a required service demands,
// from light oversight (1) to full support (4).
const (
	SupportLevelMinimal     = 1
	SupportLevelModerate    = 2
	SupportLevelSubstantial = 3
	SupportLevelFull        = 4
)

// PrimaryCareThreshold splits services into primary (>= 3) and general (<= 2)
// care for scoring purposes.
const PrimaryCareThreshold = SupportLevelSubstantial

// ServiceNeed is one required service with its normalized support level.
type ServiceNeed struct {
	ServiceSlug  string `json:"service_slug"`
	SupportLevel int    `json:"support_level"`
}

// IsPrimary reports whether the need counts toward primary care scoring.
func (n ServiceNeed) IsPrimary() bool {
	return n.SupportLevel >= PrimaryCareThreshold
}

// PatientRequirements is the normalized view of a patient's care needs that
// the scoring engine consumes. Budget of 0 means no budget constraint was
// expressed.
type PatientRequirements struct {
	PatientID string        `json:"patient_id"`
	Location  string        `json:"location"`
	Budget    float64       `json:"budget"`
	Services  []ServiceNeed `json:"services"`
}

// PrimaryServices returns the needs with support level >= 3.
func (r *PatientRequirements) PrimaryServices() []ServiceNeed {
	var out []ServiceNeed
	for _, s := range r.Services {
		if s.IsPrimary() {
			out = append(out, s)
		}
	}
	return out
}

// GeneralServices returns the needs with support level <= 2.
func (r *PatientRequirements) GeneralServices() []ServiceNeed {
	var out []ServiceNeed
	for _, s := range r.Services {
		if !s.IsPrimary() {
			out = append(out, s)
		}
	}
	return out
}
