package services

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/repositories"
)

// RequirementsResolver builds a normalized PatientRequirements value from
// the raw intake data. Malformed preference payloads degrade to empty
// services or a zero budget instead of failing the run; only a missing
// patient or preference record is an error.
type RequirementsResolver struct {
	patients         repositories.PatientRepository
	serviceAliases   map[string]string
	fallbackLocation string
}

// NewRequirementsResolver creates a new resolver. serviceAliases remaps
// intake-form slugs to catalog slugs and may be nil.
func NewRequirementsResolver(patients repositories.PatientRepository, serviceAliases map[string]string, fallbackLocation string) *RequirementsResolver {
	return &RequirementsResolver{
		patients:         patients,
		serviceAliases:   serviceAliases,
		fallbackLocation: fallbackLocation,
	}
}

// Resolve builds the requirements for a patient, or returns a not-found
// error when the patient or its care-preference record is absent.
func (r *RequirementsResolver) Resolve(ctx context.Context, patientID string) (*entities.PatientRequirements, error) {
	patient, err := r.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	pref, err := r.patients.GetCarePreference(ctx, patientID)
	if err != nil {
		return nil, err
	}

	location := r.fallbackLocation
	if patient.City != "" && patient.State != "" {
		location = patient.City + ", " + patient.State
	}

	return &entities.PatientRequirements{
		PatientID: patientID,
		Location:  location,
		Budget:    parseBudget(pref.BudgetPreferences),
		Services:  r.parseSelectedServices(pref.SelectedServices),
	}, nil
}

// parseBudget extracts the monthly amount from the budget_preferences JSON.
// Missing, unparsable, non-finite or negative amounts normalize to 0,
// meaning no budget constraint was expressed.
func parseBudget(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var payload struct {
		Amount json.Number `json:"amount"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0
	}

	amount, err := payload.Amount.Float64()
	if err != nil {
		return 0
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0
	}

	return amount
}

// selectedService is the intake-form shape of one requested service.
type selectedService struct {
	ServiceID string `json:"service_id"`
	Level     string `json:"level"`
}

// parseSelectedServices normalizes the selected_services payload, which may
// arrive as an array, a JSON-encoded string wrapping an array, or an object
// with the array under a "data" key. Any parse failure yields an empty list.
func (r *RequirementsResolver) parseSelectedServices(raw json.RawMessage) []entities.ServiceNeed {
	selected := decodeSelectedServices(raw)

	needs := make([]entities.ServiceNeed, 0, len(selected))
	for _, s := range selected {
		if s.ServiceID == "" {
			continue
		}
		slug := s.ServiceID
		if alias, ok := r.serviceAliases[slug]; ok {
			slug = alias
		}
		needs = append(needs, entities.ServiceNeed{
			ServiceSlug:  slug,
			SupportLevel: supportLevelFor(s.Level),
		})
	}

	return needs
}

func decodeSelectedServices(raw json.RawMessage) []selectedService {
	if len(raw) == 0 {
		return nil
	}

	var asArray []selectedService
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if err := json.Unmarshal([]byte(asString), &asArray); err == nil {
			return asArray
		}
		log.Debug().Msg("selected_services string did not contain a valid array")
		return nil
	}

	var wrapped struct {
		Data []selectedService `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data
	}

	log.Debug().Msg("selected_services payload not in a recognized shape")
	return nil
}

// supportLevelFor maps the intake free-text level to the numeric scale.
// Unrecognized or missing values default to substantial support.
func supportLevelFor(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "minimal":
		return entities.SupportLevelMinimal
	case "moderate":
		return entities.SupportLevelModerate
	case "substantial":
		return entities.SupportLevelSubstantial
	case "full":
		return entities.SupportLevelFull
	default:
		return entities.SupportLevelSubstantial
	}
}
