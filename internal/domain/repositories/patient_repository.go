package repositories

import (
	"context"

	"github.com/zatekoja/carematch/internal/domain/entities"
)

// PatientRepository defines read access to patient records. The matching
// subsystem never writes patients; onboarding owns that lifecycle.
type PatientRepository interface {
	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// GetCarePreference retrieves the raw care-preference record for a patient
	GetCarePreference(ctx context.Context, patientID string) (*entities.CarePreference, error)
}
