package entities

import (
	"encoding/json"
	"time"
)

// Patient represents a care recipient in the marketplace.
type Patient struct {
	ID           string    `json:"id" db:"id"`
	FamilyUserID string    `json:"family_user_id" db:"family_user_id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	City         string    `json:"city" db:"city"`
	State        string    `json:"state" db:"state"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// CarePreference is the raw intake record produced by the onboarding flow.
// BudgetPreferences and SelectedServices arrive as loosely shaped JSON and
// are normalized by the requirements resolver.
type CarePreference struct {
	PatientID         string          `json:"patient_id" db:"patient_id"`
	BudgetPreferences json.RawMessage `json:"budget_preferences" db:"budget_preferences"`
	SelectedServices  json.RawMessage `json:"selected_services" db:"selected_services"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}
