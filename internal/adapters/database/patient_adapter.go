package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/repositories"
	"github.com/zatekoja/carematch/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
)

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(
		"id", "family_user_id", "first_name", "last_name",
		"city", "state", "created_at", "updated_at",
	).From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build patient query", err)
	}

	patient := &entities.Patient{}
	var city, state sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&patient.ID,
		&patient.FamilyUserID,
		&patient.FirstName,
		&patient.LastName,
		&city,
		&state,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	patient.City = city.String
	patient.State = state.String

	return patient, nil
}

// GetCarePreference retrieves the raw care-preference record for a patient
func (a *PatientAdapter) GetCarePreference(ctx context.Context, patientID string) (*entities.CarePreference, error) {
	query, args, err := a.db.Select(
		"patient_id", "budget_preferences", "selected_services",
		"created_at", "updated_at",
	).From("care_preferences").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build care preference query", err)
	}

	pref := &entities.CarePreference{}
	var budgetRaw, servicesRaw []byte

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&pref.PatientID,
		&budgetRaw,
		&servicesRaw,
		&pref.CreatedAt,
		&pref.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("care preferences for patient %s not found", patientID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get care preferences", err)
	}

	pref.BudgetPreferences = budgetRaw
	pref.SelectedServices = servicesRaw

	return pref, nil
}
