package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carematch/internal/application/services"
	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/repositories"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
)

type stubPatientRepo struct{}

func (stubPatientRepo) GetByID(_ context.Context, id string) (*entities.Patient, error) {
	if id != "p1" {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	return &entities.Patient{ID: "p1", FamilyUserID: "u1", FirstName: "Ada", LastName: "Lee", City: "Austin", State: "TX"}, nil
}

func (stubPatientRepo) GetCarePreference(_ context.Context, patientID string) (*entities.CarePreference, error) {
	return &entities.CarePreference{
		PatientID:        patientID,
		SelectedServices: json.RawMessage(`[{"service_id":"medication-management","level":"full"}]`),
	}, nil
}

type stubAgencyRepo struct{}

func (stubAgencyRepo) GetByID(context.Context, string) (*entities.Agency, error) {
	return nil, apperrors.NewNotFoundError("agency not found")
}

func (stubAgencyRepo) ListPublished(context.Context, repositories.AgencyPage) ([]*entities.Agency, error) {
	return []*entities.Agency{{
		ID:           "a1",
		Status:       entities.AgencyStatusPublished,
		ServiceAreas: []entities.ServiceArea{{City: "Austin", State: "TX"}},
		Ratings:      []entities.ServiceRating{{ServiceSlug: "medication-management", Stars: 5}},
	}}, nil
}

type stubMatchRepo struct {
	mu   sync.Mutex
	rows map[string]*entities.Match
}

func (s *stubMatchRepo) Upsert(_ context.Context, m *entities.Match) (*entities.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = make(map[string]*entities.Match)
	}
	stored := *m
	stored.ID = "m1"
	s.rows[m.PatientID+"/"+m.AgencyID] = &stored
	return &stored, nil
}

func (s *stubMatchRepo) ListByPatient(_ context.Context, patientID string) ([]*entities.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entities.Match
	for _, m := range s.rows {
		if m.PatientID == patientID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMatchRepo) ListAgencyIDsByPatient(context.Context, string) ([]string, error) {
	return nil, nil
}

func (s *stubMatchRepo) CountByPatient(_ context.Context, patientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows), nil
}

func (s *stubMatchRepo) SetChannelID(context.Context, string, string) error {
	return nil
}

func newTestHandler() *MatchHandler {
	patients := stubPatientRepo{}
	matches := &stubMatchRepo{}
	resolver := services.NewRequirementsResolver(patients, nil, "Los Angeles, CA")
	candidates := services.NewCandidateService(stubAgencyRepo{}, matches)
	svc := services.NewMatchingService(resolver, candidates, services.NewMatchScoringService(), patients, matches, nil)
	return NewMatchHandler(svc)
}

func runRequest(t *testing.T, handler http.HandlerFunc, method, target, userID string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(method+" /api/patients/{id}/matches/run", handler)
	mux.HandleFunc(method+" /api/patients/{id}/matches", handler)

	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRunMatching_Success(t *testing.T) {
	h := newTestHandler()

	rec := runRequest(t, h.RunMatching, http.MethodPost, "/api/patients/p1/matches/run", "u1")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp matchRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.MatchesCreated)
	assert.Equal(t, 1, resp.TotalMatches)
}

func TestRunMatching_MissingIdentity(t *testing.T) {
	h := newTestHandler()

	rec := runRequest(t, h.RunMatching, http.MethodPost, "/api/patients/p1/matches/run", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunMatching_WrongOwner(t *testing.T) {
	h := newTestHandler()

	rec := runRequest(t, h.RunMatching, http.MethodPost, "/api/patients/p1/matches/run", "intruder")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRunMatching_PatientNotFound(t *testing.T) {
	h := newTestHandler()

	rec := runRequest(t, h.RunMatching, http.MethodPost, "/api/patients/ghost/matches/run", "u1")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMatches_ReturnsPersistedMatches(t *testing.T) {
	h := newTestHandler()

	rec := runRequest(t, h.RunMatching, http.MethodPost, "/api/patients/p1/matches/run", "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = runRequest(t, h.ListMatches, http.MethodGet, "/api/patients/p1/matches", "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Matches []entities.Match `json:"matches"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}
