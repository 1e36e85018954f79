package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/repositories"
)

type fakeAgencyRepo struct {
	agencies []*entities.Agency
	lastPage repositories.AgencyPage
}

func (f *fakeAgencyRepo) GetByID(_ context.Context, id string) (*entities.Agency, error) {
	for _, a := range f.agencies {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAgencyRepo) ListPublished(_ context.Context, page repositories.AgencyPage) ([]*entities.Agency, error) {
	f.lastPage = page

	excluded := make(map[string]struct{}, len(page.ExcludedIDs))
	for _, id := range page.ExcludedIDs {
		excluded[id] = struct{}{}
	}

	var out []*entities.Agency
	for _, a := range f.agencies {
		if a.Status != entities.AgencyStatusPublished {
			continue
		}
		if _, skip := excluded[a.ID]; skip {
			continue
		}
		out = append(out, a)
	}

	if page.Offset >= len(out) {
		return nil, nil
	}
	out = out[page.Offset:]
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func inLocalityAgency(id, city, state string) *entities.Agency {
	return &entities.Agency{
		ID:           id,
		Status:       entities.AgencyStatusPublished,
		ServiceAreas: []entities.ServiceArea{{City: city, State: state}},
	}
}

func TestFetch_FiltersLocalityAfterPagination(t *testing.T) {
	repo := &fakeAgencyRepo{agencies: []*entities.Agency{
		inLocalityAgency("a1", "Austin", "TX"),
		inLocalityAgency("a2", "Dallas", "TX"),
		inLocalityAgency("a3", "Austin", "TX"),
	}}
	svc := NewCandidateService(repo, &fakeMatchRepo{})

	req := &entities.PatientRequirements{PatientID: "p1", Location: "Austin, TX"}
	candidates, pageSize, err := svc.Fetch(context.Background(), req, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, 3, pageSize)
	require.Len(t, candidates, 2)
	assert.Equal(t, "a1", candidates[0].ID)
	assert.Equal(t, "a3", candidates[1].ID)
}

func TestFetch_ExcludesAlreadyMatchedAgencies(t *testing.T) {
	repo := &fakeAgencyRepo{agencies: []*entities.Agency{
		inLocalityAgency("a1", "Austin", "TX"),
		inLocalityAgency("a2", "Austin", "TX"),
	}}
	matches := &fakeMatchRepo{agencyIDs: []string{"a1"}}
	svc := NewCandidateService(repo, matches)

	req := &entities.PatientRequirements{PatientID: "p1", Location: "Austin, TX"}
	candidates, _, err := svc.Fetch(context.Background(), req, 0, 10)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a2", candidates[0].ID)
	assert.Equal(t, []string{"a1"}, repo.lastPage.ExcludedIDs)
}

func TestFetch_LocationIsCaseSensitive(t *testing.T) {
	repo := &fakeAgencyRepo{agencies: []*entities.Agency{
		inLocalityAgency("a1", "austin", "tx"),
	}}
	svc := NewCandidateService(repo, &fakeMatchRepo{})

	req := &entities.PatientRequirements{PatientID: "p1", Location: "Austin, TX"}
	candidates, pageSize, err := svc.Fetch(context.Background(), req, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, pageSize)
	assert.Empty(t, candidates)
}

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		in    string
		city  string
		state string
	}{
		{"Austin, TX", "Austin", "TX"},
		{"New York, NY", "New York", "NY"},
		{"Nowhere", "Nowhere", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			city, state := splitLocation(tt.in)
			assert.Equal(t, tt.city, city)
			assert.Equal(t, tt.state, state)
		})
	}
}
