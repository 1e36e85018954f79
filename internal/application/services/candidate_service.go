package services

import (
	"context"
	"strings"

	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/repositories"
)

// CandidateService retrieves the agencies eligible for one matching run:
// published, not already matched to the patient, and serving the patient's
// locality. Pagination happens at the storage layer before the locality
// filter, so a page may shrink after filtering.
type CandidateService struct {
	agencies repositories.AgencyRepository
	matches  repositories.MatchRepository
}

// NewCandidateService creates a new candidate service
func NewCandidateService(agencies repositories.AgencyRepository, matches repositories.MatchRepository) *CandidateService {
	return &CandidateService{
		agencies: agencies,
		matches:  matches,
	}
}

// Fetch returns the in-locality candidates for the requested page along with
// the pre-filter page size, which callers use as the continuation signal.
func (s *CandidateService) Fetch(ctx context.Context, req *entities.PatientRequirements, offset, limit int) ([]*entities.Agency, int, error) {
	excluded, err := s.matches.ListAgencyIDsByPatient(ctx, req.PatientID)
	if err != nil {
		return nil, 0, err
	}

	page, err := s.agencies.ListPublished(ctx, repositories.AgencyPage{
		ExcludedIDs: excluded,
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		return nil, 0, err
	}

	city, state := splitLocation(req.Location)

	candidates := make([]*entities.Agency, 0, len(page))
	for _, agency := range page {
		if agency.ServesLocality(city, state) {
			candidates = append(candidates, agency)
		}
	}

	return candidates, len(page), nil
}

// splitLocation parses a "City, State" string. Strings without a separator
// are treated as a city with no state and will match no service area.
func splitLocation(location string) (city, state string) {
	parts := strings.SplitN(location, ", ", 2)
	if len(parts) != 2 {
		return location, ""
	}
	return parts[0], parts[1]
}
