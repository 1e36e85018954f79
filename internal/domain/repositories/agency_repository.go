package repositories

import (
	"context"

	"github.com/zatekoja/carematch/internal/domain/entities"
)

// AgencyPage defines the storage-layer window for candidate retrieval.
// Pagination applies before locality filtering, so a page may shrink once
// out-of-locality agencies are dropped.
type AgencyPage struct {
	ExcludedIDs []string
	Offset      int
	Limit       int
}

// AgencyRepository defines read access to agency records with their rating
// and rate projections.
type AgencyRepository interface {
	// GetByID retrieves a single agency with service areas, ratings and rates
	GetByID(ctx context.Context, id string) (*entities.Agency, error)

	// ListPublished retrieves a page of published agencies, excluding the
	// given IDs, with service areas, ratings and rates attached
	ListPublished(ctx context.Context, page AgencyPage) ([]*entities.Agency, error)
}
