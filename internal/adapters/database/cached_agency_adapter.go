package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/providers"
	"github.com/zatekoja/carematch/internal/domain/repositories"
)

// CachedAgencyAdapter wraps an AgencyRepository with read-through caching.
// Agency profiles change rarely compared to how often matching runs read
// them, so short TTLs are enough to absorb repeated runs.
type CachedAgencyAdapter struct {
	adapter repositories.AgencyRepository
	cache   providers.CacheProvider
}

// NewCachedAgencyAdapter creates a new cached agency adapter
func NewCachedAgencyAdapter(adapter repositories.AgencyRepository, cache providers.CacheProvider) repositories.AgencyRepository {
	return &CachedAgencyAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	agencyByIDTTL = 300
	agencyPageTTL = 120
)

func agencyCacheKey(id string) string {
	return fmt.Sprintf("agency:%s", id)
}

func agencyPageCacheKey(page repositories.AgencyPage) string {
	return fmt.Sprintf("agencies:published:%s:%d:%d",
		strings.Join(page.ExcludedIDs, ","), page.Offset, page.Limit)
}

// GetByID retrieves an agency by ID with caching
func (a *CachedAgencyAdapter) GetByID(ctx context.Context, id string) (*entities.Agency, error) {
	cacheKey := agencyCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var agency entities.Agency
		if err := json.Unmarshal(cached, &agency); err == nil {
			return &agency, nil
		}
		log.Warn().Str("agency_id", id).Msg("failed to unmarshal cached agency")
	}

	agency, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Fill the cache off the request path
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(agency); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, agencyByIDTTL); err != nil {
				log.Warn().Err(err).Str("agency_id", id).Msg("failed to cache agency")
			}
		}
	}()

	return agency, nil
}

// ListPublished retrieves a candidate page with caching
func (a *CachedAgencyAdapter) ListPublished(ctx context.Context, page repositories.AgencyPage) ([]*entities.Agency, error) {
	cacheKey := agencyPageCacheKey(page)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var agencies []*entities.Agency
		if err := json.Unmarshal(cached, &agencies); err == nil {
			return agencies, nil
		}
		log.Warn().Msg("failed to unmarshal cached agency page")
	}

	agencies, err := a.adapter.ListPublished(ctx, page)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(agencies); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, agencyPageTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache agency page")
			}
		}
	}()

	return agencies, nil
}
