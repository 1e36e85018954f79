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

// AgencyAdapter implements the AgencyRepository interface
type AgencyAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAgencyAdapter creates a new agency adapter
func NewAgencyAdapter(client *postgres.Client) repositories.AgencyRepository {
	return &AgencyAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a single agency with service areas, ratings and rates
func (a *AgencyAdapter) GetByID(ctx context.Context, id string) (*entities.Agency, error) {
	query, args, err := a.db.Select(
		"id", "business_name", "status", "created_at", "updated_at",
	).From("agencies").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build agency query", err)
	}

	agency := &entities.Agency{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&agency.ID,
		&agency.BusinessName,
		&agency.Status,
		&agency.CreatedAt,
		&agency.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("agency with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get agency", err)
	}

	if err := a.attachProjections(ctx, []*entities.Agency{agency}); err != nil {
		return nil, err
	}

	return agency, nil
}

// ListPublished retrieves a page of published agencies, excluding the given
// IDs. Pagination happens here, at the storage layer; locality filtering is
// applied by the caller afterwards.
func (a *AgencyAdapter) ListPublished(ctx context.Context, page repositories.AgencyPage) ([]*entities.Agency, error) {
	ds := a.db.Select(
		"id", "business_name", "status", "created_at", "updated_at",
	).From("agencies").
		Where(goqu.Ex{"status": entities.AgencyStatusPublished})

	if len(page.ExcludedIDs) > 0 {
		ds = ds.Where(goqu.C("id").NotIn(page.ExcludedIDs))
	}

	ds = ds.Order(goqu.I("id").Asc())

	if page.Limit > 0 {
		ds = ds.Limit(uint(page.Limit))
	}
	if page.Offset > 0 {
		ds = ds.Offset(uint(page.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build agency list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list agencies", err)
	}
	defer rows.Close()

	agencies := []*entities.Agency{}
	for rows.Next() {
		agency := &entities.Agency{}
		err := rows.Scan(
			&agency.ID,
			&agency.BusinessName,
			&agency.Status,
			&agency.CreatedAt,
			&agency.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan agency", err)
		}
		agencies = append(agencies, agency)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating agencies", err)
	}

	if err := a.attachProjections(ctx, agencies); err != nil {
		return nil, err
	}

	return agencies, nil
}

// attachProjections loads service areas, ratings and rates for the given
// agencies in three batched queries.
func (a *AgencyAdapter) attachProjections(ctx context.Context, agencies []*entities.Agency) error {
	if len(agencies) == 0 {
		return nil
	}

	ids := make([]string, len(agencies))
	byID := make(map[string]*entities.Agency, len(agencies))
	for i, agency := range agencies {
		ids[i] = agency.ID
		byID[agency.ID] = agency
	}

	if err := a.loadServiceAreas(ctx, ids, byID); err != nil {
		return err
	}
	if err := a.loadRatings(ctx, ids, byID); err != nil {
		return err
	}
	return a.loadRates(ctx, ids, byID)
}

func (a *AgencyAdapter) loadServiceAreas(ctx context.Context, ids []string, byID map[string]*entities.Agency) error {
	query, args, err := a.db.Select("agency_id", "city", "state").
		From("agency_service_areas").
		Where(goqu.C("agency_id").In(ids)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build service area query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to list service areas", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agencyID string
		var area entities.ServiceArea
		if err := rows.Scan(&agencyID, &area.City, &area.State); err != nil {
			return apperrors.NewInternalError("failed to scan service area", err)
		}
		if agency, ok := byID[agencyID]; ok {
			agency.ServiceAreas = append(agency.ServiceAreas, area)
		}
	}

	return rows.Err()
}

func (a *AgencyAdapter) loadRatings(ctx context.Context, ids []string, byID map[string]*entities.Agency) error {
	query, args, err := a.db.Select("agency_id", "service_slug", "stars").
		From("agency_service_ratings").
		Where(goqu.C("agency_id").In(ids)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build rating query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to list service ratings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agencyID string
		var rating entities.ServiceRating
		if err := rows.Scan(&agencyID, &rating.ServiceSlug, &rating.Stars); err != nil {
			return apperrors.NewInternalError("failed to scan service rating", err)
		}
		if agency, ok := byID[agencyID]; ok {
			agency.Ratings = append(agency.Ratings, rating)
		}
	}

	return rows.Err()
}

func (a *AgencyAdapter) loadRates(ctx context.Context, ids []string, byID map[string]*entities.Agency) error {
	query, args, err := a.db.Select("agency_id", "service_slug", "min_amount", "max_amount", "pricing_format").
		From("agency_service_rates").
		Where(goqu.C("agency_id").In(ids)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build rate query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to list service rates", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agencyID string
		var rate entities.ServiceRate
		if err := rows.Scan(&agencyID, &rate.ServiceSlug, &rate.MinAmount, &rate.MaxAmount, &rate.PricingFormat); err != nil {
			return apperrors.NewInternalError("failed to scan service rate", err)
		}
		if agency, ok := byID[agencyID]; ok {
			agency.Rates = append(agency.Rates, rate)
		}
	}

	return rows.Err()
}
