package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carematch/internal/domain/repositories"
	"github.com/zatekoja/carematch/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
)

func newMockAgencyAdapter(t *testing.T) (*AgencyAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewAgencyAdapter(postgres.NewClientWithDB(db)).(*AgencyAdapter)
	return adapter, mock
}

func agencyColumns() []string {
	return []string{"id", "business_name", "status", "created_at", "updated_at"}
}

func expectProjections(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT .+ FROM "agency_service_areas"`).
		WillReturnRows(sqlmock.NewRows([]string{"agency_id", "city", "state"}).
			AddRow("a1", "Austin", "TX"))
	mock.ExpectQuery(`SELECT .+ FROM "agency_service_ratings"`).
		WillReturnRows(sqlmock.NewRows([]string{"agency_id", "service_slug", "stars"}).
			AddRow("a1", "medication-management", 5.0))
	mock.ExpectQuery(`SELECT .+ FROM "agency_service_rates"`).
		WillReturnRows(sqlmock.NewRows([]string{"agency_id", "service_slug", "min_amount", "max_amount", "pricing_format"}).
			AddRow("a1", "medication-management", 900.0, 1100.0, "monthly"))
}

func TestGetByID_AttachesProjections(t *testing.T) {
	adapter, mock := newMockAgencyAdapter(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM "agencies"`).
		WillReturnRows(sqlmock.NewRows(agencyColumns()).
			AddRow("a1", "Sunrise Care", "published", now, now))
	expectProjections(mock)

	agency, err := adapter.GetByID(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, "Sunrise Care", agency.BusinessName)
	require.Len(t, agency.ServiceAreas, 1)
	assert.True(t, agency.ServesLocality("Austin", "TX"))
	require.Len(t, agency.Ratings, 1)
	stars, ok := agency.RatingFor("medication-management")
	assert.True(t, ok)
	assert.Equal(t, 5.0, stars)
	require.Len(t, agency.Rates, 1)
	assert.Equal(t, "monthly", agency.Rates[0].PricingFormat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	adapter, mock := newMockAgencyAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "agencies"`).
		WillReturnRows(sqlmock.NewRows(agencyColumns()))

	_, err := adapter.GetByID(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListPublished_EmptyPage(t *testing.T) {
	adapter, mock := newMockAgencyAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "agencies"`).
		WillReturnRows(sqlmock.NewRows(agencyColumns()))

	agencies, err := adapter.ListPublished(context.Background(), repositories.AgencyPage{Limit: 10})

	require.NoError(t, err)
	assert.Empty(t, agencies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPublished_AttachesProjections(t *testing.T) {
	adapter, mock := newMockAgencyAdapter(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM "agencies"`).
		WillReturnRows(sqlmock.NewRows(agencyColumns()).
			AddRow("a1", "Sunrise Care", "published", now, now))
	expectProjections(mock)

	agencies, err := adapter.ListPublished(context.Background(), repositories.AgencyPage{
		ExcludedIDs: []string{"a9"},
		Limit:       10,
	})

	require.NoError(t, err)
	require.Len(t, agencies, 1)
	assert.Len(t, agencies[0].Ratings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
