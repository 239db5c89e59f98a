package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranch-group/ops-dashboard/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetRestaurantByVendorID_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM restaurants WHERE vendor_store_id = \$1`).
		WithArgs("NOPE-000").
		WillReturnError(pgx.ErrNoRows)

	r, err := s.GetRestaurantByVendorID(context.Background(), "NOPE-000")
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRestaurantByVendorID_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM restaurants WHERE vendor_store_id = \$1`).
		WithArgs("LHR-FRI").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "short_name", "brand", "city", "state",
			"vendor_store_id", "netchex_company_name", "is_active",
		}).AddRow(int64(3), "La Hacienda Ranch Frisco", "Frisco", "La Hacienda Ranch",
			"Frisco", "TX", "LHR-FRI", "", true))

	r, err := s.GetRestaurantByVendorID(context.Background(), "LHR-FRI")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, int64(3), r.ID)
	assert.Equal(t, "Frisco", r.ShortName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertSales(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO daily_sales`).
		WithArgs(int64(1), "2026-08-27", 10250.40, 9800.15,
			120.0, 0.0, 0.0, 0.0,
			int64(412), int64(198), 0.0, 0.0,
			0.0, 0.0, 0.0, "aloha_scrape", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertSales(context.Background(), model.DailySales{
		RestaurantID: 1,
		BusinessDate: "2026-08-27",
		GrossSales:   10250.40,
		NetSales:     9800.15,
		Comps:        120.0,
		GuestCount:   412,
		CheckCount:   198,
		DataSource:   "aloha_scrape",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPrimeCost_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM daily_prime_cost WHERE restaurant_id = \$1 AND business_date = \$2`).
		WithArgs(int64(1), "2026-08-27").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetPrimeCost(context.Background(), 1, "2026-08-27")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SeedRestaurants_CountsInserted(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO restaurants`).
		WithArgs("La Hacienda Ranch Frisco", "Frisco", "La Hacienda Ranch", "Frisco", "TX", "LHR-FRI", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO restaurants`).
		WithArgs("Mariano's Arlington", "Arlington", "Mariano's", "Arlington", "TX", "MAR-ARL", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 0)) // conflict, already seeded

	n, err := s.SeedRestaurants(context.Background(), []model.Restaurant{
		{Name: "La Hacienda Ranch Frisco", ShortName: "Frisco", Brand: "La Hacienda Ranch", City: "Frisco", State: "TX", VendorStoreID: "LHR-FRI"},
		{Name: "Mariano's Arlington", ShortName: "Arlington", Brand: "Mariano's", City: "Arlington", State: "TX", VendorStoreID: "MAR-ARL"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LogScrape_UsesProvidedID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	completed := time.Date(2026, 8, 28, 7, 31, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO scrape_log`).
		WithArgs("run-abc", "sales_dashboard", "2026-08-27", "success", 5, "", completed, 42).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.LogScrape(context.Background(), model.ScrapeLogEntry{
		ID:               "run-abc",
		ScrapeType:       "sales_dashboard",
		BusinessDate:     "2026-08-27",
		Status:           model.ScrapeStatusSuccess,
		RecordsProcessed: 5,
		CompletedAt:      completed,
		DurationSeconds:  42,
	})
	require.NoError(t, err)
	assert.Equal(t, "run-abc", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ConsolidatedPrimeCost(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM daily_prime_cost dpc`).
		WithArgs("2026-08-01", "2026-08-31").
		WillReturnRows(pgxmock.NewRows([]string{
			"total_sales", "total_cogs", "total_labor", "total_prime_cost",
			"cogs_percent", "labor_percent", "prime_cost_percent",
			"gross_profit", "gross_profit_percent", "days_count",
		}).AddRow(200000.0, 60000.0, 66000.0, 126000.0, 30.0, 33.0, 63.0, 140000.0, 70.0, int64(31)))

	sum, err := s.ConsolidatedPrimeCost(context.Background(), "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 126000.0, sum.TotalPrimeCost)
	assert.Equal(t, 63.0, sum.PrimeCostPercent)
	assert.Equal(t, int64(31), sum.DaysCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
