package primecost

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranch-group/ops-dashboard/internal/model"
	"github.com/ranch-group/ops-dashboard/internal/store"
)

func TestCompute_FullInputs(t *testing.T) {
	sales := &model.DailySales{NetSales: 10000}
	labor := &model.DailyLabor{TotalLaborCost: 3000, TotalBurden: 3660}
	food := &model.DailyFoodCost{TotalCOGS: 2800}

	row := Compute(1, "2026-08-27", sales, labor, food, 65)

	// Burdened labor wins over raw wage cost.
	assert.Equal(t, 3660.0, row.TotalLabor)
	assert.Equal(t, 6460.0, row.PrimeCost)
	assert.Equal(t, 28.0, row.COGSPercent)
	assert.Equal(t, 36.6, row.LaborPercent)
	assert.Equal(t, 64.6, row.PrimeCostPercent)
	assert.Equal(t, -0.4, row.VariancePercent)
	assert.Equal(t, -40.0, row.VarianceDollars)
	// Gross profit is what remains after the full prime cost, not just COGS.
	assert.Equal(t, 3540.0, row.GrossProfit)
	assert.Equal(t, 35.4, row.GrossProfitPercent)
}

func TestCompute_FallsBackToWageCostWithoutBurden(t *testing.T) {
	labor := &model.DailyLabor{TotalLaborCost: 3000}

	row := Compute(1, "2026-08-27", &model.DailySales{NetSales: 10000}, labor, nil, 65)
	assert.Equal(t, 3000.0, row.TotalLabor)
	assert.Equal(t, 30.0, row.LaborPercent)
}

func TestCompute_ZeroNetSalesLeavesPercentsZero(t *testing.T) {
	labor := &model.DailyLabor{TotalBurden: 1200}
	food := &model.DailyFoodCost{TotalCOGS: 400}

	row := Compute(1, "2026-08-27", nil, labor, food, 65)

	assert.Equal(t, 1600.0, row.PrimeCost)
	assert.Equal(t, 0.0, row.PrimeCostPercent)
	assert.Equal(t, 0.0, row.LaborPercent)
	assert.Equal(t, 0.0, row.COGSPercent)
	assert.Equal(t, 0.0, row.VariancePercent)
	assert.Equal(t, 0.0, row.VarianceDollars)
}

func TestCompute_DefaultsTarget(t *testing.T) {
	row := Compute(1, "2026-08-27", &model.DailySales{NetSales: 100}, nil, nil, 0)
	assert.Equal(t, DefaultTargetPercent, row.TargetPrimePercent)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedRestaurant(t *testing.T, st store.Store) int64 {
	t.Helper()
	ctx := context.Background()
	_, err := st.SeedRestaurants(ctx, []model.Restaurant{{
		Name: "La Hacienda Ranch Frisco", ShortName: "Frisco",
		Brand: "La Hacienda Ranch", City: "Frisco", State: "TX", VendorStoreID: "LHR-FRI",
	}})
	require.NoError(t, err)
	r, err := st.GetRestaurantByVendorID(ctx, "LHR-FRI")
	require.NoError(t, err)
	require.NotNil(t, r)
	return r.ID
}

func TestRecompute_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedRestaurant(t, st)

	require.NoError(t, st.UpsertSales(ctx, model.DailySales{
		RestaurantID: id, BusinessDate: "2026-08-27", NetSales: 10000, DataSource: "manual",
	}))
	require.NoError(t, st.UpsertLabor(ctx, model.DailyLabor{
		RestaurantID: id, BusinessDate: "2026-08-27", TotalLaborCost: 3000, TotalBurden: 3660, DataSource: "manual",
	}))
	require.NoError(t, st.UpsertFoodCost(ctx, model.DailyFoodCost{
		RestaurantID: id, BusinessDate: "2026-08-27", TotalCOGS: 2800, DataSource: "manual",
	}))

	require.NoError(t, Recompute(ctx, st, id, "2026-08-27", 65))
	first, err := st.GetPrimeCost(ctx, id, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Running again with unchanged inputs converges to the same row.
	require.NoError(t, Recompute(ctx, st, id, "2026-08-27", 65))
	second, err := st.GetPrimeCost(ctx, id, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.PrimeCost, second.PrimeCost)
	assert.Equal(t, first.PrimeCostPercent, second.PrimeCostPercent)
	assert.Equal(t, first.VarianceDollars, second.VarianceDollars)
}

func TestRecompute_PartialInputs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedRestaurant(t, st)

	// Sales only; labor and food cost arrive later.
	require.NoError(t, st.UpsertSales(ctx, model.DailySales{
		RestaurantID: id, BusinessDate: "2026-08-27", NetSales: 10000, DataSource: "aloha_scrape",
	}))
	require.NoError(t, Recompute(ctx, st, id, "2026-08-27", 65))

	row, err := st.GetPrimeCost(ctx, id, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 10000.0, row.NetSales)
	assert.Equal(t, 0.0, row.PrimeCost)

	// Labor import lands; recompute folds it in.
	require.NoError(t, st.UpsertLabor(ctx, model.DailyLabor{
		RestaurantID: id, BusinessDate: "2026-08-27", TotalBurden: 3660, DataSource: "netchex_import",
	}))
	require.NoError(t, Recompute(ctx, st, id, "2026-08-27", 65))

	row, err = st.GetPrimeCost(ctx, id, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 3660.0, row.TotalLabor)
	assert.Equal(t, 36.6, row.LaborPercent)
}

func TestRecompute_NoFactsIsNoOp(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedRestaurant(t, st)

	require.NoError(t, Recompute(ctx, st, id, "2026-08-27", 65))

	row, err := st.GetPrimeCost(ctx, id, "2026-08-27")
	require.NoError(t, err)
	assert.Nil(t, row)
}
