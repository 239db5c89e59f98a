package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranch-group/ops-dashboard/internal/model"
	"github.com/ranch-group/ops-dashboard/internal/pipeline"
	"github.com/ranch-group/ops-dashboard/internal/store"
)

// stubRunner returns a canned report without touching a browser.
type stubRunner struct {
	report *model.RunReport
	called int
}

func (r *stubRunner) Run(_ context.Context, date string) *model.RunReport {
	r.called++
	if r.report != nil {
		return r.report
	}
	return &model.RunReport{Date: date, Status: model.ScrapeStatusSuccess}
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	srv := New(st, &stubRunner{}, pipeline.NewGuard(), Options{})
	return srv, st
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

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestBasicAuth_Enforced(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	srv := New(st, &stubRunner{}, pipeline.NewGuard(), Options{
		BasicAuthUser: "ops", BasicAuthPass: "secret",
	})
	router := srv.Router()

	// Health stays open.
	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Everything else requires credentials.
	rec = doJSON(t, router, http.MethodGet, "/api/restaurants", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
	req.SetBasicAuth("ops", "secret")
	auth := httptest.NewRecorder()
	router.ServeHTTP(auth, req)
	assert.Equal(t, http.StatusOK, auth.Code)
}

func TestScrapeTrigger_ReturnsReport(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/scrape/trigger",
		map[string]string{"date": "2026-08-27"})

	require.Equal(t, http.StatusOK, rec.Code)
	var report model.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "2026-08-27", report.Date)
	assert.Equal(t, model.ScrapeStatusSuccess, report.Status)
}

func TestScrapeTrigger_RejectsConcurrentRun(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	guard := pipeline.NewGuard()
	srv := New(st, &stubRunner{}, guard, Options{})

	require.True(t, guard.TryAcquire())
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/scrape/trigger", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	guard.Release()

	rec = doJSON(t, srv.Router(), http.MethodPost, "/api/scrape/trigger", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, guard.Active())
}

func TestScrapeStatus(t *testing.T) {
	srv, st := newTestServer(t)
	_, err := st.LogScrape(context.Background(), model.ScrapeLogEntry{
		ScrapeType: "sales_dashboard", BusinessDate: "2026-08-27",
		Status: model.ScrapeStatusSuccess, RecordsProcessed: 5,
	})
	require.NoError(t, err)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/scrape/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Active bool                   `json:"active"`
		Recent []model.ScrapeLogEntry `json:"recent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Active)
	require.Len(t, resp.Recent, 1)
	assert.Equal(t, 5, resp.Recent[0].RecordsProcessed)
}

func TestImportSales_UpsertsAndRecomputes(t *testing.T) {
	srv, st := newTestServer(t)
	id := seedRestaurant(t, st)

	body := map[string]any{"data": []model.DailySales{
		{RestaurantID: id, BusinessDate: "2026-08-27", NetSales: 10000, GrossSales: 10400},
	}}
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/import/sales", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var res importResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Imported)
	assert.Empty(t, res.Errors)

	ctx := context.Background()
	sales, err := st.GetSales(ctx, id, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, sales)
	assert.Equal(t, "manual", sales.DataSource)

	prime, err := st.GetPrimeCost(ctx, id, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, prime)
	assert.Equal(t, 10000.0, prime.NetSales)
}

func TestImportLabor_LoadsBurdenOntoRawWages(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	srv := New(st, &stubRunner{}, pipeline.NewGuard(), Options{BurdenRate: 0.22})
	id := seedRestaurant(t, st)

	body := map[string]any{"data": []model.DailyLabor{
		// Raw wages only: burden gets the 1.22 loading.
		{RestaurantID: id, BusinessDate: "2026-08-27", TotalLaborCost: 3000},
		// A supplied burden is kept as-is.
		{RestaurantID: id, BusinessDate: "2026-08-28", TotalLaborCost: 3000, TotalBurden: 3100},
	}}
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/import/labor", body)
	require.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()
	loaded, err := st.GetLabor(ctx, id, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 3660.0, loaded.TotalBurden)

	kept, err := st.GetLabor(ctx, id, "2026-08-28")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, 3100.0, kept.TotalBurden)
}

func TestImportSales_RejectsRecordsWithoutKey(t *testing.T) {
	srv, _ := newTestServer(t)

	body := map[string]any{"data": []model.DailySales{
		{BusinessDate: "2026-08-27", NetSales: 100},
	}}
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/import/sales", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var res importResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 0, res.Imported)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error, "missing restaurant_id")
}

func TestImportBulk_RecomputesOncePerKey(t *testing.T) {
	srv, st := newTestServer(t)
	id := seedRestaurant(t, st)

	body := map[string]any{
		"sales": []model.DailySales{
			{RestaurantID: id, BusinessDate: "2026-08-27", NetSales: 10000},
		},
		"labor": []model.DailyLabor{
			{RestaurantID: id, BusinessDate: "2026-08-27", TotalBurden: 3660},
		},
		"food_cost": []model.DailyFoodCost{
			{RestaurantID: id, BusinessDate: "2026-08-27", FoodCost: 2200, BeverageCost: 600},
		},
	}
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/import/bulk", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success    bool `json:"success"`
		Recomputed int  `json:"prime_cost_recalculated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Recomputed)

	prime, err := st.GetPrimeCost(context.Background(), id, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, prime)
	// total_cogs defaulted to food + beverage, labor uses the burden.
	assert.Equal(t, 2800.0, prime.TotalCOGS)
	assert.Equal(t, 3660.0, prime.TotalLabor)
	assert.Equal(t, 6460.0, prime.PrimeCost)
}

func TestDashboardPrimeCost(t *testing.T) {
	srv, st := newTestServer(t)
	id := seedRestaurant(t, st)

	require.NoError(t, st.UpsertPrimeCost(context.Background(), model.DailyPrimeCost{
		RestaurantID: id, BusinessDate: "2026-08-27",
		NetSales: 10000, TotalCOGS: 2800, TotalLabor: 3660, PrimeCost: 6460,
	}))

	path := fmt.Sprintf("/api/dashboard/prime-cost?start=%s&end=%s", "2026-08-01", "2026-08-31")
	rec := doJSON(t, srv.Router(), http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Trend   []store.PrimeCostTrendRow `json:"trend"`
		Summary store.PrimeCostSummary    `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Trend, 1)
	assert.Equal(t, 6460.0, resp.Trend[0].PrimeCost)
	assert.Equal(t, 64.6, resp.Summary.PrimeCostPercent)
}

func TestDashboardSales_PerRestaurant(t *testing.T) {
	srv, st := newTestServer(t)
	id := seedRestaurant(t, st)

	require.NoError(t, st.UpsertSales(context.Background(), model.DailySales{
		RestaurantID: id, BusinessDate: "2026-08-27", NetSales: 5000, DataSource: "manual",
	}))

	path := fmt.Sprintf("/api/dashboard/sales?start=2026-08-01&end=2026-08-31&restaurant_id=%d", id)
	rec := doJSON(t, srv.Router(), http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Daily []model.DailySales `json:"daily"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Daily, 1)
	assert.Equal(t, 5000.0, resp.Daily[0].NetSales)
}
