package server

import (
	"encoding/json"
	"math"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ranch-group/ops-dashboard/internal/model"
	"github.com/ranch-group/ops-dashboard/internal/primecost"
)

// importError reports one rejected record.
type importError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type importResult struct {
	Success  bool          `json:"success"`
	Imported int           `json:"imported"`
	Errors   []importError `json:"errors,omitempty"`
}

type factKey struct {
	restaurantID int64
	businessDate string
}

// loadBurden fills total_labor_burden from raw wages when the source did not
// supply one of its own.
func (s *Server) loadBurden(row model.DailyLabor) model.DailyLabor {
	if row.TotalBurden == 0 && row.TotalLaborCost > 0 && s.opts.BurdenRate > 0 {
		row.TotalBurden = math.Round(row.TotalLaborCost*(1+s.opts.BurdenRate)*100) / 100
	}
	return row
}

func (s *Server) handleImportSales(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data []model.DailySales `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == nil {
		writeError(w, http.StatusBadRequest, "data must be an array")
		return
	}

	res := importResult{Success: true}
	keys := map[factKey]bool{}
	for i, row := range req.Data {
		if row.RestaurantID == 0 || row.BusinessDate == "" {
			res.Errors = append(res.Errors, importError{Index: i, Error: "missing restaurant_id or business_date"})
			continue
		}
		if row.DataSource == "" {
			row.DataSource = "manual"
		}
		if err := s.store.UpsertSales(r.Context(), row); err != nil {
			res.Errors = append(res.Errors, importError{Index: i, Error: err.Error()})
			continue
		}
		res.Imported++
		keys[factKey{row.RestaurantID, row.BusinessDate}] = true
	}

	s.recomputeKeys(r, keys)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleImportLabor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data []model.DailyLabor `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == nil {
		writeError(w, http.StatusBadRequest, "data must be an array")
		return
	}

	res := importResult{Success: true}
	keys := map[factKey]bool{}
	for i, row := range req.Data {
		if row.RestaurantID == 0 || row.BusinessDate == "" {
			res.Errors = append(res.Errors, importError{Index: i, Error: "missing restaurant_id or business_date"})
			continue
		}
		if row.DataSource == "" {
			row.DataSource = "manual"
		}
		row = s.loadBurden(row)
		if err := s.store.UpsertLabor(r.Context(), row); err != nil {
			res.Errors = append(res.Errors, importError{Index: i, Error: err.Error()})
			continue
		}
		res.Imported++
		keys[factKey{row.RestaurantID, row.BusinessDate}] = true
	}

	s.recomputeKeys(r, keys)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleImportFoodCost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data []model.DailyFoodCost `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == nil {
		writeError(w, http.StatusBadRequest, "data must be an array")
		return
	}

	res := importResult{Success: true}
	keys := map[factKey]bool{}
	for i, row := range req.Data {
		if row.RestaurantID == 0 || row.BusinessDate == "" {
			res.Errors = append(res.Errors, importError{Index: i, Error: "missing restaurant_id or business_date"})
			continue
		}
		if row.DataSource == "" {
			row.DataSource = "manual"
		}
		if row.TotalCOGS == 0 {
			row.TotalCOGS = row.FoodCost + row.BeverageCost + row.AlcoholCost
		}
		if err := s.store.UpsertFoodCost(r.Context(), row); err != nil {
			res.Errors = append(res.Errors, importError{Index: i, Error: err.Error()})
			continue
		}
		res.Imported++
		keys[factKey{row.RestaurantID, row.BusinessDate}] = true
	}

	s.recomputeKeys(r, keys)
	writeJSON(w, http.StatusOK, res)
}

// handleImportBulk accepts all three fact types at once and recomputes prime
// cost once per touched (restaurant, date) key.
func (s *Server) handleImportBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sales    []model.DailySales    `json:"sales"`
		Labor    []model.DailyLabor    `json:"labor"`
		FoodCost []model.DailyFoodCost `json:"food_cost"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results := map[string]importResult{}
	keys := map[factKey]bool{}
	ctx := r.Context()

	sales := importResult{Success: true}
	for i, row := range req.Sales {
		if row.RestaurantID == 0 || row.BusinessDate == "" {
			sales.Errors = append(sales.Errors, importError{Index: i, Error: "missing restaurant_id or business_date"})
			continue
		}
		if row.DataSource == "" {
			row.DataSource = "manual"
		}
		if err := s.store.UpsertSales(ctx, row); err != nil {
			sales.Errors = append(sales.Errors, importError{Index: i, Error: err.Error()})
			continue
		}
		sales.Imported++
		keys[factKey{row.RestaurantID, row.BusinessDate}] = true
	}
	results["sales"] = sales

	labor := importResult{Success: true}
	for i, row := range req.Labor {
		if row.RestaurantID == 0 || row.BusinessDate == "" {
			labor.Errors = append(labor.Errors, importError{Index: i, Error: "missing restaurant_id or business_date"})
			continue
		}
		if row.DataSource == "" {
			row.DataSource = "manual"
		}
		row = s.loadBurden(row)
		if err := s.store.UpsertLabor(ctx, row); err != nil {
			labor.Errors = append(labor.Errors, importError{Index: i, Error: err.Error()})
			continue
		}
		labor.Imported++
		keys[factKey{row.RestaurantID, row.BusinessDate}] = true
	}
	results["labor"] = labor

	food := importResult{Success: true}
	for i, row := range req.FoodCost {
		if row.RestaurantID == 0 || row.BusinessDate == "" {
			food.Errors = append(food.Errors, importError{Index: i, Error: "missing restaurant_id or business_date"})
			continue
		}
		if row.DataSource == "" {
			row.DataSource = "manual"
		}
		if row.TotalCOGS == 0 {
			row.TotalCOGS = row.FoodCost + row.BeverageCost + row.AlcoholCost
		}
		if err := s.store.UpsertFoodCost(ctx, row); err != nil {
			food.Errors = append(food.Errors, importError{Index: i, Error: err.Error()})
			continue
		}
		food.Imported++
		keys[factKey{row.RestaurantID, row.BusinessDate}] = true
	}
	results["food_cost"] = food

	recomputed := s.recomputeKeys(r, keys)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":                 true,
		"results":                 results,
		"prime_cost_recalculated": recomputed,
	})
}

// recomputeKeys re-derives prime cost for every touched key. Keys are
// disjoint, so the recomputes can run in parallel without two writers ever
// sharing a (restaurant, date) row.
func (s *Server) recomputeKeys(r *http.Request, keys map[factKey]bool) int {
	if len(keys) == 0 {
		return 0
	}
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for key := range keys {
		g.Go(func() error {
			if err := primecost.Recompute(ctx, s.store, key.restaurantID, key.businessDate, s.opts.TargetPrimePercent); err != nil {
				zap.L().Error("server: prime cost recompute failed",
					zap.Int64("restaurant_id", key.restaurantID),
					zap.String("business_date", key.businessDate),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Error("server: recompute group failed", zap.Error(err))
	}
	return len(keys)
}
