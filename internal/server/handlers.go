package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// dateRange resolves start/end from explicit query params or a period
// shorthand: today, wtd (Monday-start week to date), mtd.
func dateRange(r *http.Request) (string, string) {
	q := r.URL.Query()
	if start, end := q.Get("start"), q.Get("end"); start != "" && end != "" {
		return start, end
	}

	now := time.Now()
	end := now.Format("2006-01-02")
	switch q.Get("period") {
	case "wtd":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return now.AddDate(0, 0, -(weekday - 1)).Format("2006-01-02"), end
	case "mtd":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02"), end
	default:
		return end, end
	}
}

func restaurantID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get("restaurant_id"), 10, 64)
	return id
}

func (s *Server) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := s.store.ListActiveRestaurants(r.Context())
	if err != nil {
		zap.L().Error("server: list restaurants failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list restaurants")
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (s *Server) handleScrapeTrigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	// An empty body means "yesterday"; a malformed one is a client error.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.guard.TryAcquire() {
		writeError(w, http.StatusConflict, "a scrape run is already active")
		return
	}
	defer s.guard.Release()

	report := s.runner.Run(r.Context(), req.Date)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.store.ListScrapeLog(r.Context(), limit)
	if err != nil {
		zap.L().Error("server: list scrape log failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read scrape log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active": s.guard.Active(),
		"recent": entries,
	})
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	ctx := r.Context()

	daily, err := s.store.ConsolidatedSales(ctx, start, end)
	if err != nil {
		zap.L().Error("server: consolidated sales failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	comparison, err := s.store.SalesComparison(ctx, start, end)
	if err != nil {
		zap.L().Error("server: sales comparison failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	prime, err := s.store.ConsolidatedPrimeCost(ctx, start, end)
	if err != nil {
		zap.L().Error("server: prime cost summary failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	var totalSales float64
	var totalGuests int64
	for _, d := range daily {
		totalSales += d.NetSales
		totalGuests += d.GuestCount
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":      map[string]string{"start": start, "end": end},
		"net_sales":   totalSales,
		"guest_count": totalGuests,
		"prime_cost":  prime,
		"daily":       daily,
		"restaurants": comparison,
	})
}

func (s *Server) handleDashboardSales(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	ctx := r.Context()

	var daily any
	var err error
	if id := restaurantID(r); id > 0 {
		daily, err = s.store.SalesByDateRange(ctx, id, start, end)
	} else {
		daily, err = s.store.ConsolidatedSales(ctx, start, end)
	}
	if err != nil {
		zap.L().Error("server: sales query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read sales")
		return
	}

	comparison, err := s.store.SalesComparison(ctx, start, end)
	if err != nil {
		zap.L().Error("server: sales comparison failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read sales")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":        map[string]string{"start": start, "end": end},
		"daily":         daily,
		"by_restaurant": comparison,
	})
}

func (s *Server) handleDashboardComparison(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	comparison, err := s.store.SalesComparison(r.Context(), start, end)
	if err != nil {
		zap.L().Error("server: sales comparison failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read comparison")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":      map[string]string{"start": start, "end": end},
		"restaurants": comparison,
	})
}

func (s *Server) handleDashboardPrimeCost(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	ctx := r.Context()

	trend, err := s.store.PrimeCostTrend(ctx, start, end, restaurantID(r))
	if err != nil {
		zap.L().Error("server: prime cost trend failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read prime cost")
		return
	}
	summary, err := s.store.ConsolidatedPrimeCost(ctx, start, end)
	if err != nil {
		zap.L().Error("server: prime cost summary failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read prime cost")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":  map[string]string{"start": start, "end": end},
		"trend":   trend,
		"summary": summary,
	})
}
