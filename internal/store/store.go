package store

import (
	"context"

	"github.com/ranch-group/ops-dashboard/internal/model"
)

// ConsolidatedSalesRow is one business date summed across active restaurants.
type ConsolidatedSalesRow struct {
	BusinessDate string  `json:"business_date"`
	GrossSales   float64 `json:"gross_sales"`
	NetSales     float64 `json:"net_sales"`
	Comps        float64 `json:"comps"`
	Discounts    float64 `json:"discounts"`
	GuestCount   int64   `json:"guest_count"`
	CheckCount   int64   `json:"check_count"`
	AvgCheck     float64 `json:"avg_check"`
}

// SalesComparisonRow aggregates a restaurant's sales over a date range.
type SalesComparisonRow struct {
	RestaurantID  int64   `json:"restaurant_id"`
	Restaurant    string  `json:"restaurant_name"`
	ShortName     string  `json:"short_name"`
	Brand         string  `json:"brand"`
	TotalNetSales float64 `json:"total_net_sales"`
	TotalGuests   int64   `json:"total_guests"`
	DaysCount     int64   `json:"days_count"`
	AvgDailySales float64 `json:"avg_daily_sales"`
	AvgPerGuest   float64 `json:"avg_per_guest"`
}

// PrimeCostTrendRow is one business date of prime-cost figures, summed across
// the selected restaurants.
type PrimeCostTrendRow struct {
	BusinessDate     string  `json:"business_date"`
	NetSales         float64 `json:"net_sales"`
	TotalCOGS        float64 `json:"total_cogs"`
	TotalLabor       float64 `json:"total_labor"`
	PrimeCost        float64 `json:"prime_cost"`
	PrimeCostPercent float64 `json:"prime_cost_percent"`
	LaborPercent     float64 `json:"labor_percent"`
	COGSPercent      float64 `json:"cogs_percent"`
}

// PrimeCostSummary is the consolidated prime-cost rollup for a date range.
type PrimeCostSummary struct {
	TotalSales         float64 `json:"total_sales"`
	TotalCOGS          float64 `json:"total_cogs"`
	TotalLabor         float64 `json:"total_labor"`
	TotalPrimeCost     float64 `json:"total_prime_cost"`
	COGSPercent        float64 `json:"cogs_percent"`
	LaborPercent       float64 `json:"labor_percent"`
	PrimeCostPercent   float64 `json:"prime_cost_percent"`
	GrossProfit        float64 `json:"gross_profit"`
	GrossProfitPercent float64 `json:"gross_profit_percent"`
	DaysCount          int64   `json:"days_count"`
}

// Store defines the persistence interface for the dashboard and the scrape
// pipeline. Fact upserts are atomic per (restaurant_id, business_date) key:
// each is a single INSERT ... ON CONFLICT DO UPDATE statement that fully
// replaces the row's fields.
type Store interface {
	// Restaurant registry
	ListActiveRestaurants(ctx context.Context) ([]model.Restaurant, error)
	GetRestaurantByVendorID(ctx context.Context, vendorStoreID string) (*model.Restaurant, error)
	SeedRestaurants(ctx context.Context, restaurants []model.Restaurant) (int, error)

	// Fact upserts (insert-or-replace per key)
	UpsertSales(ctx context.Context, row model.DailySales) error
	UpsertLabor(ctx context.Context, row model.DailyLabor) error
	UpsertFoodCost(ctx context.Context, row model.DailyFoodCost) error
	UpsertPrimeCost(ctx context.Context, row model.DailyPrimeCost) error

	// Single-key reads; nil result (no error) when the row is absent.
	GetSales(ctx context.Context, restaurantID int64, businessDate string) (*model.DailySales, error)
	GetLabor(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyLabor, error)
	GetFoodCost(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyFoodCost, error)
	GetPrimeCost(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyPrimeCost, error)

	// Read-side reporting
	SalesByDateRange(ctx context.Context, restaurantID int64, start, end string) ([]model.DailySales, error)
	ConsolidatedSales(ctx context.Context, start, end string) ([]ConsolidatedSalesRow, error)
	SalesComparison(ctx context.Context, start, end string) ([]SalesComparisonRow, error)
	PrimeCostTrend(ctx context.Context, start, end string, restaurantID int64) ([]PrimeCostTrendRow, error)
	ConsolidatedPrimeCost(ctx context.Context, start, end string) (*PrimeCostSummary, error)

	// Scrape log (append-only)
	LogScrape(ctx context.Context, entry model.ScrapeLogEntry) (string, error)
	ListScrapeLog(ctx context.Context, limit int) ([]model.ScrapeLogEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
