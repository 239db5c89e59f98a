// Package extract pulls per-store daily metrics out of an authenticated
// vendor dashboard page. Strategies are tried in priority order; the first
// one that yields at least one store wins.
package extract

import (
	"context"
	"strconv"
	"strings"
)

// StoreRecord is one store's metrics as read off the dashboard. Fields the
// active strategy could not read stay zero.
type StoreRecord struct {
	StoreName     string  `json:"store_name"`
	NetSales      float64 `json:"net_sales"`
	LaborCost     float64 `json:"labor_cost"`
	LaborHours    float64 `json:"labor_hours"`
	LaborPercent  float64 `json:"labor_percent"`
	Comps         float64 `json:"comps"`
	Voids         float64 `json:"voids"`
	GuestCount    int64   `json:"guest_count"`
	CheckCount    int64   `json:"check_count"`
	CheckAvg      float64 `json:"check_avg"`
	AvgGuestSpend float64 `json:"avg_guest_spend"`
}

// Diagnostics describes the page as seen when every strategy came up empty.
type Diagnostics struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	TextLength   int    `json:"text_length"`
	TextPreview  string `json:"text_preview"`
	AngularReady bool   `json:"angular_ready"`
	MarkerFound  bool   `json:"marker_found"`
}

// Result is the outcome of an extraction pass. Zero stores with a non-nil
// Diagnostics is a valid result, not an error.
type Result struct {
	Stores      map[string]StoreRecord
	Source      string // strategy name, e.g. "grid", "text_scan"
	Diagnostics *Diagnostics
}

// Page is the surface an extraction strategy needs from an authenticated
// dashboard page. browser.Session satisfies it.
type Page interface {
	URL() string
	Title() (string, error)
	BodyText(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, expression string) (any, error)
}

// Strategy reads per-store records from a page.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, page Page) (map[string]StoreRecord, error)
}

// parseNumber strips currency and percent decoration and parses the rest as
// a float. Unparseable tokens resolve to zero; a bad cell never aborts a run.
func parseNumber(s string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "", "(", "-", ")", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseCount(s string) int64 {
	return int64(parseNumber(s))
}
