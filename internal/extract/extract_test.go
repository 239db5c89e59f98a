package extract

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage is a canned Page for strategy tests.
type fakePage struct {
	url       string
	title     string
	bodyText  string
	evalValue any
	evalErr   error
	textErr   error
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Title() (string, error) { return p.title, nil }

func (p *fakePage) BodyText(context.Context) (string, error) { return p.bodyText, p.textErr }

func (p *fakePage) Evaluate(context.Context, string) (any, error) { return p.evalValue, p.evalErr }

func cell(v any, l string) map[string]any { return map[string]any{"v": v, "l": l} }

func gridRow(name string, values map[int]float64) []any {
	cells := make([]any, colGuestCount+1)
	for i := range cells {
		cells[i] = cell(nil, "")
	}
	cells[colStoreName] = cell(name, name)
	for idx, v := range values {
		cells[idx] = cell(v, "")
	}
	return cells
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$12,450.75", 12450.75},
		{"29.0%", 29.0},
		{" 540 ", 540},
		{"(125.50)", -125.50},
		{"", 0},
		{"n/a", 0},
		{"--", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseNumber(tt.in), "input %q", tt.in)
	}
}

func TestGridStrategy_ParsesRows(t *testing.T) {
	page := &fakePage{evalValue: []any{
		gridRow("Frisco", map[int]float64{
			colNetSales: 25000.00, colLaborPercent: 29.0, colGuestCount: 540,
		}),
		gridRow("Total", map[int]float64{colNetSales: 99999}),
	}}

	stores, err := GridStrategy{}.Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, stores, 1)

	rec := stores["Frisco"]
	assert.Equal(t, 25000.00, rec.NetSales)
	assert.Equal(t, 29.0, rec.LaborPercent)
	assert.Equal(t, int64(540), rec.GuestCount)
}

func TestGridStrategy_PrefRawValueOverLabel(t *testing.T) {
	row := gridRow("Frisco", nil)
	row[colNetSales] = cell(25000.0, "$25,000.00")
	row[colComps] = cell(nil, "$120.50")
	page := &fakePage{evalValue: []any{row}}

	stores, err := GridStrategy{}.Extract(context.Background(), page)
	require.NoError(t, err)

	rec := stores["Frisco"]
	assert.Equal(t, 25000.0, rec.NetSales)
	assert.Equal(t, 120.50, rec.Comps)
}

func TestGridStrategy_NoGridState(t *testing.T) {
	page := &fakePage{evalValue: nil}

	stores, err := GridStrategy{}.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestTextScan_MatchesStoreLinesAfterMarker(t *testing.T) {
	page := &fakePage{bodyText: "Welcome back\nSales by Store\n" +
		"Frisco\t$25,000.00\t$26,100.00\t$50.25\t$120.00\t$7,250.00\t29.0%\t310.5\t$85.00\t$0.00\t$0.00\t498\t540\n" +
		"Preston Trail\t$18,200.00\t$19,000.00\t$40.00\t$95.00\t$5,100.00\t28.0%\t250.0\t$60.00\t$0.00\t$0.00\t380\t410\n"}

	s := NewTextScan("Sales by Store", []string{"Frisco", "Preston Trail", "Skillman"})
	stores, err := s.Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, stores, 2)

	frisco := stores["Frisco"]
	assert.Equal(t, 25000.00, frisco.NetSales)
	assert.Equal(t, 120.00, frisco.Comps)
	assert.Equal(t, 7250.00, frisco.LaborCost)
	assert.Equal(t, 29.0, frisco.LaborPercent)
	assert.Equal(t, int64(540), frisco.GuestCount)

	preston := stores["Preston Trail"]
	assert.Equal(t, 18200.00, preston.NetSales)
	assert.Equal(t, int64(410), preston.GuestCount)
}

func TestTextScan_NoStoresInText(t *testing.T) {
	page := &fakePage{bodyText: "Session expired. Please log in again."}

	s := NewTextScan("Sales by Store", []string{"Frisco"})
	stores, err := s.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, stores)
}

// stubStrategy returns fixed stores or an error.
type stubStrategy struct {
	name   string
	stores map[string]StoreRecord
	err    error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(context.Context, Page) (map[string]StoreRecord, error) {
	return s.stores, s.err
}

func TestRunner_FallsBackToNextTier(t *testing.T) {
	three := map[string]StoreRecord{
		"Frisco":    {StoreName: "Frisco", NetSales: 1},
		"Arlington": {StoreName: "Arlington", NetSales: 2},
		"Skillman":  {StoreName: "Skillman", NetSales: 3},
	}
	r := NewRunner("Sales by Store",
		&stubStrategy{name: "grid"},
		&stubStrategy{name: "text_scan", stores: three},
	)

	res, err := r.Extract(context.Background(), &fakePage{})
	require.NoError(t, err)
	assert.Equal(t, "text_scan", res.Source)
	assert.Len(t, res.Stores, 3)
	assert.Nil(t, res.Diagnostics)
}

func TestRunner_StrategyErrorIsNotFatal(t *testing.T) {
	r := NewRunner("Sales by Store",
		&stubStrategy{name: "grid", err: eris.New("evaluate blew up")},
		&stubStrategy{name: "text_scan", stores: map[string]StoreRecord{"Frisco": {StoreName: "Frisco"}}},
	)

	res, err := r.Extract(context.Background(), &fakePage{})
	require.NoError(t, err)
	assert.Equal(t, "text_scan", res.Source)
}

func TestRunner_AllEmptyReturnsDiagnostics(t *testing.T) {
	page := &fakePage{
		url:       "https://vendor.example.com/insightdashboard/dashboard.jsp#/",
		title:     "Insight Dashboard",
		bodyText:  "Loading...",
		evalValue: false,
	}
	r := NewRunner("Sales by Store",
		&stubStrategy{name: "grid"},
		&stubStrategy{name: "text_scan"},
	)

	res, err := r.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, res.Stores)
	require.NotNil(t, res.Diagnostics)
	assert.Equal(t, "Insight Dashboard", res.Diagnostics.Title)
	assert.Equal(t, len("Loading..."), res.Diagnostics.TextLength)
	assert.False(t, res.Diagnostics.AngularReady)
	assert.False(t, res.Diagnostics.MarkerFound)
}
