package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Column layout of the vendor's per-store sales grid. The dashboard renders
// the same columns in the structured grid and the visible table.
const (
	colStoreName    = 0
	colNetSales     = 1
	colComps        = 4
	colLaborCost    = 5
	colLaborPercent = 6
	colVoids        = 8
	colCheckCount   = 11
	colGuestCount   = 12
)

// gridExpression reads the dashboard's client-side grid state: rows of typed
// cells carrying both the raw value and the formatted label.
const gridExpression = `() => {
	const ng = window.angular;
	if (!ng || !ng.element) return null;
	const grid = document.querySelector('[kendo-grid], .k-grid, table');
	if (!grid) return null;
	const scope = ng.element(grid).scope();
	if (!scope) return null;
	const candidates = [scope.gridData, scope.rows, scope.data,
		scope.$parent && scope.$parent.gridData];
	for (const rows of candidates) {
		if (Array.isArray(rows) && rows.length && Array.isArray(rows[0].cells)) {
			return rows.map(r => r.cells.map(c => ({ v: c.value, l: c.label })));
		}
	}
	return null;
}`

// GridStrategy reads per-store rows from the application's in-memory grid
// state. Preferred tier: it sees raw numeric values instead of re-parsing
// formatted text.
type GridStrategy struct{}

func (GridStrategy) Name() string { return "grid" }

func (GridStrategy) Extract(ctx context.Context, page Page) (map[string]StoreRecord, error) {
	raw, err := page.Evaluate(ctx, gridExpression)
	if err != nil {
		return nil, eris.Wrap(err, "grid: evaluate")
	}
	rows, ok := raw.([]any)
	if !ok || len(rows) == 0 {
		return nil, nil
	}

	out := make(map[string]StoreRecord, len(rows))
	for _, rawRow := range rows {
		cells, ok := rawRow.([]any)
		if !ok {
			continue
		}
		name := strings.TrimSpace(cellString(cells, colStoreName))
		if name == "" || strings.EqualFold(name, "total") {
			continue
		}
		out[name] = StoreRecord{
			StoreName:    name,
			NetSales:     cellNumber(cells, colNetSales),
			Comps:        cellNumber(cells, colComps),
			LaborCost:    cellNumber(cells, colLaborCost),
			LaborPercent: cellNumber(cells, colLaborPercent),
			Voids:        cellNumber(cells, colVoids),
			CheckCount:   int64(cellNumber(cells, colCheckCount)),
			GuestCount:   int64(cellNumber(cells, colGuestCount)),
		}
	}
	return out, nil
}

// cellNumber prefers the raw typed value and falls back to parsing the
// formatted label.
func cellNumber(cells []any, idx int) float64 {
	if idx >= len(cells) {
		return 0
	}
	cell, ok := cells[idx].(map[string]any)
	if !ok {
		return 0
	}
	if v, ok := cell["v"].(float64); ok {
		return v
	}
	if l, ok := cell["l"].(string); ok {
		return parseNumber(l)
	}
	return 0
}

func cellString(cells []any, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	cell, ok := cells[idx].(map[string]any)
	if !ok {
		return ""
	}
	if l, ok := cell["l"].(string); ok && l != "" {
		return l
	}
	switch v := cell["v"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	}
	return ""
}
