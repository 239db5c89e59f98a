// Package primecost derives the daily prime cost row for a restaurant from
// whatever sales, labor, and food cost rows currently exist for that
// (restaurant, business date) key. The derivation is a pure function of the
// stored inputs, so recomputing after any ingestion converges to the same row.
package primecost

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ranch-group/ops-dashboard/internal/model"
	"github.com/ranch-group/ops-dashboard/internal/store"
)

// DefaultTargetPercent is the prime cost target used when none is configured.
const DefaultTargetPercent = 65.0

// Compute builds the derived prime cost row. Any input may be nil; a missing
// input contributes zero. Percentages are left at zero when net sales is zero
// so a closed day never produces division artifacts.
func Compute(restaurantID int64, businessDate string, sales *model.DailySales, labor *model.DailyLabor, foodCost *model.DailyFoodCost, targetPercent float64) model.DailyPrimeCost {
	if targetPercent <= 0 {
		targetPercent = DefaultTargetPercent
	}

	row := model.DailyPrimeCost{
		RestaurantID:       restaurantID,
		BusinessDate:       businessDate,
		TargetPrimePercent: targetPercent,
	}

	if sales != nil {
		row.NetSales = sales.NetSales
	}
	if foodCost != nil {
		row.TotalCOGS = foodCost.TotalCOGS
	}
	if labor != nil {
		// Fully burdened labor (wages + taxes + benefits) when the import
		// provided it, raw wage cost otherwise.
		if labor.TotalBurden > 0 {
			row.TotalLabor = labor.TotalBurden
		} else {
			row.TotalLabor = labor.TotalLaborCost
		}
	}

	row.PrimeCost = row.TotalCOGS + row.TotalLabor
	row.GrossProfit = row.NetSales - row.PrimeCost

	if row.NetSales > 0 {
		row.COGSPercent = round2(row.TotalCOGS / row.NetSales * 100)
		row.LaborPercent = round2(row.TotalLabor / row.NetSales * 100)
		row.PrimeCostPercent = round2(row.PrimeCost / row.NetSales * 100)
		row.GrossProfitPercent = round2(row.GrossProfit / row.NetSales * 100)
		row.VariancePercent = round2(row.PrimeCostPercent - targetPercent)
		row.VarianceDollars = round2(row.VariancePercent / 100 * row.NetSales)
	}

	return row
}

// Recompute reads the current fact rows for the key, derives the prime cost
// row, and upserts it. Safe to call after every ingestion for the key.
func Recompute(ctx context.Context, st store.Store, restaurantID int64, businessDate string, targetPercent float64) error {
	sales, err := st.GetSales(ctx, restaurantID, businessDate)
	if err != nil {
		return eris.Wrap(err, "prime cost: read sales")
	}
	labor, err := st.GetLabor(ctx, restaurantID, businessDate)
	if err != nil {
		return eris.Wrap(err, "prime cost: read labor")
	}
	foodCost, err := st.GetFoodCost(ctx, restaurantID, businessDate)
	if err != nil {
		return eris.Wrap(err, "prime cost: read food cost")
	}

	if sales == nil && labor == nil && foodCost == nil {
		zap.L().Debug("prime cost recompute skipped, no facts for key",
			zap.Int64("restaurant_id", restaurantID),
			zap.String("business_date", businessDate))
		return nil
	}

	row := Compute(restaurantID, businessDate, sales, labor, foodCost, targetPercent)
	if err := st.UpsertPrimeCost(ctx, row); err != nil {
		return eris.Wrap(err, "prime cost: upsert")
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
