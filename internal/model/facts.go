package model

import "time"

// DailySales is one row per (restaurant, business date). Re-ingestion for the
// same key fully replaces the numeric fields; values never accumulate.
type DailySales struct {
	RestaurantID  int64     `json:"restaurant_id"`
	BusinessDate  string    `json:"business_date"`
	GrossSales    float64   `json:"gross_sales"`
	NetSales      float64   `json:"net_sales"`
	Comps         float64   `json:"comps"`
	Discounts     float64   `json:"discounts"`
	Voids         float64   `json:"voids"`
	Refunds       float64   `json:"refunds"`
	GuestCount    int64     `json:"guest_count"`
	CheckCount    int64     `json:"check_count"`
	AvgCheck      float64   `json:"avg_check"`
	AvgGuestSpend float64   `json:"avg_guest_spend"`
	FoodSales     float64   `json:"food_sales"`
	BeverageSales float64   `json:"beverage_sales"`
	AlcoholSales  float64   `json:"alcohol_sales"`
	DataSource    string    `json:"data_source"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DailyLabor is one row per (restaurant, business date) with the same
// replace-on-upsert semantics as DailySales.
type DailyLabor struct {
	RestaurantID    int64     `json:"restaurant_id"`
	BusinessDate    string    `json:"business_date"`
	TotalHours      float64   `json:"total_hours"`
	RegularHours    float64   `json:"regular_hours"`
	OvertimeHours   float64   `json:"overtime_hours"`
	TotalLaborCost  float64   `json:"total_labor_cost"`
	RegularWages    float64   `json:"regular_wages"`
	OvertimeWages   float64   `json:"overtime_wages"`
	FOHHours        float64   `json:"foh_hours"`
	FOHCost         float64   `json:"foh_cost"`
	BOHHours        float64   `json:"boh_hours"`
	BOHCost         float64   `json:"boh_cost"`
	ManagementHours float64   `json:"management_hours"`
	ManagementCost  float64   `json:"management_cost"`
	PayrollTaxes    float64   `json:"payroll_taxes"`
	BenefitsCost    float64   `json:"benefits_cost"`
	TotalBurden     float64   `json:"total_labor_burden"`
	EmployeeCount   int64     `json:"employee_count"`
	LaborPercent    float64   `json:"labor_percent"`
	DataSource      string    `json:"data_source"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DailyFoodCost is one row per (restaurant, business date).
type DailyFoodCost struct {
	RestaurantID     int64     `json:"restaurant_id"`
	BusinessDate     string    `json:"business_date"`
	FoodCost         float64   `json:"food_cost"`
	BeverageCost     float64   `json:"beverage_cost"`
	AlcoholCost      float64   `json:"alcohol_cost"`
	TotalCOGS        float64   `json:"total_cogs"`
	FoodCostPercent  float64   `json:"food_cost_percent"`
	BeverageCostPct  float64   `json:"beverage_cost_percent"`
	TotalCOGSPercent float64   `json:"total_cogs_percent"`
	DataSource       string    `json:"data_source"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DailyPrimeCost is the derived row for a (restaurant, business date). It is
// recomputed in full from the current sales, labor, and food-cost rows and is
// never written directly by ingestion.
type DailyPrimeCost struct {
	RestaurantID       int64     `json:"restaurant_id"`
	BusinessDate       string    `json:"business_date"`
	NetSales           float64   `json:"net_sales"`
	TotalCOGS          float64   `json:"total_cogs"`
	TotalLabor         float64   `json:"total_labor"`
	PrimeCost          float64   `json:"prime_cost"`
	COGSPercent        float64   `json:"cogs_percent"`
	LaborPercent       float64   `json:"labor_percent"`
	PrimeCostPercent   float64   `json:"prime_cost_percent"`
	TargetPrimePercent float64   `json:"target_prime_cost_percent"`
	VariancePercent    float64   `json:"variance_percent"`
	VarianceDollars    float64   `json:"variance_dollars"`
	GrossProfit        float64   `json:"gross_profit"`
	GrossProfitPercent float64   `json:"gross_profit_percent"`
	UpdatedAt          time.Time `json:"updated_at"`
}
