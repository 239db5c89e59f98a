package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ranch-group/ops-dashboard/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS restaurants (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	name                 TEXT NOT NULL,
	short_name           TEXT NOT NULL UNIQUE,
	brand                TEXT NOT NULL,
	city                 TEXT NOT NULL,
	state                TEXT NOT NULL DEFAULT 'TX',
	vendor_store_id      TEXT,
	netchex_company_name TEXT,
	is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS daily_sales (
	restaurant_id   INTEGER NOT NULL REFERENCES restaurants(id),
	business_date   TEXT NOT NULL,
	gross_sales     REAL NOT NULL DEFAULT 0,
	net_sales       REAL NOT NULL DEFAULT 0,
	comps           REAL NOT NULL DEFAULT 0,
	discounts       REAL NOT NULL DEFAULT 0,
	voids           REAL NOT NULL DEFAULT 0,
	refunds         REAL NOT NULL DEFAULT 0,
	guest_count     INTEGER NOT NULL DEFAULT 0,
	check_count     INTEGER NOT NULL DEFAULT 0,
	avg_check       REAL NOT NULL DEFAULT 0,
	avg_guest_spend REAL NOT NULL DEFAULT 0,
	food_sales      REAL NOT NULL DEFAULT 0,
	beverage_sales  REAL NOT NULL DEFAULT 0,
	alcohol_sales   REAL NOT NULL DEFAULT 0,
	data_source     TEXT NOT NULL DEFAULT 'manual',
	updated_at      DATETIME NOT NULL,
	PRIMARY KEY (restaurant_id, business_date)
);

CREATE TABLE IF NOT EXISTS daily_labor (
	restaurant_id      INTEGER NOT NULL REFERENCES restaurants(id),
	business_date      TEXT NOT NULL,
	total_hours        REAL NOT NULL DEFAULT 0,
	regular_hours      REAL NOT NULL DEFAULT 0,
	overtime_hours     REAL NOT NULL DEFAULT 0,
	total_labor_cost   REAL NOT NULL DEFAULT 0,
	regular_wages      REAL NOT NULL DEFAULT 0,
	overtime_wages     REAL NOT NULL DEFAULT 0,
	foh_hours          REAL NOT NULL DEFAULT 0,
	foh_cost           REAL NOT NULL DEFAULT 0,
	boh_hours          REAL NOT NULL DEFAULT 0,
	boh_cost           REAL NOT NULL DEFAULT 0,
	management_hours   REAL NOT NULL DEFAULT 0,
	management_cost    REAL NOT NULL DEFAULT 0,
	payroll_taxes      REAL NOT NULL DEFAULT 0,
	benefits_cost      REAL NOT NULL DEFAULT 0,
	total_labor_burden REAL NOT NULL DEFAULT 0,
	employee_count     INTEGER NOT NULL DEFAULT 0,
	labor_percent      REAL NOT NULL DEFAULT 0,
	data_source        TEXT NOT NULL DEFAULT 'manual',
	updated_at         DATETIME NOT NULL,
	PRIMARY KEY (restaurant_id, business_date)
);

CREATE TABLE IF NOT EXISTS daily_food_cost (
	restaurant_id         INTEGER NOT NULL REFERENCES restaurants(id),
	business_date         TEXT NOT NULL,
	food_cost             REAL NOT NULL DEFAULT 0,
	beverage_cost         REAL NOT NULL DEFAULT 0,
	alcohol_cost          REAL NOT NULL DEFAULT 0,
	total_cogs            REAL NOT NULL DEFAULT 0,
	food_cost_percent     REAL NOT NULL DEFAULT 0,
	beverage_cost_percent REAL NOT NULL DEFAULT 0,
	total_cogs_percent    REAL NOT NULL DEFAULT 0,
	data_source           TEXT NOT NULL DEFAULT 'manual',
	updated_at            DATETIME NOT NULL,
	PRIMARY KEY (restaurant_id, business_date)
);

CREATE TABLE IF NOT EXISTS daily_prime_cost (
	restaurant_id             INTEGER NOT NULL REFERENCES restaurants(id),
	business_date             TEXT NOT NULL,
	net_sales                 REAL NOT NULL DEFAULT 0,
	total_cogs                REAL NOT NULL DEFAULT 0,
	total_labor               REAL NOT NULL DEFAULT 0,
	prime_cost                REAL NOT NULL DEFAULT 0,
	cogs_percent              REAL NOT NULL DEFAULT 0,
	labor_percent             REAL NOT NULL DEFAULT 0,
	prime_cost_percent        REAL NOT NULL DEFAULT 0,
	target_prime_cost_percent REAL NOT NULL DEFAULT 65,
	variance_percent          REAL NOT NULL DEFAULT 0,
	variance_dollars          REAL NOT NULL DEFAULT 0,
	gross_profit              REAL NOT NULL DEFAULT 0,
	gross_profit_percent      REAL NOT NULL DEFAULT 0,
	updated_at                DATETIME NOT NULL,
	PRIMARY KEY (restaurant_id, business_date)
);

CREATE TABLE IF NOT EXISTS scrape_log (
	id                TEXT PRIMARY KEY,
	scrape_type       TEXT NOT NULL,
	business_date     TEXT NOT NULL,
	status            TEXT NOT NULL,
	records_processed INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	completed_at      DATETIME NOT NULL,
	duration_seconds  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_daily_sales_date ON daily_sales(business_date);
CREATE INDEX IF NOT EXISTS idx_daily_labor_date ON daily_labor(business_date);
CREATE INDEX IF NOT EXISTS idx_daily_food_cost_date ON daily_food_cost(business_date);
CREATE INDEX IF NOT EXISTS idx_daily_prime_cost_date ON daily_prime_cost(business_date);
CREATE INDEX IF NOT EXISTS idx_scrape_log_date ON scrape_log(business_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Restaurant registry ---

func (s *SQLiteStore) ListActiveRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, short_name, brand, city, state,
		        COALESCE(vendor_store_id, ''), COALESCE(netchex_company_name, ''), is_active
		 FROM restaurants WHERE is_active = 1 ORDER BY brand, name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list restaurants")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var r model.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.ShortName, &r.Brand, &r.City, &r.State,
			&r.VendorStoreID, &r.NetchexCompanyName, &r.IsActive); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan restaurant")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list restaurants iterate")
}

func (s *SQLiteStore) GetRestaurantByVendorID(ctx context.Context, vendorStoreID string) (*model.Restaurant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, short_name, brand, city, state,
		        COALESCE(vendor_store_id, ''), COALESCE(netchex_company_name, ''), is_active
		 FROM restaurants WHERE vendor_store_id = ?`,
		vendorStoreID,
	)
	var r model.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.ShortName, &r.Brand, &r.City, &r.State,
		&r.VendorStoreID, &r.NetchexCompanyName, &r.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get restaurant by vendor id")
	}
	return &r, nil
}

func (s *SQLiteStore) SeedRestaurants(ctx context.Context, restaurants []model.Restaurant) (int, error) {
	inserted := 0
	for _, r := range restaurants {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO restaurants
			 (name, short_name, brand, city, state, vendor_store_id, netchex_company_name, is_active)
			 VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), 1)`,
			r.Name, r.ShortName, r.Brand, r.City, r.State, r.VendorStoreID, r.NetchexCompanyName,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: seed restaurant %s", r.ShortName)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// --- Fact upserts ---

func (s *SQLiteStore) UpsertSales(ctx context.Context, row model.DailySales) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_sales (
			restaurant_id, business_date, gross_sales, net_sales,
			comps, discounts, voids, refunds,
			guest_count, check_count, avg_check, avg_guest_spend,
			food_sales, beverage_sales, alcohol_sales, data_source, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(restaurant_id, business_date) DO UPDATE SET
			gross_sales = excluded.gross_sales,
			net_sales = excluded.net_sales,
			comps = excluded.comps,
			discounts = excluded.discounts,
			voids = excluded.voids,
			refunds = excluded.refunds,
			guest_count = excluded.guest_count,
			check_count = excluded.check_count,
			avg_check = excluded.avg_check,
			avg_guest_spend = excluded.avg_guest_spend,
			food_sales = excluded.food_sales,
			beverage_sales = excluded.beverage_sales,
			alcohol_sales = excluded.alcohol_sales,
			data_source = excluded.data_source,
			updated_at = excluded.updated_at`,
		row.RestaurantID, row.BusinessDate, row.GrossSales, row.NetSales,
		row.Comps, row.Discounts, row.Voids, row.Refunds,
		row.GuestCount, row.CheckCount, row.AvgCheck, row.AvgGuestSpend,
		row.FoodSales, row.BeverageSales, row.AlcoholSales, row.DataSource, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert sales %d/%s", row.RestaurantID, row.BusinessDate)
}

func (s *SQLiteStore) UpsertLabor(ctx context.Context, row model.DailyLabor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_labor (
			restaurant_id, business_date,
			total_hours, regular_hours, overtime_hours,
			total_labor_cost, regular_wages, overtime_wages,
			foh_hours, foh_cost, boh_hours, boh_cost,
			management_hours, management_cost,
			payroll_taxes, benefits_cost, total_labor_burden,
			employee_count, labor_percent, data_source, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(restaurant_id, business_date) DO UPDATE SET
			total_hours = excluded.total_hours,
			regular_hours = excluded.regular_hours,
			overtime_hours = excluded.overtime_hours,
			total_labor_cost = excluded.total_labor_cost,
			regular_wages = excluded.regular_wages,
			overtime_wages = excluded.overtime_wages,
			foh_hours = excluded.foh_hours,
			foh_cost = excluded.foh_cost,
			boh_hours = excluded.boh_hours,
			boh_cost = excluded.boh_cost,
			management_hours = excluded.management_hours,
			management_cost = excluded.management_cost,
			payroll_taxes = excluded.payroll_taxes,
			benefits_cost = excluded.benefits_cost,
			total_labor_burden = excluded.total_labor_burden,
			employee_count = excluded.employee_count,
			labor_percent = excluded.labor_percent,
			data_source = excluded.data_source,
			updated_at = excluded.updated_at`,
		row.RestaurantID, row.BusinessDate,
		row.TotalHours, row.RegularHours, row.OvertimeHours,
		row.TotalLaborCost, row.RegularWages, row.OvertimeWages,
		row.FOHHours, row.FOHCost, row.BOHHours, row.BOHCost,
		row.ManagementHours, row.ManagementCost,
		row.PayrollTaxes, row.BenefitsCost, row.TotalBurden,
		row.EmployeeCount, row.LaborPercent, row.DataSource, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert labor %d/%s", row.RestaurantID, row.BusinessDate)
}

func (s *SQLiteStore) UpsertFoodCost(ctx context.Context, row model.DailyFoodCost) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_food_cost (
			restaurant_id, business_date,
			food_cost, beverage_cost, alcohol_cost, total_cogs,
			food_cost_percent, beverage_cost_percent, total_cogs_percent,
			data_source, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(restaurant_id, business_date) DO UPDATE SET
			food_cost = excluded.food_cost,
			beverage_cost = excluded.beverage_cost,
			alcohol_cost = excluded.alcohol_cost,
			total_cogs = excluded.total_cogs,
			food_cost_percent = excluded.food_cost_percent,
			beverage_cost_percent = excluded.beverage_cost_percent,
			total_cogs_percent = excluded.total_cogs_percent,
			data_source = excluded.data_source,
			updated_at = excluded.updated_at`,
		row.RestaurantID, row.BusinessDate,
		row.FoodCost, row.BeverageCost, row.AlcoholCost, row.TotalCOGS,
		row.FoodCostPercent, row.BeverageCostPct, row.TotalCOGSPercent,
		row.DataSource, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert food cost %d/%s", row.RestaurantID, row.BusinessDate)
}

func (s *SQLiteStore) UpsertPrimeCost(ctx context.Context, row model.DailyPrimeCost) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_prime_cost (
			restaurant_id, business_date, net_sales,
			total_cogs, total_labor, prime_cost,
			cogs_percent, labor_percent, prime_cost_percent,
			target_prime_cost_percent, variance_percent, variance_dollars,
			gross_profit, gross_profit_percent, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(restaurant_id, business_date) DO UPDATE SET
			net_sales = excluded.net_sales,
			total_cogs = excluded.total_cogs,
			total_labor = excluded.total_labor,
			prime_cost = excluded.prime_cost,
			cogs_percent = excluded.cogs_percent,
			labor_percent = excluded.labor_percent,
			prime_cost_percent = excluded.prime_cost_percent,
			target_prime_cost_percent = excluded.target_prime_cost_percent,
			variance_percent = excluded.variance_percent,
			variance_dollars = excluded.variance_dollars,
			gross_profit = excluded.gross_profit,
			gross_profit_percent = excluded.gross_profit_percent,
			updated_at = excluded.updated_at`,
		row.RestaurantID, row.BusinessDate, row.NetSales,
		row.TotalCOGS, row.TotalLabor, row.PrimeCost,
		row.COGSPercent, row.LaborPercent, row.PrimeCostPercent,
		row.TargetPrimePercent, row.VariancePercent, row.VarianceDollars,
		row.GrossProfit, row.GrossProfitPercent, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert prime cost %d/%s", row.RestaurantID, row.BusinessDate)
}

// --- Single-key reads ---

func (s *SQLiteStore) GetSales(ctx context.Context, restaurantID int64, businessDate string) (*model.DailySales, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT restaurant_id, business_date, gross_sales, net_sales,
		       comps, discounts, voids, refunds,
		       guest_count, check_count, avg_check, avg_guest_spend,
		       food_sales, beverage_sales, alcohol_sales, data_source, updated_at
		FROM daily_sales WHERE restaurant_id = ? AND business_date = ?`,
		restaurantID, businessDate,
	)
	var d model.DailySales
	err := row.Scan(&d.RestaurantID, &d.BusinessDate, &d.GrossSales, &d.NetSales,
		&d.Comps, &d.Discounts, &d.Voids, &d.Refunds,
		&d.GuestCount, &d.CheckCount, &d.AvgCheck, &d.AvgGuestSpend,
		&d.FoodSales, &d.BeverageSales, &d.AlcoholSales, &d.DataSource, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get sales")
	}
	return &d, nil
}

func (s *SQLiteStore) GetLabor(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyLabor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT restaurant_id, business_date,
		       total_hours, regular_hours, overtime_hours,
		       total_labor_cost, regular_wages, overtime_wages,
		       foh_hours, foh_cost, boh_hours, boh_cost,
		       management_hours, management_cost,
		       payroll_taxes, benefits_cost, total_labor_burden,
		       employee_count, labor_percent, data_source, updated_at
		FROM daily_labor WHERE restaurant_id = ? AND business_date = ?`,
		restaurantID, businessDate,
	)
	var d model.DailyLabor
	err := row.Scan(&d.RestaurantID, &d.BusinessDate,
		&d.TotalHours, &d.RegularHours, &d.OvertimeHours,
		&d.TotalLaborCost, &d.RegularWages, &d.OvertimeWages,
		&d.FOHHours, &d.FOHCost, &d.BOHHours, &d.BOHCost,
		&d.ManagementHours, &d.ManagementCost,
		&d.PayrollTaxes, &d.BenefitsCost, &d.TotalBurden,
		&d.EmployeeCount, &d.LaborPercent, &d.DataSource, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get labor")
	}
	return &d, nil
}

func (s *SQLiteStore) GetFoodCost(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyFoodCost, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT restaurant_id, business_date,
		       food_cost, beverage_cost, alcohol_cost, total_cogs,
		       food_cost_percent, beverage_cost_percent, total_cogs_percent,
		       data_source, updated_at
		FROM daily_food_cost WHERE restaurant_id = ? AND business_date = ?`,
		restaurantID, businessDate,
	)
	var d model.DailyFoodCost
	err := row.Scan(&d.RestaurantID, &d.BusinessDate,
		&d.FoodCost, &d.BeverageCost, &d.AlcoholCost, &d.TotalCOGS,
		&d.FoodCostPercent, &d.BeverageCostPct, &d.TotalCOGSPercent,
		&d.DataSource, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get food cost")
	}
	return &d, nil
}

func (s *SQLiteStore) GetPrimeCost(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyPrimeCost, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT restaurant_id, business_date, net_sales,
		       total_cogs, total_labor, prime_cost,
		       cogs_percent, labor_percent, prime_cost_percent,
		       target_prime_cost_percent, variance_percent, variance_dollars,
		       gross_profit, gross_profit_percent, updated_at
		FROM daily_prime_cost WHERE restaurant_id = ? AND business_date = ?`,
		restaurantID, businessDate,
	)
	var d model.DailyPrimeCost
	err := row.Scan(&d.RestaurantID, &d.BusinessDate, &d.NetSales,
		&d.TotalCOGS, &d.TotalLabor, &d.PrimeCost,
		&d.COGSPercent, &d.LaborPercent, &d.PrimeCostPercent,
		&d.TargetPrimePercent, &d.VariancePercent, &d.VarianceDollars,
		&d.GrossProfit, &d.GrossProfitPercent, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get prime cost")
	}
	return &d, nil
}

// --- Read-side reporting ---

func (s *SQLiteStore) SalesByDateRange(ctx context.Context, restaurantID int64, start, end string) ([]model.DailySales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT restaurant_id, business_date, gross_sales, net_sales,
		       comps, discounts, voids, refunds,
		       guest_count, check_count, avg_check, avg_guest_spend,
		       food_sales, beverage_sales, alcohol_sales, data_source, updated_at
		FROM daily_sales
		WHERE restaurant_id = ? AND business_date BETWEEN ? AND ?
		ORDER BY business_date DESC`,
		restaurantID, start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sales by date range")
	}
	defer rows.Close()

	var out []model.DailySales
	for rows.Next() {
		var d model.DailySales
		if err := rows.Scan(&d.RestaurantID, &d.BusinessDate, &d.GrossSales, &d.NetSales,
			&d.Comps, &d.Discounts, &d.Voids, &d.Refunds,
			&d.GuestCount, &d.CheckCount, &d.AvgCheck, &d.AvgGuestSpend,
			&d.FoodSales, &d.BeverageSales, &d.AlcoholSales, &d.DataSource, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sales row")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: sales by date range iterate")
}

func (s *SQLiteStore) ConsolidatedSales(ctx context.Context, start, end string) ([]ConsolidatedSalesRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ds.business_date,
		       SUM(ds.gross_sales), SUM(ds.net_sales), SUM(ds.comps), SUM(ds.discounts),
		       SUM(ds.guest_count), SUM(ds.check_count),
		       ROUND(SUM(ds.net_sales) / NULLIF(SUM(ds.check_count), 0), 2)
		FROM daily_sales ds
		JOIN restaurants r ON ds.restaurant_id = r.id
		WHERE r.is_active = 1 AND ds.business_date BETWEEN ? AND ?
		GROUP BY ds.business_date
		ORDER BY ds.business_date DESC`,
		start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: consolidated sales")
	}
	defer rows.Close()

	var out []ConsolidatedSalesRow
	for rows.Next() {
		var c ConsolidatedSalesRow
		var avgCheck sql.NullFloat64
		if err := rows.Scan(&c.BusinessDate, &c.GrossSales, &c.NetSales, &c.Comps, &c.Discounts,
			&c.GuestCount, &c.CheckCount, &avgCheck); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan consolidated sales")
		}
		c.AvgCheck = avgCheck.Float64
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: consolidated sales iterate")
}

func (s *SQLiteStore) SalesComparison(ctx context.Context, start, end string) ([]SalesComparisonRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.short_name, r.brand,
		       COALESCE(SUM(ds.net_sales), 0),
		       COALESCE(SUM(ds.guest_count), 0),
		       COUNT(DISTINCT ds.business_date),
		       ROUND(COALESCE(SUM(ds.net_sales), 0) / NULLIF(COUNT(DISTINCT ds.business_date), 0), 2),
		       ROUND(COALESCE(SUM(ds.net_sales), 0) / NULLIF(SUM(ds.guest_count), 0), 2)
		FROM restaurants r
		LEFT JOIN daily_sales ds ON r.id = ds.restaurant_id AND ds.business_date BETWEEN ? AND ?
		WHERE r.is_active = 1
		GROUP BY r.id
		ORDER BY 5 DESC`,
		start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sales comparison")
	}
	defer rows.Close()

	var out []SalesComparisonRow
	for rows.Next() {
		var c SalesComparisonRow
		var avgDaily, avgGuest sql.NullFloat64
		if err := rows.Scan(&c.RestaurantID, &c.Restaurant, &c.ShortName, &c.Brand,
			&c.TotalNetSales, &c.TotalGuests, &c.DaysCount, &avgDaily, &avgGuest); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sales comparison")
		}
		c.AvgDailySales = avgDaily.Float64
		c.AvgPerGuest = avgGuest.Float64
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: sales comparison iterate")
}

func (s *SQLiteStore) PrimeCostTrend(ctx context.Context, start, end string, restaurantID int64) ([]PrimeCostTrendRow, error) {
	query := `
		SELECT dpc.business_date,
		       SUM(dpc.net_sales), SUM(dpc.total_cogs), SUM(dpc.total_labor), SUM(dpc.prime_cost),
		       ROUND(SUM(dpc.prime_cost) / NULLIF(SUM(dpc.net_sales), 0) * 100, 2),
		       ROUND(SUM(dpc.total_labor) / NULLIF(SUM(dpc.net_sales), 0) * 100, 2),
		       ROUND(SUM(dpc.total_cogs) / NULLIF(SUM(dpc.net_sales), 0) * 100, 2)
		FROM daily_prime_cost dpc
		JOIN restaurants r ON dpc.restaurant_id = r.id
		WHERE r.is_active = 1 AND dpc.business_date BETWEEN ? AND ?`
	args := []any{start, end}
	if restaurantID > 0 {
		query += ` AND dpc.restaurant_id = ?`
		args = append(args, restaurantID)
	}
	query += ` GROUP BY dpc.business_date ORDER BY dpc.business_date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prime cost trend")
	}
	defer rows.Close()

	var out []PrimeCostTrendRow
	for rows.Next() {
		var t PrimeCostTrendRow
		var pcPct, laborPct, cogsPct sql.NullFloat64
		if err := rows.Scan(&t.BusinessDate, &t.NetSales, &t.TotalCOGS, &t.TotalLabor, &t.PrimeCost,
			&pcPct, &laborPct, &cogsPct); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prime cost trend")
		}
		t.PrimeCostPercent = pcPct.Float64
		t.LaborPercent = laborPct.Float64
		t.COGSPercent = cogsPct.Float64
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: prime cost trend iterate")
}

func (s *SQLiteStore) ConsolidatedPrimeCost(ctx context.Context, start, end string) (*PrimeCostSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(dpc.net_sales), 0),
		       COALESCE(SUM(dpc.total_cogs), 0),
		       COALESCE(SUM(dpc.total_labor), 0),
		       COALESCE(SUM(dpc.prime_cost), 0),
		       ROUND(SUM(dpc.total_cogs) / NULLIF(SUM(dpc.net_sales), 0) * 100, 2),
		       ROUND(SUM(dpc.total_labor) / NULLIF(SUM(dpc.net_sales), 0) * 100, 2),
		       ROUND(SUM(dpc.prime_cost) / NULLIF(SUM(dpc.net_sales), 0) * 100, 2),
		       COALESCE(SUM(dpc.gross_profit), 0),
		       ROUND(SUM(dpc.gross_profit) / NULLIF(SUM(dpc.net_sales), 0) * 100, 2),
		       COUNT(DISTINCT dpc.business_date)
		FROM daily_prime_cost dpc
		JOIN restaurants r ON dpc.restaurant_id = r.id
		WHERE r.is_active = 1 AND dpc.business_date BETWEEN ? AND ?`,
		start, end,
	)
	var sum PrimeCostSummary
	var cogsPct, laborPct, pcPct, gpPct sql.NullFloat64
	err := row.Scan(&sum.TotalSales, &sum.TotalCOGS, &sum.TotalLabor, &sum.TotalPrimeCost,
		&cogsPct, &laborPct, &pcPct, &sum.GrossProfit, &gpPct, &sum.DaysCount)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: consolidated prime cost")
	}
	sum.COGSPercent = cogsPct.Float64
	sum.LaborPercent = laborPct.Float64
	sum.PrimeCostPercent = pcPct.Float64
	sum.GrossProfitPercent = gpPct.Float64
	return &sum, nil
}

// --- Scrape log ---

func (s *SQLiteStore) LogScrape(ctx context.Context, entry model.ScrapeLogEntry) (string, error) {
	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}
	completedAt := entry.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_log
		(id, scrape_type, business_date, status, records_processed, error_message, completed_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?)`,
		id, entry.ScrapeType, entry.BusinessDate, string(entry.Status),
		entry.RecordsProcessed, entry.ErrorMessage, completedAt, entry.DurationSeconds,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert scrape log")
	}
	return id, nil
}

func (s *SQLiteStore) ListScrapeLog(ctx context.Context, limit int) ([]model.ScrapeLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scrape_type, business_date, status, records_processed,
		       COALESCE(error_message, ''), completed_at, duration_seconds
		FROM scrape_log ORDER BY completed_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scrape log")
	}
	defer rows.Close()

	var out []model.ScrapeLogEntry
	for rows.Next() {
		var e model.ScrapeLogEntry
		var status string
		if err := rows.Scan(&e.ID, &e.ScrapeType, &e.BusinessDate, &status,
			&e.RecordsProcessed, &e.ErrorMessage, &e.CompletedAt, &e.DurationSeconds); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scrape log")
		}
		e.Status = model.ScrapeStatus(status)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list scrape log iterate")
}
