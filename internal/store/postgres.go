package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ranch-group/ops-dashboard/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS restaurants (
	id                   BIGSERIAL PRIMARY KEY,
	name                 TEXT NOT NULL,
	short_name           TEXT NOT NULL UNIQUE,
	brand                TEXT NOT NULL,
	city                 TEXT NOT NULL,
	state                TEXT NOT NULL DEFAULT 'TX',
	vendor_store_id      TEXT,
	netchex_company_name TEXT,
	is_active            BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS daily_sales (
	restaurant_id   BIGINT NOT NULL REFERENCES restaurants(id),
	business_date   TEXT NOT NULL,
	gross_sales     DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_sales       DOUBLE PRECISION NOT NULL DEFAULT 0,
	comps           DOUBLE PRECISION NOT NULL DEFAULT 0,
	discounts       DOUBLE PRECISION NOT NULL DEFAULT 0,
	voids           DOUBLE PRECISION NOT NULL DEFAULT 0,
	refunds         DOUBLE PRECISION NOT NULL DEFAULT 0,
	guest_count     BIGINT NOT NULL DEFAULT 0,
	check_count     BIGINT NOT NULL DEFAULT 0,
	avg_check       DOUBLE PRECISION NOT NULL DEFAULT 0,
	avg_guest_spend DOUBLE PRECISION NOT NULL DEFAULT 0,
	food_sales      DOUBLE PRECISION NOT NULL DEFAULT 0,
	beverage_sales  DOUBLE PRECISION NOT NULL DEFAULT 0,
	alcohol_sales   DOUBLE PRECISION NOT NULL DEFAULT 0,
	data_source     TEXT NOT NULL DEFAULT 'manual',
	updated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (restaurant_id, business_date)
);

CREATE TABLE IF NOT EXISTS daily_labor (
	restaurant_id      BIGINT NOT NULL REFERENCES restaurants(id),
	business_date      TEXT NOT NULL,
	total_hours        DOUBLE PRECISION NOT NULL DEFAULT 0,
	regular_hours      DOUBLE PRECISION NOT NULL DEFAULT 0,
	overtime_hours     DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_labor_cost   DOUBLE PRECISION NOT NULL DEFAULT 0,
	regular_wages      DOUBLE PRECISION NOT NULL DEFAULT 0,
	overtime_wages     DOUBLE PRECISION NOT NULL DEFAULT 0,
	foh_hours          DOUBLE PRECISION NOT NULL DEFAULT 0,
	foh_cost           DOUBLE PRECISION NOT NULL DEFAULT 0,
	boh_hours          DOUBLE PRECISION NOT NULL DEFAULT 0,
	boh_cost           DOUBLE PRECISION NOT NULL DEFAULT 0,
	management_hours   DOUBLE PRECISION NOT NULL DEFAULT 0,
	management_cost    DOUBLE PRECISION NOT NULL DEFAULT 0,
	payroll_taxes      DOUBLE PRECISION NOT NULL DEFAULT 0,
	benefits_cost      DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_labor_burden DOUBLE PRECISION NOT NULL DEFAULT 0,
	employee_count     BIGINT NOT NULL DEFAULT 0,
	labor_percent      DOUBLE PRECISION NOT NULL DEFAULT 0,
	data_source        TEXT NOT NULL DEFAULT 'manual',
	updated_at         TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (restaurant_id, business_date)
);

CREATE TABLE IF NOT EXISTS daily_food_cost (
	restaurant_id         BIGINT NOT NULL REFERENCES restaurants(id),
	business_date         TEXT NOT NULL,
	food_cost             DOUBLE PRECISION NOT NULL DEFAULT 0,
	beverage_cost         DOUBLE PRECISION NOT NULL DEFAULT 0,
	alcohol_cost          DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_cogs            DOUBLE PRECISION NOT NULL DEFAULT 0,
	food_cost_percent     DOUBLE PRECISION NOT NULL DEFAULT 0,
	beverage_cost_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_cogs_percent    DOUBLE PRECISION NOT NULL DEFAULT 0,
	data_source           TEXT NOT NULL DEFAULT 'manual',
	updated_at            TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (restaurant_id, business_date)
);

CREATE TABLE IF NOT EXISTS daily_prime_cost (
	restaurant_id             BIGINT NOT NULL REFERENCES restaurants(id),
	business_date             TEXT NOT NULL,
	net_sales                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_cogs                DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_labor               DOUBLE PRECISION NOT NULL DEFAULT 0,
	prime_cost                DOUBLE PRECISION NOT NULL DEFAULT 0,
	cogs_percent              DOUBLE PRECISION NOT NULL DEFAULT 0,
	labor_percent             DOUBLE PRECISION NOT NULL DEFAULT 0,
	prime_cost_percent        DOUBLE PRECISION NOT NULL DEFAULT 0,
	target_prime_cost_percent DOUBLE PRECISION NOT NULL DEFAULT 65,
	variance_percent          DOUBLE PRECISION NOT NULL DEFAULT 0,
	variance_dollars          DOUBLE PRECISION NOT NULL DEFAULT 0,
	gross_profit              DOUBLE PRECISION NOT NULL DEFAULT 0,
	gross_profit_percent      DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at                TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (restaurant_id, business_date)
);

CREATE TABLE IF NOT EXISTS scrape_log (
	id                TEXT PRIMARY KEY,
	scrape_type       TEXT NOT NULL,
	business_date     TEXT NOT NULL,
	status            TEXT NOT NULL,
	records_processed INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	completed_at      TIMESTAMPTZ NOT NULL,
	duration_seconds  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_daily_sales_date ON daily_sales(business_date);
CREATE INDEX IF NOT EXISTS idx_daily_labor_date ON daily_labor(business_date);
CREATE INDEX IF NOT EXISTS idx_daily_food_cost_date ON daily_food_cost(business_date);
CREATE INDEX IF NOT EXISTS idx_daily_prime_cost_date ON daily_prime_cost(business_date);
CREATE INDEX IF NOT EXISTS idx_scrape_log_date ON scrape_log(business_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Restaurant registry ---

func (s *PostgresStore) ListActiveRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, short_name, brand, city, state,
		        COALESCE(vendor_store_id, ''), COALESCE(netchex_company_name, ''), is_active
		 FROM restaurants WHERE is_active ORDER BY brand, name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list restaurants")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var r model.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.ShortName, &r.Brand, &r.City, &r.State,
			&r.VendorStoreID, &r.NetchexCompanyName, &r.IsActive); err != nil {
			return nil, eris.Wrap(err, "postgres: scan restaurant")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list restaurants iterate")
}

func (s *PostgresStore) GetRestaurantByVendorID(ctx context.Context, vendorStoreID string) (*model.Restaurant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, short_name, brand, city, state,
		        COALESCE(vendor_store_id, ''), COALESCE(netchex_company_name, ''), is_active
		 FROM restaurants WHERE vendor_store_id = $1`,
		vendorStoreID,
	)
	var r model.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.ShortName, &r.Brand, &r.City, &r.State,
		&r.VendorStoreID, &r.NetchexCompanyName, &r.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get restaurant by vendor id")
	}
	return &r, nil
}

func (s *PostgresStore) SeedRestaurants(ctx context.Context, restaurants []model.Restaurant) (int, error) {
	inserted := 0
	for _, r := range restaurants {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO restaurants
			 (name, short_name, brand, city, state, vendor_store_id, netchex_company_name, is_active)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), TRUE)
			 ON CONFLICT (short_name) DO NOTHING`,
			r.Name, r.ShortName, r.Brand, r.City, r.State, r.VendorStoreID, r.NetchexCompanyName,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: seed restaurant %s", r.ShortName)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// --- Fact upserts ---

func (s *PostgresStore) UpsertSales(ctx context.Context, row model.DailySales) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_sales (
			restaurant_id, business_date, gross_sales, net_sales,
			comps, discounts, voids, refunds,
			guest_count, check_count, avg_check, avg_guest_spend,
			food_sales, beverage_sales, alcohol_sales, data_source, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (restaurant_id, business_date) DO UPDATE SET
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
	return eris.Wrapf(err, "postgres: upsert sales %d/%s", row.RestaurantID, row.BusinessDate)
}

func (s *PostgresStore) UpsertLabor(ctx context.Context, row model.DailyLabor) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_labor (
			restaurant_id, business_date,
			total_hours, regular_hours, overtime_hours,
			total_labor_cost, regular_wages, overtime_wages,
			foh_hours, foh_cost, boh_hours, boh_cost,
			management_hours, management_cost,
			payroll_taxes, benefits_cost, total_labor_burden,
			employee_count, labor_percent, data_source, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (restaurant_id, business_date) DO UPDATE SET
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
	return eris.Wrapf(err, "postgres: upsert labor %d/%s", row.RestaurantID, row.BusinessDate)
}

func (s *PostgresStore) UpsertFoodCost(ctx context.Context, row model.DailyFoodCost) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_food_cost (
			restaurant_id, business_date,
			food_cost, beverage_cost, alcohol_cost, total_cogs,
			food_cost_percent, beverage_cost_percent, total_cogs_percent,
			data_source, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (restaurant_id, business_date) DO UPDATE SET
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
	return eris.Wrapf(err, "postgres: upsert food cost %d/%s", row.RestaurantID, row.BusinessDate)
}

func (s *PostgresStore) UpsertPrimeCost(ctx context.Context, row model.DailyPrimeCost) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_prime_cost (
			restaurant_id, business_date, net_sales,
			total_cogs, total_labor, prime_cost,
			cogs_percent, labor_percent, prime_cost_percent,
			target_prime_cost_percent, variance_percent, variance_dollars,
			gross_profit, gross_profit_percent, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (restaurant_id, business_date) DO UPDATE SET
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
	return eris.Wrapf(err, "postgres: upsert prime cost %d/%s", row.RestaurantID, row.BusinessDate)
}

// --- Single-key reads ---

func (s *PostgresStore) GetSales(ctx context.Context, restaurantID int64, businessDate string) (*model.DailySales, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT restaurant_id, business_date, gross_sales, net_sales,
		       comps, discounts, voids, refunds,
		       guest_count, check_count, avg_check, avg_guest_spend,
		       food_sales, beverage_sales, alcohol_sales, data_source, updated_at
		FROM daily_sales WHERE restaurant_id = $1 AND business_date = $2`,
		restaurantID, businessDate,
	)
	var d model.DailySales
	err := row.Scan(&d.RestaurantID, &d.BusinessDate, &d.GrossSales, &d.NetSales,
		&d.Comps, &d.Discounts, &d.Voids, &d.Refunds,
		&d.GuestCount, &d.CheckCount, &d.AvgCheck, &d.AvgGuestSpend,
		&d.FoodSales, &d.BeverageSales, &d.AlcoholSales, &d.DataSource, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get sales")
	}
	return &d, nil
}

func (s *PostgresStore) GetLabor(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyLabor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT restaurant_id, business_date,
		       total_hours, regular_hours, overtime_hours,
		       total_labor_cost, regular_wages, overtime_wages,
		       foh_hours, foh_cost, boh_hours, boh_cost,
		       management_hours, management_cost,
		       payroll_taxes, benefits_cost, total_labor_burden,
		       employee_count, labor_percent, data_source, updated_at
		FROM daily_labor WHERE restaurant_id = $1 AND business_date = $2`,
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
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get labor")
	}
	return &d, nil
}

func (s *PostgresStore) GetFoodCost(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyFoodCost, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT restaurant_id, business_date,
		       food_cost, beverage_cost, alcohol_cost, total_cogs,
		       food_cost_percent, beverage_cost_percent, total_cogs_percent,
		       data_source, updated_at
		FROM daily_food_cost WHERE restaurant_id = $1 AND business_date = $2`,
		restaurantID, businessDate,
	)
	var d model.DailyFoodCost
	err := row.Scan(&d.RestaurantID, &d.BusinessDate,
		&d.FoodCost, &d.BeverageCost, &d.AlcoholCost, &d.TotalCOGS,
		&d.FoodCostPercent, &d.BeverageCostPct, &d.TotalCOGSPercent,
		&d.DataSource, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get food cost")
	}
	return &d, nil
}

func (s *PostgresStore) GetPrimeCost(ctx context.Context, restaurantID int64, businessDate string) (*model.DailyPrimeCost, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT restaurant_id, business_date, net_sales,
		       total_cogs, total_labor, prime_cost,
		       cogs_percent, labor_percent, prime_cost_percent,
		       target_prime_cost_percent, variance_percent, variance_dollars,
		       gross_profit, gross_profit_percent, updated_at
		FROM daily_prime_cost WHERE restaurant_id = $1 AND business_date = $2`,
		restaurantID, businessDate,
	)
	var d model.DailyPrimeCost
	err := row.Scan(&d.RestaurantID, &d.BusinessDate, &d.NetSales,
		&d.TotalCOGS, &d.TotalLabor, &d.PrimeCost,
		&d.COGSPercent, &d.LaborPercent, &d.PrimeCostPercent,
		&d.TargetPrimePercent, &d.VariancePercent, &d.VarianceDollars,
		&d.GrossProfit, &d.GrossProfitPercent, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get prime cost")
	}
	return &d, nil
}

// --- Read-side reporting ---

func (s *PostgresStore) SalesByDateRange(ctx context.Context, restaurantID int64, start, end string) ([]model.DailySales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT restaurant_id, business_date, gross_sales, net_sales,
		       comps, discounts, voids, refunds,
		       guest_count, check_count, avg_check, avg_guest_spend,
		       food_sales, beverage_sales, alcohol_sales, data_source, updated_at
		FROM daily_sales
		WHERE restaurant_id = $1 AND business_date BETWEEN $2 AND $3
		ORDER BY business_date DESC`,
		restaurantID, start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sales by date range")
	}
	defer rows.Close()

	var out []model.DailySales
	for rows.Next() {
		var d model.DailySales
		if err := rows.Scan(&d.RestaurantID, &d.BusinessDate, &d.GrossSales, &d.NetSales,
			&d.Comps, &d.Discounts, &d.Voids, &d.Refunds,
			&d.GuestCount, &d.CheckCount, &d.AvgCheck, &d.AvgGuestSpend,
			&d.FoodSales, &d.BeverageSales, &d.AlcoholSales, &d.DataSource, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sales row")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: sales by date range iterate")
}

func (s *PostgresStore) ConsolidatedSales(ctx context.Context, start, end string) ([]ConsolidatedSalesRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ds.business_date,
		       SUM(ds.gross_sales), SUM(ds.net_sales), SUM(ds.comps), SUM(ds.discounts),
		       SUM(ds.guest_count), SUM(ds.check_count),
		       COALESCE(ROUND((SUM(ds.net_sales) / NULLIF(SUM(ds.check_count), 0))::numeric, 2), 0)
		FROM daily_sales ds
		JOIN restaurants r ON ds.restaurant_id = r.id
		WHERE r.is_active AND ds.business_date BETWEEN $1 AND $2
		GROUP BY ds.business_date
		ORDER BY ds.business_date DESC`,
		start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: consolidated sales")
	}
	defer rows.Close()

	var out []ConsolidatedSalesRow
	for rows.Next() {
		var c ConsolidatedSalesRow
		if err := rows.Scan(&c.BusinessDate, &c.GrossSales, &c.NetSales, &c.Comps, &c.Discounts,
			&c.GuestCount, &c.CheckCount, &c.AvgCheck); err != nil {
			return nil, eris.Wrap(err, "postgres: scan consolidated sales")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: consolidated sales iterate")
}

func (s *PostgresStore) SalesComparison(ctx context.Context, start, end string) ([]SalesComparisonRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.short_name, r.brand,
		       COALESCE(SUM(ds.net_sales), 0),
		       COALESCE(SUM(ds.guest_count), 0),
		       COUNT(DISTINCT ds.business_date),
		       COALESCE(ROUND((SUM(ds.net_sales) / NULLIF(COUNT(DISTINCT ds.business_date), 0))::numeric, 2), 0),
		       COALESCE(ROUND((SUM(ds.net_sales) / NULLIF(SUM(ds.guest_count), 0))::numeric, 2), 0)
		FROM restaurants r
		LEFT JOIN daily_sales ds ON r.id = ds.restaurant_id AND ds.business_date BETWEEN $1 AND $2
		WHERE r.is_active
		GROUP BY r.id
		ORDER BY 5 DESC`,
		start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sales comparison")
	}
	defer rows.Close()

	var out []SalesComparisonRow
	for rows.Next() {
		var c SalesComparisonRow
		if err := rows.Scan(&c.RestaurantID, &c.Restaurant, &c.ShortName, &c.Brand,
			&c.TotalNetSales, &c.TotalGuests, &c.DaysCount, &c.AvgDailySales, &c.AvgPerGuest); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sales comparison")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: sales comparison iterate")
}

func (s *PostgresStore) PrimeCostTrend(ctx context.Context, start, end string, restaurantID int64) ([]PrimeCostTrendRow, error) {
	query := `
		SELECT dpc.business_date,
		       SUM(dpc.net_sales), SUM(dpc.total_cogs), SUM(dpc.total_labor), SUM(dpc.prime_cost),
		       COALESCE(ROUND((SUM(dpc.prime_cost) / NULLIF(SUM(dpc.net_sales), 0) * 100)::numeric, 2), 0),
		       COALESCE(ROUND((SUM(dpc.total_labor) / NULLIF(SUM(dpc.net_sales), 0) * 100)::numeric, 2), 0),
		       COALESCE(ROUND((SUM(dpc.total_cogs) / NULLIF(SUM(dpc.net_sales), 0) * 100)::numeric, 2), 0)
		FROM daily_prime_cost dpc
		JOIN restaurants r ON dpc.restaurant_id = r.id
		WHERE r.is_active AND dpc.business_date BETWEEN $1 AND $2`
	args := []any{start, end}
	if restaurantID > 0 {
		query += ` AND dpc.restaurant_id = $3`
		args = append(args, restaurantID)
	}
	query += ` GROUP BY dpc.business_date ORDER BY dpc.business_date ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: prime cost trend")
	}
	defer rows.Close()

	var out []PrimeCostTrendRow
	for rows.Next() {
		var t PrimeCostTrendRow
		if err := rows.Scan(&t.BusinessDate, &t.NetSales, &t.TotalCOGS, &t.TotalLabor, &t.PrimeCost,
			&t.PrimeCostPercent, &t.LaborPercent, &t.COGSPercent); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prime cost trend")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: prime cost trend iterate")
}

func (s *PostgresStore) ConsolidatedPrimeCost(ctx context.Context, start, end string) (*PrimeCostSummary, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(dpc.net_sales), 0),
		       COALESCE(SUM(dpc.total_cogs), 0),
		       COALESCE(SUM(dpc.total_labor), 0),
		       COALESCE(SUM(dpc.prime_cost), 0),
		       COALESCE(ROUND((SUM(dpc.total_cogs) / NULLIF(SUM(dpc.net_sales), 0) * 100)::numeric, 2), 0),
		       COALESCE(ROUND((SUM(dpc.total_labor) / NULLIF(SUM(dpc.net_sales), 0) * 100)::numeric, 2), 0),
		       COALESCE(ROUND((SUM(dpc.prime_cost) / NULLIF(SUM(dpc.net_sales), 0) * 100)::numeric, 2), 0),
		       COALESCE(SUM(dpc.gross_profit), 0),
		       COALESCE(ROUND((SUM(dpc.gross_profit) / NULLIF(SUM(dpc.net_sales), 0) * 100)::numeric, 2), 0),
		       COUNT(DISTINCT dpc.business_date)
		FROM daily_prime_cost dpc
		JOIN restaurants r ON dpc.restaurant_id = r.id
		WHERE r.is_active AND dpc.business_date BETWEEN $1 AND $2`,
		start, end,
	)
	var sum PrimeCostSummary
	err := row.Scan(&sum.TotalSales, &sum.TotalCOGS, &sum.TotalLabor, &sum.TotalPrimeCost,
		&sum.COGSPercent, &sum.LaborPercent, &sum.PrimeCostPercent,
		&sum.GrossProfit, &sum.GrossProfitPercent, &sum.DaysCount)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: consolidated prime cost")
	}
	return &sum, nil
}

// --- Scrape log ---

func (s *PostgresStore) LogScrape(ctx context.Context, entry model.ScrapeLogEntry) (string, error) {
	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}
	completedAt := entry.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scrape_log
		(id, scrape_type, business_date, status, records_processed, error_message, completed_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		id, entry.ScrapeType, entry.BusinessDate, string(entry.Status),
		entry.RecordsProcessed, entry.ErrorMessage, completedAt, entry.DurationSeconds,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert scrape log")
	}
	return id, nil
}

func (s *PostgresStore) ListScrapeLog(ctx context.Context, limit int) ([]model.ScrapeLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, scrape_type, business_date, status, records_processed,
		       COALESCE(error_message, ''), completed_at, duration_seconds
		FROM scrape_log ORDER BY completed_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scrape log")
	}
	defer rows.Close()

	var out []model.ScrapeLogEntry
	for rows.Next() {
		var e model.ScrapeLogEntry
		var status string
		if err := rows.Scan(&e.ID, &e.ScrapeType, &e.BusinessDate, &status,
			&e.RecordsProcessed, &e.ErrorMessage, &e.CompletedAt, &e.DurationSeconds); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scrape log")
		}
		e.Status = model.ScrapeStatus(status)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list scrape log iterate")
}
