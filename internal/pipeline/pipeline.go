// Package pipeline orchestrates one scrape run: open an authenticated
// session, extract per-store metrics, reconcile them against the restaurant
// registry, persist facts, recompute prime cost, and write a run log entry.
// Callers always get a RunReport back, even when every step failed.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ranch-group/ops-dashboard/internal/browser"
	"github.com/ranch-group/ops-dashboard/internal/extract"
	"github.com/ranch-group/ops-dashboard/internal/model"
	"github.com/ranch-group/ops-dashboard/internal/primecost"
	"github.com/ranch-group/ops-dashboard/internal/reconcile"
	"github.com/ranch-group/ops-dashboard/internal/store"
)

// Run steps, recorded in error outcomes so a failed run names the step that
// killed it.
const (
	StepRegistryLoading  = "registry_loading"
	StepSessionOpening   = "session_opening"
	StepAuthenticating   = "authenticating"
	StepDashboardLoading = "dashboard_loading"
	StepExtracting       = "extracting"
	StepReconciling      = "reconciling"
	StepPersisting       = "persisting"
	StepLoggingResult    = "logging_result"
)

// ReasonExtractionFailed marks restaurants skipped because every extraction
// tier returned zero stores.
const ReasonExtractionFailed = "extraction_failed"

// Session is the slice of a browser session the pipeline needs.
type Session interface {
	extract.Page
	Close()
}

// Opener acquires an authenticated dashboard session.
type Opener func(ctx context.Context) (Session, error)

// Extractor pulls store records off an authenticated page.
type Extractor interface {
	Extract(ctx context.Context, page extract.Page) (*extract.Result, error)
}

// Config tunes a Runner.
type Config struct {
	ScrapeType         string  // run log label, e.g. "sales_dashboard"
	TargetPrimePercent float64 // 0 means the engine default
}

// Runner executes scrape runs. One run is strictly sequential; concurrent
// run exclusion is the caller's job (see Guard).
type Runner struct {
	store     store.Store
	open      Opener
	extractor Extractor
	aliases   reconcile.AliasTable
	cfg       Config
}

func NewRunner(st store.Store, open Opener, extractor Extractor, aliases reconcile.AliasTable, cfg Config) *Runner {
	if cfg.ScrapeType == "" {
		cfg.ScrapeType = "sales_dashboard"
	}
	return &Runner{store: st, open: open, extractor: extractor, aliases: aliases, cfg: cfg}
}

// Yesterday is the default business date: the previous day in local time.
func Yesterday() string {
	return time.Now().AddDate(0, 0, -1).Format("2006-01-02")
}

// Run executes one pipeline run for the given business date (yesterday when
// empty). It always returns a report; errors inside the run surface as
// restaurant outcomes and the run status, never as a bare error.
func (r *Runner) Run(ctx context.Context, businessDate string) *model.RunReport {
	start := time.Now()
	if businessDate == "" {
		businessDate = Yesterday()
	}
	report := &model.RunReport{Date: businessDate, Status: model.ScrapeStatusError}

	zap.L().Info("pipeline: run starting",
		zap.String("business_date", businessDate),
		zap.String("scrape_type", r.cfg.ScrapeType),
	)

	registry, err := r.store.ListActiveRestaurants(ctx)
	if err != nil {
		return r.failRun(ctx, report, nil, StepRegistryLoading,
			eris.Wrap(err, "load restaurant registry"), start)
	}

	session, err := r.open(ctx)
	if err != nil {
		return r.failRun(ctx, report, registry, stepForOpenError(err), err, start)
	}
	defer session.Close()

	result, err := r.extractor.Extract(ctx, session)
	if err != nil {
		return r.failRun(ctx, report, registry, StepExtracting, err, start)
	}
	report.Source = result.Source

	// Zero stores after every tier is a degraded page, not a matching
	// problem; no restaurant gets blamed as unmatched.
	if len(result.Stores) == 0 {
		return r.emptyRun(ctx, report, registry, result.Diagnostics, start)
	}

	matches := reconcile.Match(registry, result.Stores, r.aliases)

	for _, m := range matches {
		report.PerRestaurant = append(report.PerRestaurant, r.persistOne(ctx, m, businessDate))
	}

	report.Status = runStatus(report)
	report.Duration = time.Since(start)
	r.writeRunLog(ctx, report, "")

	zap.L().Info("pipeline: run finished",
		zap.String("business_date", businessDate),
		zap.String("status", string(report.Status)),
		zap.String("source", report.Source),
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", report.Failed()),
		zap.Duration("duration", report.Duration),
	)
	return report
}

// persistOne writes one restaurant's facts and recomputes its prime cost.
// Failures are contained to this restaurant's outcome.
func (r *Runner) persistOne(ctx context.Context, m reconcile.MatchResult, businessDate string) model.RestaurantOutcome {
	outcome := model.RestaurantOutcome{
		RestaurantID: m.Restaurant.ID,
		Restaurant:   m.Restaurant.Name,
	}

	if m.Record == nil {
		outcome.Status = model.OutcomeNoData
		outcome.Reason = "unmatched"
		return outcome
	}
	if reconcile.ZeroSalesMeansNoData(m.Record) {
		outcome.Status = model.OutcomeNoData
		outcome.Reason = "zero_sales"
		return outcome
	}

	rec := m.Record
	sales := model.DailySales{
		RestaurantID: m.Restaurant.ID,
		BusinessDate: businessDate,
		GrossSales:   rec.NetSales,
		NetSales:     rec.NetSales,
		Comps:        rec.Comps,
		Voids:        rec.Voids,
		GuestCount:   rec.GuestCount,
		CheckCount:   rec.CheckCount,
		AvgCheck:     rec.CheckAvg,
		DataSource:   "aloha_scrape",
	}
	if sales.AvgCheck == 0 && rec.CheckCount > 0 {
		sales.AvgCheck = rec.NetSales / float64(rec.CheckCount)
	}
	if err := r.store.UpsertSales(ctx, sales); err != nil {
		outcome.Status = model.OutcomeError
		outcome.Reason = fmt.Sprintf("%s: %v", StepPersisting, err)
		return outcome
	}

	labor := model.DailyLabor{
		RestaurantID:   m.Restaurant.ID,
		BusinessDate:   businessDate,
		TotalHours:     rec.LaborHours,
		TotalLaborCost: rec.LaborCost,
		LaborPercent:   rec.LaborPercent,
		DataSource:     "aloha_scrape",
	}
	if err := r.store.UpsertLabor(ctx, labor); err != nil {
		outcome.Status = model.OutcomeError
		outcome.Reason = fmt.Sprintf("%s: %v", StepPersisting, err)
		return outcome
	}

	if err := primecost.Recompute(ctx, r.store, m.Restaurant.ID, businessDate, r.cfg.TargetPrimePercent); err != nil {
		outcome.Status = model.OutcomeError
		outcome.Reason = fmt.Sprintf("%s: %v", StepPersisting, err)
		return outcome
	}

	outcome.Status = model.OutcomeSuccess
	outcome.NetSales = rec.NetSales
	outcome.LaborPercent = rec.LaborPercent
	return outcome
}

// emptyRun marks every restaurant no_data when extraction found no stores
// at all, carrying the extractor's page snapshot into the run log.
func (r *Runner) emptyRun(ctx context.Context, report *model.RunReport, registry []model.Restaurant, diag *extract.Diagnostics, start time.Time) *model.RunReport {
	msg := ReasonExtractionFailed
	if diag != nil {
		msg = fmt.Sprintf("%s: url=%s title=%q marker_found=%t angular_ready=%t text_length=%d",
			ReasonExtractionFailed, diag.URL, diag.Title, diag.MarkerFound, diag.AngularReady, diag.TextLength)
	}
	zap.L().Warn("pipeline: extraction produced no stores",
		zap.String("business_date", report.Date),
		zap.String("diagnostics", msg),
	)

	for _, rest := range registry {
		report.PerRestaurant = append(report.PerRestaurant, model.RestaurantOutcome{
			RestaurantID: rest.ID,
			Restaurant:   rest.Name,
			Status:       model.OutcomeNoData,
			Reason:       ReasonExtractionFailed,
		})
	}
	report.Status = model.ScrapeStatusError
	report.Duration = time.Since(start)
	r.writeRunLog(ctx, report, msg)
	return report
}

// failRun marks every registry restaurant with the failing step and still
// attempts to write the run log.
func (r *Runner) failRun(ctx context.Context, report *model.RunReport, registry []model.Restaurant, step string, cause error, start time.Time) *model.RunReport {
	zap.L().Error("pipeline: run failed",
		zap.String("step", step),
		zap.String("business_date", report.Date),
		zap.Error(cause),
	)
	reason := fmt.Sprintf("%s: %v", step, cause)
	for _, rest := range registry {
		report.PerRestaurant = append(report.PerRestaurant, model.RestaurantOutcome{
			RestaurantID: rest.ID,
			Restaurant:   rest.Name,
			Status:       model.OutcomeError,
			Reason:       reason,
		})
	}
	report.Status = model.ScrapeStatusError
	report.Duration = time.Since(start)
	// With no registry there are no per-restaurant reasons to carry the
	// cause, so the log entry takes it directly.
	extraMsg := ""
	if len(registry) == 0 {
		extraMsg = reason
	}
	r.writeRunLog(ctx, report, extraMsg)
	return report
}

// writeRunLog appends the run's audit row. extraMsg, when non-empty, leads
// the error message; per-restaurant failures follow. Logging must never take
// the run down with it.
func (r *Runner) writeRunLog(ctx context.Context, report *model.RunReport, extraMsg string) {
	entry := model.ScrapeLogEntry{
		ScrapeType:       r.cfg.ScrapeType,
		BusinessDate:     report.Date,
		Status:           report.Status,
		RecordsProcessed: report.Succeeded(),
		DurationSeconds:  int(report.Duration.Seconds()),
	}
	msgs := failureReasons(report)
	if extraMsg != "" {
		msgs = append([]string{extraMsg}, msgs...)
	}
	if len(msgs) > 0 {
		entry.ErrorMessage = strings.Join(msgs, "; ")
	}

	id, err := r.store.LogScrape(ctx, entry)
	if err != nil {
		zap.L().Error("pipeline: run log write failed", zap.Error(err))
		return
	}
	report.LogEntryID = id
}

func failureReasons(report *model.RunReport) []string {
	var msgs []string
	seen := map[string]bool{}
	for _, o := range report.PerRestaurant {
		if o.Status != model.OutcomeError || o.Reason == "" || seen[o.Reason] {
			continue
		}
		seen[o.Reason] = true
		msgs = append(msgs, o.Reason)
	}
	return msgs
}

// runStatus derives the overall status: success only when every restaurant
// succeeded, error when nothing did, partial in between.
func runStatus(report *model.RunReport) model.ScrapeStatus {
	total := len(report.PerRestaurant)
	ok := report.Succeeded()
	switch {
	case total > 0 && ok == total:
		return model.ScrapeStatusSuccess
	case ok > 0:
		return model.ScrapeStatusPartial
	default:
		return model.ScrapeStatusError
	}
}

func stepForOpenError(err error) string {
	switch {
	case eris.Is(err, browser.ErrLoginFormNotFound), eris.Is(err, browser.ErrAuthFailed):
		return StepAuthenticating
	case eris.Is(err, browser.ErrDashboardTimeout):
		return StepDashboardLoading
	default:
		return StepSessionOpening
	}
}
