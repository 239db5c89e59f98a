package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ranch-group/ops-dashboard/internal/browser"
	"github.com/ranch-group/ops-dashboard/internal/config"
	"github.com/ranch-group/ops-dashboard/internal/extract"
	"github.com/ranch-group/ops-dashboard/internal/pipeline"
	"github.com/ranch-group/ops-dashboard/internal/reconcile"
	"github.com/ranch-group/ops-dashboard/internal/resilience"
	"github.com/ranch-group/ops-dashboard/internal/store"
)

// env bundles the wired application components shared by the commands.
type env struct {
	Store  store.Store
	Runner *pipeline.Runner
	Guard  *pipeline.Guard
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

// retryConfig converts the configured knobs, logging each retry.
func retryConfig(cfg config.RetryConfig, what string) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: time.Duration(cfg.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.MaxBackoffMs) * time.Millisecond,
		OnRetry: func(attempt int, err error) {
			zap.L().Warn("retrying "+what, zap.Int("attempt", attempt), zap.Error(err))
		},
	}
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		// Connect failures right after a host restart are usually transient.
		return resilience.DoVal(ctx, retryConfig(cfg.Retry, "postgres connect"),
			func(ctx context.Context) (store.Store, error) {
				return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
			})
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// initEnv wires the store, alias table, extractor, and pipeline runner.
func initEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	aliases, err := reconcile.LoadAliases(cfg.Scrape.AliasFile)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "load alias table")
	}

	// Store labels the text tier anchors on: whatever the alias table maps
	// plus the registry's short names.
	labels := make([]string, 0, 2*len(aliases))
	seen := map[string]bool{}
	for label, keyword := range aliases {
		for _, l := range []string{label, keyword} {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	if registry, err := st.ListActiveRestaurants(ctx); err == nil {
		for _, r := range registry {
			if !seen[r.ShortName] {
				seen[r.ShortName] = true
				labels = append(labels, r.ShortName)
			}
		}
	}

	extractor := extract.NewRunner(cfg.Scrape.SectionMarker,
		extract.GridStrategy{},
		extract.NewTextScan(cfg.Scrape.SectionMarker, labels),
	)

	opts := browser.Options{
		BaseURL:          cfg.Vendor.BaseURL,
		Headless:         cfg.Scrape.Headless,
		LoginTimeout:     time.Duration(cfg.Scrape.LoginTimeoutSecs) * time.Second,
		DashboardTimeout: time.Duration(cfg.Scrape.DashboardTimeoutSecs) * time.Second,
		SectionMarker:    cfg.Scrape.SectionMarker,
	}
	creds := browser.Credentials{
		Username: cfg.Vendor.Username,
		Password: cfg.Vendor.Password,
	}
	// Bad credentials and missing login forms are configuration problems;
	// everything else about a failed open is worth another attempt.
	openRetry := retryConfig(cfg.Retry, "session open")
	openRetry.ShouldRetry = func(err error) bool {
		return !eris.Is(err, browser.ErrLoginFormNotFound) && !eris.Is(err, browser.ErrAuthFailed)
	}
	opener := func(ctx context.Context) (pipeline.Session, error) {
		return resilience.DoVal(ctx, openRetry, func(ctx context.Context) (pipeline.Session, error) {
			s, err := browser.Open(ctx, opts, creds)
			if err != nil {
				return nil, err
			}
			return s, nil
		})
	}

	runner := pipeline.NewRunner(st, opener, extractor, aliases, pipeline.Config{
		ScrapeType:         "sales_dashboard",
		TargetPrimePercent: cfg.Labor.TargetPrimePercent,
	})

	return &env{
		Store:  st,
		Runner: runner,
		Guard:  pipeline.NewGuard(),
	}, nil
}
