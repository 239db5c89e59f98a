package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ranch-group/ops-dashboard/internal/monitoring"
	"github.com/ranch-group/ops-dashboard/internal/server"
)

var (
	servePort       int
	serveNoSchedule bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server and nightly scrape schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(env.Store, env.Runner, env.Guard, server.Options{
			BasicAuthUser:      cfg.Server.AuthUsername,
			BasicAuthPass:      cfg.Server.AuthPassword,
			TargetPrimePercent: cfg.Labor.TargetPrimePercent,
			BurdenRate:         cfg.Labor.BurdenRate,
		})

		var scheduler *cron.Cron
		if !serveNoSchedule && cfg.Scrape.Schedule != "" {
			scheduler = cron.New()
			_, err := scheduler.AddFunc(cfg.Scrape.Schedule, func() {
				if !env.Guard.TryAcquire() {
					zap.L().Warn("scheduled scrape skipped, run already in progress")
					return
				}
				defer env.Guard.Release()

				report := env.Runner.Run(ctx, "")
				zap.L().Info("scheduled scrape finished",
					zap.String("date", report.Date),
					zap.String("status", string(report.Status)),
					zap.Int("succeeded", report.Succeeded()),
					zap.Int("failed", report.Failed()),
				)
			})
			if err != nil {
				return eris.Wrapf(err, "invalid scrape schedule %q", cfg.Scrape.Schedule)
			}
			scheduler.Start()
			defer scheduler.Stop()
			zap.L().Info("scrape schedule active", zap.String("spec", cfg.Scrape.Schedule))
		}

		if cfg.Monitoring.WebhookURL != "" {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(env.Store, cfg.Monitoring.LookbackHours),
				monitoring.NewAlerter(cfg.Monitoring),
				cfg.Monitoring,
			)
			go checker.Run(ctx)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			httpSrv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "disable the nightly scrape schedule")
	rootCmd.AddCommand(serveCmd)
}
