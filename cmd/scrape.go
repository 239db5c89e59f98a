package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ranch-group/ops-dashboard/internal/model"
)

var scrapeDate string

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape of the vendor sales dashboard",
	Long:  "Opens a headless browser session against the POS vendor portal, extracts per-store sales and labor for the business date, and persists the results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if !env.Guard.TryAcquire() {
			return eris.New("a scrape run is already in progress")
		}
		defer env.Guard.Release()

		report := env.Runner.Run(ctx, scrapeDate)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "encode report")
		}

		if report.Status == model.ScrapeStatusError {
			return eris.Errorf("scrape run failed for %s", report.Date)
		}
		zap.L().Info("scrape run finished",
			zap.String("date", report.Date),
			zap.String("status", string(report.Status)),
			zap.Int("succeeded", report.Succeeded()),
			zap.Int("failed", report.Failed()),
		)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeDate, "date", "", "business date YYYY-MM-DD (default yesterday)")
	rootCmd.AddCommand(scrapeCmd)
}
