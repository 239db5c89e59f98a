package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent scrape runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := newStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.ListScrapeLog(ctx, statusLimit)
		if err != nil {
			return eris.Wrap(err, "list scrape log")
		}
		if len(entries) == 0 {
			fmt.Println("no scrape runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPLETED\tDATE\tTYPE\tSTATUS\tRECORDS\tDURATION\tERROR")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%ds\t%s\n",
				e.CompletedAt.Format("2006-01-02 15:04:05"),
				e.BusinessDate,
				e.ScrapeType,
				e.Status,
				e.RecordsProcessed,
				e.DurationSeconds,
				e.ErrorMessage,
			)
		}
		return w.Flush()
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(statusCmd)
}
