package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ranch-group/ops-dashboard/internal/model"
)

// seedRestaurants is the initial registry. INSERT-or-ignore semantics in the
// store make re-running init a no-op for rows that already exist.
var seedRestaurants = []model.Restaurant{
	{
		Name:               "La Hacienda Ranch Arlington",
		ShortName:          "LHR-ARL",
		Brand:              "La Hacienda Ranch",
		City:               "Arlington",
		State:              "TX",
		VendorStoreID:      "2614",
		NetchexCompanyName: "CAM - MARIANOS RESTAURANT ARLINGTON INC",
		IsActive:           true,
	},
	{
		Name:          "La Hacienda Ranch Colleyville",
		ShortName:     "LHR-COL",
		Brand:         "La Hacienda Ranch",
		City:          "Colleyville",
		State:         "TX",
		VendorStoreID: "5250",
		IsActive:      true,
	},
	{
		Name:          "La Hacienda Ranch Frisco",
		ShortName:     "LHR-FRI",
		Brand:         "La Hacienda Ranch",
		City:          "Frisco",
		State:         "TX",
		VendorStoreID: "4110",
		IsActive:      true,
	},
	{
		Name:          "La Hacienda Ranch Preston Trail",
		ShortName:     "LHR-PT",
		Brand:         "La Hacienda Ranch",
		City:          "Dallas",
		State:         "TX",
		VendorStoreID: "17390",
		IsActive:      true,
	},
	{
		Name:          "La Hacienda Ranch Skillman",
		ShortName:     "LHR-SKL",
		Brand:         "La Hacienda Ranch",
		City:          "Dallas",
		State:         "TX",
		VendorStoreID: "6300",
		IsActive:      true,
	},
}

var initDBCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the schema and seed the restaurant registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := newStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate schema")
		}

		inserted, err := st.SeedRestaurants(ctx, seedRestaurants)
		if err != nil {
			return eris.Wrap(err, "seed restaurants")
		}

		zap.L().Info("database initialized",
			zap.String("driver", cfg.Store.Driver),
			zap.Int("restaurants_inserted", inserted),
			zap.Int("restaurants_total", len(seedRestaurants)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
