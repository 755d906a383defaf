package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finsign/marketsync/internal/etl"
	"github.com/finsign/marketsync/internal/store"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild mart.fact_sales from the raw tables",
	Long: `Truncates and recomputes mart.fact_sales from raw.ozon_stock and
raw.wb_sales in a single transaction. Readers observe either the previous
or the new contents, never a mix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := etl.Migrate(ctx, pool); err != nil {
			return err
		}

		if err := store.NewPostgres(pool).RebuildFacts(ctx); err != nil {
			return err
		}

		fmt.Println("fact table rebuilt")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}
