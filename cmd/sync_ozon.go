package main

import (
	"github.com/spf13/cobra"

	"github.com/finsign/marketsync/internal/source"
)

var syncOzonCmd = &cobra.Command{
	Use:   "ozon",
	Short: "Ingest the Ozon stock-on-warehouses snapshot",
	Long: `Fetches the full stock-on-warehouses snapshot from the Ozon seller API
(offset/limit paginated) and appends it to raw.ozon_stock, capturing raw
payloads in raw.ozon_stock_raw.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := source.NewOzon(cfg.Ozon)
		if err != nil {
			return err
		}
		return runSource(cmd.Context(), cmd, src)
	},
}

func init() {
	syncCmd.AddCommand(syncOzonCmd)
}
