package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finsign/marketsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "marketsync",
	Short: "Marketplace analytics ingestion pipeline",
	Long:  "Ingests seller analytics from marketplace APIs into raw Postgres tables and rebuilds the mart.fact_sales table the dashboard reads.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
