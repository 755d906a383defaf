package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finsign/marketsync/internal/etl"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingestion runs",
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

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := etl.NewRunLog(pool).List(ctx, limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tSTARTED\tFINISHED\tROWS\tMESSAGE")
		for _, e := range entries {
			finished := "-"
			if e.FinishedAt != nil {
				finished = e.FinishedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
				e.ID, e.Source, e.Status,
				e.StartedAt.Format("2006-01-02 15:04:05"),
				finished, e.RowsLoaded, e.Message,
			)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}
