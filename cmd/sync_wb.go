package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/finsign/marketsync/internal/source"
)

var syncWBCmd = &cobra.Command{
	Use:   "wb",
	Short: "Ingest the Wildberries sales report for a period",
	Long: `Fetches the supplier sales report for [--since, --until] from the
Wildberries statistics API (rrdid-cursor paginated) and loads it into
raw.wb_sales, replacing any previously loaded rows inside the batch's date
window so re-running a period is idempotent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := dateFlag(cmd, "since")
		if err != nil {
			return err
		}
		until, err := dateFlag(cmd, "until")
		if err != nil {
			return err
		}

		src, err := source.NewWB(cfg.WB, since, until)
		if err != nil {
			return err
		}
		return runSource(cmd.Context(), cmd, src)
	},
}

func init() {
	syncWBCmd.Flags().String("since", "", "start of the report period (YYYY-MM-DD)")
	syncWBCmd.Flags().String("until", "", "end of the report period (YYYY-MM-DD)")
	_ = syncWBCmd.MarkFlagRequired("since")
	_ = syncWBCmd.MarkFlagRequired("until")
	syncCmd.AddCommand(syncWBCmd)
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, eris.Errorf("invalid --%s %q: want YYYY-MM-DD", name, s)
	}
	return t, nil
}
