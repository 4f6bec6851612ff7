package healthsync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/healthsync/internal/model"
)

var summaryDate string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the daily nutrition and activity summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := ""
		if cmd.Flags().Changed("date") {
			d, err := parseDateArg(summaryDate)
			if err != nil {
				return err
			}
			date = d
		}
		return withEnv(cmd, func(e *cliEnv) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			var sum model.DailySummary
			if date == "" {
				sum, err = s.RefreshSummary(ctx)
			} else {
				sum, err = s.Summary(ctx, date)
			}
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		})
	},
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's device totals without syncing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			r := e.healthReader()
			if r == nil {
				return fmt.Errorf("health_dir is not configured")
			}
			s := newLocalSession(e, r)
			ctx, cancel := signalContext(cmd)
			defer cancel()

			totals, err := s.ReadTotals(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printTotals(out, totals)
			active, resting := energySplit(totals)
			fmt.Fprintf(out, "Split: %d%% active | %d%% resting\n", active, resting)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd, todayCmd)
	summaryCmd.Flags().StringVar(&summaryDate, "date", "", "Date YYYY-MM-DD (default today)")
}
