package healthsync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/healthsync/internal/health"
	"github.com/saadjs/healthsync/internal/model"
)

var (
	syncSteps   int
	syncActive  float64
	syncResting float64
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Submit today's steps and energy totals",
	Long:  "sync reads today's totals from the health export directory (or from --steps/--active/--resting), submits them and refreshes the daily summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		manual := cmd.Flags().Changed("steps") || cmd.Flags().Changed("active") || cmd.Flags().Changed("resting")
		if syncSteps < 0 || syncActive < 0 || syncResting < 0 {
			return fmt.Errorf("--steps, --active and --resting must be >= 0")
		}
		return withEnv(cmd, func(e *cliEnv) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			if manual {
				s.Health = health.Static{Totals: model.HealthTotals{Steps: syncSteps, ActiveEnergy: syncActive, RestingEnergy: syncResting}}
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			out := cmd.OutOrStdout()
			res, err := s.Sync(ctx)
			if err != nil {
				fmt.Fprintln(out, statusLine(s.Store.Snapshot()))
				return err
			}
			printTotals(out, res.Totals)
			printSyncResult(out, res.Result)
			if res.Summary != nil {
				fmt.Fprintln(out)
				printSummary(out, *res.Summary)
			} else if res.SummaryErr != nil {
				fmt.Fprintf(out, "Summary unavailable: %v\n", res.SummaryErr)
			}
			fmt.Fprintln(out, statusLine(s.Store.Snapshot()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().IntVar(&syncSteps, "steps", 0, "Step count to submit instead of reading the export")
	syncCmd.Flags().Float64Var(&syncActive, "active", 0, "Active energy in kcal")
	syncCmd.Flags().Float64Var(&syncResting, "resting", 0, "Resting energy in kcal")
}
