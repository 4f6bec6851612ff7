package healthsync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/healthsync/internal/service"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show last sync time and recent sync history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			out := cmd.OutOrStdout()
			last, ok, err := service.LastSuccessfulSync(e.db)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(out, "Last sync: %s\n", last.Local().Format("2006-01-02 15:04"))
			} else {
				fmt.Fprintln(out, "Last sync: never")
			}
			entries, err := service.ListSyncLog(e.db, statusLimit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return nil
			}
			fmt.Fprintln(out, "TIME\tDAY\tSTEPS\tKCAL_OUT\tOUTCOME\tDETAIL")
			for _, en := range entries {
				detail := en.Message
				if en.Result != nil {
					detail = fmt.Sprintf("%+d steps, %+.1f kcal", en.Result.Delta.StepsDelta, en.Result.Delta.CaloriesOutDelta)
				}
				fmt.Fprintf(out, "%s\t%s\t%d\t%.1f\t%s\t%s\n", en.SyncedAt.Local().Format("15:04"), en.Date, en.Steps, en.CaloriesOut, en.Outcome, detail)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of history rows to show")
}
