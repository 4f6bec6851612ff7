package healthsync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/healthsync/internal/scanner"
)

var (
	scanDevice   string
	scanQuantity string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Capture one barcode and look it up",
	Long:  "scan reads one barcode from the capture device (\"-\" for standard input), looks it up and keeps it as the pending meal. With --quantity the meal is logged right away.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			device := scanDevice
			if device == "" {
				device = e.cfg.ScannerDevice
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			out := cmd.OutOrStdout()
			res, err := s.ScanProduct(ctx, &scanner.LineDevice{Path: device, Stdin: cmd.InOrStdin()})
			if err != nil {
				return err
			}
			printLookup(out, res)
			if scanQuantity == "" {
				fmt.Fprintln(out, "Saved as pending meal; log it with: healthsync meal retry --quantity <grams>")
				return nil
			}
			meal, err := s.LogMeal(ctx, res.Barcode, scanQuantity, "")
			if err != nil {
				fmt.Fprintln(out, "Meal kept as pending; retry with: healthsync meal retry")
				return err
			}
			printMealOutcome(cmd, meal)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanDevice, "device", "", "Capture device path, or - for stdin (default from config)")
	scanCmd.Flags().StringVar(&scanQuantity, "quantity", "", "Grams eaten; logs the meal immediately")
}
