package healthsync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/healthsync/internal/service"
)

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Log scanned meals and manage the pending meal",
}

var (
	mealName          string
	mealRetryQuantity string
)

var mealLogCmd = &cobra.Command{
	Use:   "log <barcode> <grams>",
	Short: "Log a meal by barcode and quantity in grams",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			res, err := s.LogMeal(ctx, args[0], args[1], mealName)
			if err != nil {
				return err
			}
			printMealOutcome(cmd, res)
			return nil
		})
	},
}

var mealRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Resubmit the pending meal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			res, err := s.RetryPendingMeal(ctx, mealRetryQuantity)
			if err != nil {
				return err
			}
			printMealOutcome(cmd, res)
			return nil
		})
	},
}

var mealPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show the pending meal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			p, ok, err := service.GetPendingMeal(e.db)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No pending meal")
				return nil
			}
			fmt.Fprintf(out, "Barcode: %s\n", p.Barcode)
			if p.ProductName != "" {
				fmt.Fprintf(out, "Product: %s\n", p.ProductName)
			}
			if p.QuantityInput != "" {
				fmt.Fprintf(out, "Quantity: %s g\n", p.QuantityInput)
			}
			if p.LastError != "" {
				fmt.Fprintf(out, "Last error: %s\n", p.LastError)
			}
			fmt.Fprintf(out, "Updated: %s\n", p.UpdatedAt.Local().Format("2006-01-02 15:04"))
			return nil
		})
	},
}

var mealDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Drop the pending meal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			if err := service.ClearPendingMeal(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Pending meal discarded")
			return nil
		})
	},
}

func printMealOutcome(cmd *cobra.Command, res service.MealOutcome) {
	out := cmd.OutOrStdout()
	printMeal(out, res.Record)
	if res.Summary != nil {
		fmt.Fprintln(out)
		printSummary(out, *res.Summary)
	} else if res.SummaryErr != nil {
		fmt.Fprintf(out, "Summary unavailable: %v\n", res.SummaryErr)
	}
}

func init() {
	rootCmd.AddCommand(mealCmd)
	mealCmd.AddCommand(mealLogCmd, mealRetryCmd, mealPendingCmd, mealDiscardCmd)

	mealLogCmd.Flags().StringVar(&mealName, "name", "", "Meal name (default: catalog name or \"Scanned product\")")
	mealRetryCmd.Flags().StringVar(&mealRetryQuantity, "quantity", "", "Replace the pending quantity in grams")
}
