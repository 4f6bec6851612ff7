package healthsync

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/healthsync/internal/service"
)

const (
	offAPIDocsURL       = "https://openfoodfacts.github.io/openfoodfacts-server/api/"
	offRateLimitSummary = "Open Food Facts enforces fair-use limits and requires a descriptive User-Agent."
)

var productCmd = &cobra.Command{
	Use:   "product <barcode>",
	Short: "Look up a product by barcode",
	Long:  "product looks up a barcode in the NutriFit catalog.\n\n" + fallbackHelpText(),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			res, err := s.LookupProduct(ctx, args[0])
			if err != nil {
				return err
			}
			printLookup(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

func printLookup(w io.Writer, res service.LookupOutcome) {
	if res.Found {
		printProduct(w, res.Product)
		return
	}
	fmt.Fprintf(w, "Product %s not found\n", res.Barcode)
	if res.Fallback != nil {
		fmt.Fprintln(w, "Catalog match:")
		printProduct(w, *res.Fallback)
	}
}

func fallbackHelpText() string {
	return strings.Join([]string{
		"When catalog_fallback is enabled, barcodes the catalog does not know are",
		"looked up on Open Food Facts, then USDA FoodData Central (only with",
		"usda_api_key set), then UPCitemdb, to suggest a meal name.",
		"Open Food Facts docs: " + offAPIDocsURL,
		offRateLimitSummary,
		"Enable with: healthsync config set catalog_fallback true",
	}, "\n")
}

func init() {
	rootCmd.AddCommand(productCmd)
}
