package healthsync

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	dbPath      string
	endpointURL string
	authToken   string
	userID      string
	logLevel    string
	healthDir   string
)

var rootCmd = &cobra.Command{
	Use:           "healthsync",
	Short:         "healthsync syncs device activity and logs scanned meals to NutriFit",
	Long:          "healthsync reads today's steps and energy from a Health Auto Export directory, submits them to the NutriFit GraphQL backend, and logs meals from scanned barcodes.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&endpointURL, "endpoint", "", "GraphQL endpoint URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Bearer token for the backend")
	rootCmd.PersistentFlags().StringVar(&userID, "user-id", "", "User id when no token is configured")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&healthDir, "health-dir", "", "Health Auto Export directory")
}
