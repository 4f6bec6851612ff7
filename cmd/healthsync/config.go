package healthsync

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/saadjs/healthsync/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage healthsync configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := newViper(cmd, false)
		if err != nil {
			return err
		}
		if err := config.Set(v, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s in %s\n", args[0], v.ConfigFileUsed())
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show effective configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := newViper(cmd, true)
		if err != nil {
			return err
		}
		values := config.Values(v)
		if len(args) == 1 {
			val, ok := values[args[0]]
			if !ok {
				return fmt.Errorf("unknown config key %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), val)
			return nil
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, values[k])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)
}
