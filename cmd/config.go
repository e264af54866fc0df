package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfgPath != "" {
			fmt.Fprintf(out, "# loaded from %s\n", cfgPath)
		} else {
			fmt.Fprintln(out, "# defaults (no config file found)")
		}
		return cfg.Write(out)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
