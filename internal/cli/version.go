package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tsawler/piscan/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// Printing the version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "piscan %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
