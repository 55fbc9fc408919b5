package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tsawler/piscan"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List the books recorded in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		books, err := piscan.Catalog(cfg.Catalog.Path).Logger(slog.Default()).Books(cmd.Context())
		if err != nil {
			return err
		}
		FormatBooks(cmd.OutOrStdout(), books)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd)
}
