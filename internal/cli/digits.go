package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tsawler/piscan/pidigits"
)

var digitsCmd = &cobra.Command{
	Use:   "digits N",
	Short: "Print the first N digits of π",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid digit count %q", args[0])
		}
		digits, err := pidigits.Digits(n)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), digits)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(digitsCmd)
}
