package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tsawler/piscan"
)

var assembleOut string

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Lay out the digits of π with crops from the catalog",
	Long: `Cover the first N digits of π with crops from the catalog, preferring
crops that show several digits at once. Digits no crop can show are
marked as fallbacks. The placements are written as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := cfg.Assemble
		assembly := piscan.Catalog(cfg.Catalog.Path).
			Digits(a.Digits).
			MaxSpanLength(a.MaxSpanLength).
			DiversityWindow(a.DiversityWindow).
			Logger(slog.Default())
		if !a.AllowRepeats {
			assembly = assembly.NoRepeats()
		}
		if a.IsolateIntegerPart {
			assembly = assembly.IsolateIntegerPart()
		}
		if a.RejectLeadingZeros {
			assembly = assembly.RejectLeadingZeros()
		}
		if a.OnePerBook {
			assembly = assembly.OnePerBook()
		}

		result, warnings, err := assembly.Assemble(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if assembleOut != "" && assembleOut != "-" {
			f, err := os.Create(assembleOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := WritePlacements(out, result.Placements); err != nil {
			return err
		}

		books, err := assembly.Books(cmd.Context())
		if err != nil {
			return err
		}
		summary := cmd.ErrOrStderr()
		FormatStats(summary, result.Stats)
		FormatAttribution(summary, result.Placements, books)
		if len(warnings) > 0 {
			FormatWarnings(summary, warnings)
		}
		return nil
	},
}

func init() {
	flags := assembleCmd.Flags()
	flags.IntVarP(&cfg.Assemble.Digits, "digits", "n", cfg.Assemble.Digits, "Digits of π to lay out, counting the 3")
	flags.IntVar(&cfg.Assemble.MaxSpanLength, "max-span", cfg.Assemble.MaxSpanLength, "Most digits one crop may show (1-5)")
	flags.IntVar(&cfg.Assemble.DiversityWindow, "diversity", cfg.Assemble.DiversityWindow, "Avoid books used in the last K placements")
	flags.BoolVar(&cfg.Assemble.AllowRepeats, "repeats", cfg.Assemble.AllowRepeats, "Allow a crop to be used more than once")
	flags.BoolVar(&cfg.Assemble.IsolateIntegerPart, "isolate-3", cfg.Assemble.IsolateIntegerPart, "Place the leading 3 on its own, followed by the 14")
	flags.BoolVar(&cfg.Assemble.RejectLeadingZeros, "no-leading-zeros", cfg.Assemble.RejectLeadingZeros, "Never let a crop stand for a run starting with 0")
	flags.BoolVar(&cfg.Assemble.OnePerBook, "one-per-book", cfg.Assemble.OnePerBook, "Use at most one crop per value from each book")
	flags.StringVarP(&assembleOut, "out", "f", "-", "Placements file (- for stdout)")
	rootCmd.AddCommand(assembleCmd)
}
