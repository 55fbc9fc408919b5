package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tsawler/piscan"
	"github.com/tsawler/piscan/ocr"
)

var extractShowWarnings bool

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Crop the numbers in a corpus into the catalog",
	Long: `Scan every book directory under the corpus root, detect numbers written
with digits or in words, and write one PNG crop per number. Each page's
crops are recorded in the catalog in one transaction, so an interrupted
run can simply be started again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := cfg.Extract
		pipeline := piscan.Corpus(cfg.Corpus.Root).
			Output(e.OutputDir).
			Catalog(cfg.Catalog.Path).
			Workers(e.Workers).
			Margin(e.Margin).
			MinConfidence(e.MinConfidence).
			TargetHeight(e.TargetHeight).
			Logger(slog.Default())
		if !e.WordForm {
			pipeline = pipeline.DigitsOnly()
		}

		if e.Verify {
			oc := ocr.DefaultConfig()
			if !e.WordForm {
				oc = ocr.DigitsConfig()
			}
			client, err := ocr.NewWithConfig(oc)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			defer client.Close()
			pipeline = pipeline.Verify(ocr.NewVerifier(client))
		}

		report, warnings, err := pipeline.Extract(cmd.Context())
		if report != nil {
			FormatReport(cmd.OutOrStdout(), report)
		}
		if extractShowWarnings && len(warnings) > 0 {
			FormatWarnings(cmd.OutOrStdout(), warnings)
		}
		return err
	},
}

func init() {
	flags := extractCmd.Flags()
	flags.StringVar(&cfg.Corpus.Root, "corpus", cfg.Corpus.Root, "Corpus root with one directory per book")
	flags.StringVarP(&cfg.Extract.OutputDir, "output", "o", cfg.Extract.OutputDir, "Directory crops are written under")
	flags.IntVarP(&cfg.Extract.Workers, "workers", "w", cfg.Extract.Workers, "Pages processed at once (0 = one per CPU)")
	flags.IntVar(&cfg.Extract.Margin, "margin", cfg.Extract.Margin, "Pixels added around each number")
	flags.Float64Var(&cfg.Extract.MinConfidence, "min-confidence", cfg.Extract.MinConfidence, "OCR word confidence (0-100) a word must exceed")
	flags.IntVar(&cfg.Extract.TargetHeight, "height", cfg.Extract.TargetHeight, "Rescale crops to this height (0 = keep)")
	flags.BoolVar(&cfg.Extract.WordForm, "words", cfg.Extract.WordForm, "Detect numbers spelled out in words")
	flags.BoolVar(&cfg.Extract.Verify, "verify", cfg.Extract.Verify, "Re-read each crop with Tesseract (needs -tags ocr)")
	flags.BoolVar(&extractShowWarnings, "warnings", false, "List every warning after the report")
	rootCmd.AddCommand(extractCmd)
}
