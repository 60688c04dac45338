package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"budgetlens/internal/core"
	"budgetlens/internal/services"
	"budgetlens/internal/tabular"
)

func categorizeCmd() *cobra.Command {
	var in, out string
	var withText bool
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Add a Predicted_Category column to every row of a CSV",
		Example: `  budgetlens-cli categorize --in upload.csv
  budgetlens-cli categorize --in upload.csv --out labelled.csv --with-text`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := tabular.ReadFile(in)
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(table.Len(),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Categorizing rows...[reset]"),
			)
			categorizer, err := loadCategorizer(services.CategorizerOptions{
				IncludeTextColumn: withText || cfg.IncludeTextColumn,
				Progress:          func(done, _ int) { _ = bar.Set(done) },
			})
			if err != nil {
				return err
			}

			res, err := categorizer.CategorizeBatch(cmd.Context(), table, filepath.Base(in))
			if err != nil {
				return err
			}
			_ = bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())

			if err := os.WriteFile(out, res.CSV, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", res.Output.Len(), out)
			for _, lc := range res.LabelCounts {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %d\n", lc.Label, lc.Count)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "CSV file with account and tags columns")
	cmd.Flags().StringVar(&out, "out", core.CategorizedFilename, "where to write the categorized CSV")
	cmd.Flags().BoolVar(&withText, "with-text", false, "keep the joined text column in the output")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
