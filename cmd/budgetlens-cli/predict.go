package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetlens/internal/config"
	"budgetlens/internal/model"
	"budgetlens/internal/services"
)

func predictCmd() *cobra.Command {
	var account, tag string
	cmd := &cobra.Command{
		Use:     "predict",
		Short:   "Predict the category of one account and tag",
		Example: `  budgetlens-cli predict --account acct_1 --tag tag_2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := config.LoadOptions(cfg.OptionsFile)
			if err != nil {
				return err
			}
			if !opts.HasAccount(account) {
				return fmt.Errorf("unknown account %q (choose from %v)", account, opts.Accounts)
			}
			if !opts.HasTag(tag) {
				return fmt.Errorf("unknown tag %q (choose from %v)", tag, opts.Tags)
			}

			categorizer, err := loadCategorizer(services.CategorizerOptions{})
			if err != nil {
				return err
			}
			p, err := categorizer.Predict(cmd.Context(), account, tag)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Label)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account identifier")
	cmd.Flags().StringVar(&tag, "tag", "", "tag identifier")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("tag")
	return cmd
}

func loadCategorizer(opts services.CategorizerOptions) (*services.Categorizer, error) {
	artifacts, err := model.LoadArtifacts(cfg.ClassifierPath, cfg.VectorizerPath)
	if err != nil {
		return nil, err
	}
	return services.NewCategorizer(artifacts, nil, opts, logger), nil
}
