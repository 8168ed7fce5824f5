package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gearscope/spec-factory/internal/overrides"
)

var overridesCategory string

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Manage manual spec corrections",
}

var overridesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull approved corrections from the Notion review database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Notion.Token == "" || cfg.Notion.ReviewDB == "" {
			return eris.New("notion.token and notion.review_db must be configured")
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		s := overrides.NewSyncer(overrides.NewClient(cfg.Notion.Token), env.store, cfg.Notion.ReviewDB)
		result, err := s.SyncCategory(ctx, overridesCategory)
		if err != nil {
			return err
		}

		fmt.Printf("synced %d products (%d fields), skipped %d malformed rows\n",
			result.Products, result.Fields, result.Skipped)
		return nil
	},
}

func init() {
	overridesCmd.PersistentFlags().StringVar(&overridesCategory, "category", "", "product category (required)")
	_ = overridesCmd.MarkPersistentFlagRequired("category")
	overridesCmd.AddCommand(overridesSyncCmd)
	rootCmd.AddCommand(overridesCmd)
}
