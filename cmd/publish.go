package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var publishCategory string

var publishCmd = &cobra.Command{
	Use:   "publish [product-id...]",
	Short: "Validate, version, and publish products in a category",
	Long:  "Merges each product's latest extraction with approved overrides, validates against the compiled contract, publishes changed records, and regenerates category exports. With no product ids, publishes every product with an approved override document.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		batch, err := env.engine.PublishProducts(ctx, publishCategory, args)
		if err != nil {
			return err
		}

		for _, res := range batch.Results {
			switch {
			case res.OK && res.Changed:
				fmt.Printf("%s: published %s (%d changes)\n", res.ProductID, res.Version, len(res.Changes))
			case res.OK:
				fmt.Printf("%s: unchanged at %s\n", res.ProductID, res.Version)
			default:
				fmt.Printf("%s: blocked (%s)\n", res.ProductID, res.Reason)
			}
		}
		fmt.Printf("published %d, unchanged %d, blocked %d, errored %d\n",
			batch.Published, batch.Unchanged, batch.Blocked, batch.Errored)

		if batch.RelationalExportError != "" {
			zap.L().Warn("relational export failed",
				zap.String("error", batch.RelationalExportError))
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishCategory, "category", "", "product category (required)")
	_ = publishCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(publishCmd)
}
