package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/contract"
)

var compileCmd = &cobra.Command{
	Use:   "compile <category>",
	Short: "Compile a category's field contract and expectation profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := args[0]
		ctx := cmd.Context()

		schema, err := contract.LoadCategorySchema(filepath.Join(cfg.Contracts.SchemaDir, category+".yaml"))
		if err != nil {
			return err
		}
		signals, err := contract.LoadLearnedSignals(filepath.Join(cfg.Contracts.SignalsDir, category+".yaml"))
		if err != nil {
			return err
		}

		c, err := contract.Compile(schema, signals)
		if err != nil {
			return eris.Wrapf(err, "compile contract for %s", category)
		}
		profile := contract.DeriveExpectations(c, schema, signals)

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.cstore.SaveContract(ctx, c); err != nil {
			return err
		}
		if err := env.cstore.SaveExpectations(ctx, profile); err != nil {
			return err
		}

		zap.L().Info("contract compiled",
			zap.String("category", category),
			zap.String("hash", c.ContentHash),
			zap.Int("fields", len(c.Fields)),
		)
		fmt.Printf("compiled %s: %d fields, hash %s\n", category, len(c.Fields), c.ContentHash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
