package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "spec-factory",
	Short: "Compiles field contracts, publishes spec records, and watches sources for drift",
	Long:  "Derives per-category field contracts from schemas and learned signals, merges extraction output with approved overrides into versioned published records, exports them, and re-checks live sources for drift.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
