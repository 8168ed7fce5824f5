package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gearscope/spec-factory/internal/drift"
)

var driftCategory string

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Detect and reconcile source drift for published products",
}

var driftScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fingerprint evidence sources and detect drift against stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		queue := drift.NewRatedQueue(drift.NewStoreQueue(env.store), cfg.Drift.EnqueuePerSecond)
		scanner := drift.NewScanner(env.store, queue, cfg.Drift.Enqueue)
		scanner.SetLimit(cfg.Drift.ScanLimit)

		report, err := scanner.ScanCategory(ctx, driftCategory)
		if err != nil {
			return err
		}

		fmt.Printf("scan %s: %d products\n", report.RunID, len(report.Rows))
		for status, n := range report.Counts {
			fmt.Printf("  %s: %d\n", status, n)
		}
		return nil
	},
}

var driftReconcileCmd = &cobra.Command{
	Use:   "reconcile <product-id...>",
	Short: "Reconcile re-extracted products against their published records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := drift.NewReconciler(env.store, env.contracts, env.engine, drift.NewStoreQueue(env.store), cfg.Drift.AutoRepublish)
		for _, id := range args {
			outcome, err := r.Reconcile(ctx, driftCategory, id)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s", id, outcome.Outcome)
			if outcome.RepublishedAs != "" {
				fmt.Printf(" (version %s)", outcome.RepublishedAs)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	driftCmd.PersistentFlags().StringVar(&driftCategory, "category", "", "product category (required)")
	_ = driftCmd.MarkPersistentFlagRequired("category")
	driftCmd.AddCommand(driftScanCmd)
	driftCmd.AddCommand(driftReconcileCmd)
	rootCmd.AddCommand(driftCmd)
}
