package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lukefredrickson/nfact-dashboard/internal/analysis"
)

var (
	sumOutput     string
	sumOutlierThr float64
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the dataset: coverage, date range, metric statistics and unmatched states",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAssets(context.Background(), true)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if sumOutlierThr > 0 {
			opt.OutlierThreshold = sumOutlierThr
		}
		if len(cfg.CompareMetrics) > 0 {
			opt.GroupMetrics = cfg.CompareMetrics
		}
		var has func(string) bool
		if a.bounds != nil {
			has = a.bounds.Has
		}
		rep, err := analysis.Summarize(a.store, a.catalog, has, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()
		if sumOutput != "" {
			if err := os.WriteFile(sumOutput, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote summary to %s\n", sumOutput)
			return nil
		}
		fmt.Println(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "optional path to write the summary")
	summaryCmd.Flags().Float64Var(&sumOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
