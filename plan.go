package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tour-planner/internal/catalog"
	"tour-planner/internal/engine"
	"tour-planner/internal/logger"
	"tour-planner/internal/report"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the best package for one or more regions",
	Example: `  tour-planner plan --region TOS --max-days 5
  tour-planner plan --region TOS --region LAZ --max-budget 800 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		regions, _ := cmd.Flags().GetStringArray("region")
		if len(regions) == 0 {
			return fmt.Errorf("at least one --region is required")
		}
		maxDays, maxBudget := planLimits(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			// Keep stdout parseable.
			logger.SetOutput(os.Stderr)
		}

		modeName := cfg.ExclusionMode
		if m, _ := cmd.Flags().GetString("exclusion-mode"); m != "" {
			modeName = m
		}
		mode, err := engine.ParseExclusionMode(modeName)
		if err != nil {
			return err
		}

		be, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer be.close()

		cat, err := be.source.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		if cfg.Verbose {
			stats := cat.Stats()
			logger.Info("Catalog", fmt.Sprintf("%d tours, %d attractions", stats.Tours, stats.Attractions))
		}

		reqs := make([]engine.Request, len(regions))
		for i, r := range regions {
			reqs[i] = engine.Request{RegionID: r, MaxDays: maxDays, MaxBudget: maxBudget}
		}
		opt := engine.NewOptimizer(cat, engine.WithExclusionMode(mode))
		results, err := engine.PlanBatch(cmd.Context(), opt, reqs, cfg.BatchConcurrency)
		if err != nil {
			return err
		}

		if be.history != nil {
			for _, res := range results {
				if _, err := be.history.InsertPlan(cmd.Context(), res, maxDays, maxBudget); err != nil {
					logger.Warn("DB", fmt.Sprintf("record plan: %v", err))
				}
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if len(results) == 1 {
				return enc.Encode(results[0])
			}
			return enc.Encode(results)
		}
		return printResults(results, cat)
	},
}

func planLimits(cmd *cobra.Command) (engine.Limit[int], engine.Limit[float64]) {
	maxDays := engine.Unlimited[int]()
	if cmd.Flags().Changed("max-days") {
		d, _ := cmd.Flags().GetInt("max-days")
		maxDays = engine.Max(d)
	}
	maxBudget := engine.Unlimited[float64]()
	if cmd.Flags().Changed("max-budget") {
		b, _ := cmd.Flags().GetFloat64("max-budget")
		maxBudget = engine.Max(b)
	}
	return maxDays, maxBudget
}

func printResults(results []*engine.Result, cat *catalog.Catalog) error {
	for _, res := range results {
		if err := report.Print(os.Stdout, report.Markdown(res, cat)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringArrayP("region", "r", nil, "Region id (repeatable)")
	planCmd.Flags().Int("max-days", 0, "Maximum total days (omit for no limit)")
	planCmd.Flags().Float64("max-budget", 0, "Maximum total cost (omit for no limit)")
	planCmd.Flags().Bool("json", false, "Print results as JSON")
	planCmd.Flags().String("exclusion-mode", "", "restore | accumulate (overrides config)")
}
