package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tour-planner/internal/logger"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List catalog regions and their tour counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		be, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer be.close()

		cat, err := be.source.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		logger.Section("Regions")
		for _, r := range cat.Regions() {
			logger.Stats(fmt.Sprintf("%s %s", r.ID, r.Name), fmt.Sprintf("%d tours", len(cat.RegionTours(r.ID))))
		}
		stats := cat.Stats()
		logger.Section("Catalog")
		logger.Stats("Tours", stats.Tours)
		logger.Stats("Attractions", stats.Attractions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
