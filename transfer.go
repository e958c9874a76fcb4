package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"tour-planner/internal/config"
	"tour-planner/internal/dataset"
	"tour-planner/internal/db"
	"tour-planner/internal/logger"
	"tour-planner/internal/redisstore"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a JSON dataset into the SQLite or Redis store",
	Example: `  tour-planner import --from italy.json.zst
  tour-planner import --from italy.json --to redis`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		if to == "" {
			to = config.SourceSQLite
			if cfg.Source == config.SourceRedis {
				to = config.SourceRedis
			}
		}

		source := filepath.Base(from)
		if dataset.IsRemote(from) {
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			refresh, _ := cmd.Flags().GetBool("refresh")
			local, err := dataset.Fetch(cmd.Context(), from, cacheDir, refresh)
			if err != nil {
				return err
			}
			source, from = from, local
		}

		cat, err := dataset.Load(from)
		if err != nil {
			return err
		}

		switch to {
		case config.SourceSQLite:
			d, err := db.Open(cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.ImportCatalog(cmd.Context(), cat, source); err != nil {
				return err
			}
		case config.SourceRedis:
			store := redisstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisstore.WithPrefix(cfg.Redis.Prefix))
			defer store.Close()
			if err := store.Save(cmd.Context(), cat, source); err != nil {
				return err
			}
		default:
			return fmt.Errorf("--to must be sqlite or redis, got %q", to)
		}

		stats := cat.Stats()
		logger.Success("Import", fmt.Sprintf("%s → %s: %d regions, %d tours, %d attractions, %d grants",
			source, to, stats.Regions, stats.Tours, stats.Attractions, stats.Grants))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured catalog as a JSON dataset (.zst/.gz compress)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		be, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer be.close()

		cat, err := be.source.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		if err := dataset.WriteFile(out, cat); err != nil {
			return err
		}
		logger.Success("Export", fmt.Sprintf("Wrote %d tours to %s", cat.Stats().Tours, out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd, exportCmd)
	importCmd.Flags().String("from", "", "Dataset file or http(s) URL (.json, .json.zst, .json.gz)")
	importCmd.Flags().String("cache-dir", "data", "Where downloaded datasets are kept")
	importCmd.Flags().Bool("refresh", false, "Download again even if a cached copy exists")
	importCmd.Flags().String("to", "", "Target store: sqlite | redis (default from config)")
	importCmd.MarkFlagRequired("from")
	exportCmd.Flags().StringP("out", "o", "", "Output file")
	exportCmd.MarkFlagRequired("out")
}
