package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tour-planner/internal/api"
	"tour-planner/internal/catalog"
	"tour-planner/internal/config"
	"tour-planner/internal/dataset"
	"tour-planner/internal/db"
	"tour-planner/internal/logger"
	"tour-planner/internal/redisstore"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tour-planner",
	Short: "Builds the highest-value cultural tour package for a region",
	Long: `tour-planner picks the combination of tours in a region that maximises total
cultural value under optional day and budget limits, crediting each attraction
at most once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			c.Verbose = true
		}
		cfg = c
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("CLI", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (TOURPLAN_* env vars override it)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log catalog and search details")
}

// backend bundles the configured catalog source with the optional pieces
// only some sources provide.
type backend struct {
	source  catalog.Source
	history api.History
	close   func() error
}

func openBackend(c *config.Config) (*backend, error) {
	switch c.Source {
	case config.SourceSQLite:
		d, err := db.Open(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{source: d, history: d, close: d.Close}, nil
	case config.SourceJSON:
		path := c.DatasetPath
		return &backend{
			source: catalog.SourceFunc(func(context.Context) (*catalog.Catalog, error) {
				return dataset.Load(path)
			}),
			close: func() error { return nil },
		}, nil
	case config.SourceRedis:
		store := redisstore.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, redisstore.WithPrefix(c.Redis.Prefix))
		return &backend{source: store, close: store.Close}, nil
	}
	return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, c.Source)
}
