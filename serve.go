package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tour-planner/internal/api"
	"tour-planner/internal/catalog"
	"tour-planner/internal/logger"
	"tour-planner/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			cfg.ListenAddr = addr
		}
		logger.Banner(version)

		be, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer be.close()

		provider := catalog.NewProvider(be.source)
		m := metrics.New()

		// A missing catalog is not fatal: it can be imported and reloaded later.
		if cat, err := provider.Get(cmd.Context()); err != nil {
			logger.Warn("Catalog", fmt.Sprintf("Not loaded yet: %v", err))
		} else {
			m.SetCatalog(cat)
			stats := cat.Stats()
			logger.Success("Catalog", fmt.Sprintf("Loaded %d regions, %d tours, %d attractions from %s",
				stats.Regions, stats.Tours, stats.Attractions, cfg.Source))
		}

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: api.NewServer(cfg, provider, m, be.history).Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Server(srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server: %w", err)

		case sig := <-shutdown:
			logger.Info("Server", fmt.Sprintf("Shutting down (%v)", sig))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Server", fmt.Sprintf("Graceful shutdown did not complete: %v", err))
				return srv.Close()
			}
			logger.Success("Server", "Stopped")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Listen address (overrides listen_addr)")
}
