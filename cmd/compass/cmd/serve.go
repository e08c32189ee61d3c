package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tagconcierge/compass/internal/config"
	"github.com/tagconcierge/compass/internal/index"
	"github.com/tagconcierge/compass/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the compass HTTP server",
		Long: `Run the HTTP server: search queries, rebuild scheduling and status,
and the save/delete mutation endpoints.

The serving process owns the recurring rebuild timer. A data-directory
lock prevents two serving processes from sharing one index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// One serving process per data directory.
	lock := flock.New(filepath.Join(cfg.DataDir, "compass.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data directory lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("data directory %s is in use by another compass process", cfg.DataDir)
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// A rebuild flag left by a crashed process would block rebuilds forever,
	// but a young flag may belong to a rebuild command running right now.
	a.coordinator.ClearFlagIfStale(ctx, index.DefaultStaleFlagAge)

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		AuthSecret:      cfg.Server.AuthSecret,
		ShutdownTimeout: cfg.ShutdownTimeout(),
	}, a.engine, a.indexer, a.coordinator)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.ListenAndServe()
	})
	g.Go(func() error {
		err := a.coordinator.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown_started")
		return srv.Shutdown(context.WithoutCancel(ctx))
	})

	err = g.Wait()

	// This process cannot be mid-rebuild anymore; a lingering flag is stale.
	a.coordinator.ClearStaleFlag(context.WithoutCancel(ctx))
	slog.Info("shutdown_complete")
	return err
}
