package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jguan/model-catalog/pkg/gateway"
)

func NewStartCommand(root *RootCommand) *cobra.Command {
	var (
		addr string
		seed bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		Long: `Start the mcat HTTP API server.

The server exposes every unit under /api/v1 (REST routes plus the generic
/api/v1/execute endpoint), /health, and Prometheus metrics when enabled.`,
		Example: `  # Start with settings from the config file
  mcat start

  # Listen on all interfaces and load the sample catalog first
  mcat start --addr 0.0.0.0:8080 --seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed {
				if err := seedBuiltin(cmd.Context(), root); err != nil {
					return err
				}
			}
			return runStart(cmd.Context(), root, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server listen address (default from config)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load the built-in sample catalog before serving")

	return cmd
}

// newServer builds the HTTP server from the loaded configuration.
func newServer(root *RootCommand, addr string) *gateway.Server {
	cfg := root.Config()

	serverCfg := gateway.ServerConfig{
		Addr:            cfg.API.ListenAddr,
		EnableCORS:      cfg.API.EnableCORS,
		RateLimitPerMin: cfg.Security.RateLimitPerMin,
		Metrics:         root.recorder,
		Logger:          slog.Default(),
	}
	if addr != "" {
		serverCfg.Addr = addr
	}
	if cfg.Metrics.Enabled && root.gatherer != nil {
		serverCfg.Gatherer = root.gatherer
		serverCfg.MetricsPath = cfg.Metrics.Path
	}

	return gateway.NewServer(root.Gateway(), serverCfg)
}

func runStart(ctx context.Context, root *RootCommand, addr string) error {
	server := newServer(root, addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutting down", "reason", context.Cause(ctx))
	}

	if err := server.Stop(context.Background()); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("mcat server stopped")
	return nil
}

func seedBuiltin(ctx context.Context, root *RootCommand) error {
	fsys, err := seedSource("")
	if err != nil {
		return err
	}
	report, err := newCatalogService(root).Seed(ctx, fsys)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	slog.Info("catalog seeded",
		"models", report.Models,
		"versions", report.Versions,
		"benchmarks", report.Benchmarks,
		"skipped", report.Skipped)
	return nil
}
