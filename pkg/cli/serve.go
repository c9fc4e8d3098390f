package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockbetter/pkg/cliconfig"
	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/engine"
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
	"github.com/getmockd/mockbetter/pkg/logging"
	"github.com/getmockd/mockbetter/pkg/telemetry"
)

// shutdownTimeout bounds flushing telemetry on exit.
const shutdownTimeout = 5 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server (foreground)",
		Long: `Start the mock server in the foreground. It runs until interrupted
(Ctrl+C or SIGTERM) and then shuts down gracefully.

The optional seed document (--config) is merged into the factory configuration
at startup and again on every reset.`,
		Example: `  # Start with defaults on port 4280
  mockbetter serve

  # Custom port and administrative prefix
  mockbetter serve --port 3000 --prefix admin

  # Seed routes from a file and expose Prometheus metrics
  mockbetter serve --config seed.yaml --metrics-listen :9464

  # Export request traces to an OTLP collector
  mockbetter serve --otlp-endpoint http://localhost:4318

  # Merge every seed file below seeds/ in lexical order
  mockbetter serve --config 'seeds/**/*.yaml'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cliconfig.Load(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}
	cliconfig.AddServerFlags(cmd.Flags())
	return cmd
}

// runServe starts a server for cfg and blocks until ctx is done.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *cliconfig.CLIConfig) error {
	log := logging.New(cfg.LoggingConfig())

	var seed *jsonvalue.Value
	if cfg.ConfigFile != "" {
		var err error
		seed, err = config.LoadSeed(cfg.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log.Info("loaded seed document", "path", cfg.ConfigFile)
	}

	tel, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, log.With("component", "telemetry"))
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	srv, err := engine.NewServer(cfg.ServerConfiguration(),
		engine.WithLogger(log.With("component", "engine")),
		engine.WithSeed(seed),
		engine.WithTracing(cfg.Tracing),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "mockbetter listening on %s (prefix %q)\n", srv.Addr(), cfg.Prefix)
	if addr := srv.MetricsAddr(); addr != "" {
		fmt.Fprintf(w, "metrics on http://%s/metrics\n", addr)
	}

	<-ctx.Done()
	fmt.Fprintln(w, "shutting down...")
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
