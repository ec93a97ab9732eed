package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homestack/toolhub/internal/metrics"
	"github.com/homestack/toolhub/internal/server"
	"github.com/homestack/toolhub/pkg/actions"
	"github.com/homestack/toolhub/pkg/catalog"
	"github.com/homestack/toolhub/pkg/execlog"
	"github.com/homestack/toolhub/pkg/executor"
	"github.com/homestack/toolhub/pkg/registry"
	"github.com/homestack/toolhub/pkg/schema"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the toolhub server",
	Long: `Run the toolhub HTTP server in the foreground.
The server exposes tool listing and export, tool execution, admin
catalog management, and a websocket feed of execution events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	zl := log.GetZerolog()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	m := metrics.NewMetrics()

	store, err := catalog.NewSQLiteStore(catalog.SQLiteConfig{
		DBPath: cfg.Catalog.DBPath,
		Logger: zl,
	})
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	if cfg.Catalog.SeedDefaults {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		seeded, err := catalog.SeedDefaults(ctx, store)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		if seeded > 0 {
			zl.Info().Int("count", seeded).Msg("Seeded default tools")
		}
	}

	reg, err := registry.New(registry.Config{
		Store:    store,
		CacheTTL: cfg.Catalog.CacheTTL(),
		Logger:   zl,
		Metrics:  m,
	})
	if err != nil {
		return err
	}

	if cfg.Catalog.WatchPath != "" {
		watcher, err := registry.NewCatalogWatcher(cfg.Catalog.WatchPath, reg, store, zl)
		if err != nil {
			return fmt.Errorf("failed to start catalog watcher: %w", err)
		}
		defer watcher.Stop()
	}

	sink, err := execlog.NewSQLiteSink(execlog.SQLiteConfig{
		DBPath: cfg.ExecLog.DBPath,
		Logger: zl,
	})
	if err != nil {
		return fmt.Errorf("failed to open execution log: %w", err)
	}

	writer := execlog.NewWriter(execlog.WriterConfig{
		Sink:      sink,
		Logger:    zl,
		QueueSize: cfg.ExecLog.QueueSize,
		Metrics:   m,
	})
	defer writer.Close()

	pruner := execlog.NewPruner(sink, cfg.ExecLog.Retention(), zl)
	if err := pruner.Start(); err != nil {
		return fmt.Errorf("failed to schedule execution log pruning: %w", err)
	}
	defer pruner.Stop()

	actionRegistry := actions.NewRegistry()
	if err := actions.RegisterCoreActions(actionRegistry); err != nil {
		return err
	}

	exec, err := executor.New(executor.Config{
		Registry:  reg,
		Validator: schema.NewValidator(),
		Actions:   actionRegistry,
		LogWriter: writer,
		BaseURL:   executor.NewBaseURLResolver(cfg.Server.InternalBaseURL, cfg.Server.Port),
		Logger:    zl,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	srv, err := server.NewServer(server.Options{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	}, reg, store, exec, m, zl)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		zl.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		return srv.Stop()
	}
}
