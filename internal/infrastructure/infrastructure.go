// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, cache,
// events, metrics) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/callbook/internal/config"
	"github.com/JaimeStill/callbook/internal/metrics"
	"github.com/JaimeStill/callbook/internal/migrations"
	"github.com/JaimeStill/callbook/pkg/cache"
	"github.com/JaimeStill/callbook/pkg/database"
	"github.com/JaimeStill/callbook/pkg/events"
	"github.com/JaimeStill/callbook/pkg/lifecycle"
	"github.com/JaimeStill/callbook/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Cache     cache.System
	Events    events.Publisher
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics

	migrate func() error
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := cfg.Logging.Logger(os.Stderr)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Cache:     cache.New(&cfg.Cache, logger),
		Events:    events.New(&cfg.Events, logger),
		Registry:  reg,
		Metrics:   metrics.NewMetrics(reg),
	}

	if cfg.Database.AutoMigrate {
		dsn := cfg.Database.Dsn()
		infra.migrate = func() error { return migrations.Up(dsn) }
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// With auto_migrate enabled the schema is brought up to date first.
func (i *Infrastructure) Start() error {
	if i.migrate != nil {
		if err := i.migrate(); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
		i.Logger.Info("schema migrations applied")
	}
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Cache.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("cache start failed: %w", err)
	}
	if err := i.Events.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("events start failed: %w", err)
	}
	return nil
}
