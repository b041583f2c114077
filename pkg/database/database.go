// Package database opens the PostgreSQL pool through the pgx stdlib driver
// and ties its lifetime to the lifecycle coordinator.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/callbook/pkg/lifecycle"
	"github.com/JaimeStill/callbook/pkg/retry"
)

type System interface {
	Connection() *sql.DB
	// Ping is bounded by the configured conn_timeout.
	Ping(ctx context.Context) error
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	startup     retry.Config
}

// New configures the pool without dialing. The first connection is made by
// the startup hook registered in Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	logger = logger.With("system", "database")
	return &database{
		conn:        db,
		logger:      logger,
		connTimeout: cfg.ConnTimeoutDuration(),
		startup: retry.Config{
			MaxAttempts:  5,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Logger:       logger,
		},
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()
	return d.conn.PingContext(ctx)
}

// Start pings with backoff so the service tolerates a database that comes
// up a few seconds after it does.
func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("database", func(ctx context.Context) error {
		if err := retry.Do(ctx, d.startup, d.Ping); err != nil {
			d.logger.Error("database unreachable", "error", err)
			return err
		}
		stats := d.conn.Stats()
		d.logger.Info("database connection established", "open", stats.OpenConnections)
		return nil
	})

	lc.AddProbe("database", d.Ping)

	lc.OnShutdown("database", func() error {
		if err := d.conn.Close(); err != nil {
			return fmt.Errorf("close pool: %w", err)
		}
		d.logger.Info("database connection closed")
		return nil
	})

	return nil
}
