// Package repository is the Postgres persistence layer of the billing
// ledger: connection pool bootstrap, schema migrations and the
// invoice/transaction store.
package repository

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settlement and refund writes hold row locks only for the span of a single
// short transaction, so a modest pool serves the whole API surface.
const (
	poolMaxConns        = 16
	poolMinConns        = 2
	poolMaxConnIdleTime = 5 * time.Minute
)

func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	config.MaxConns = poolMaxConns
	config.MinConns = poolMinConns
	config.MaxConnIdleTime = poolMaxConnIdleTime
	return config, nil
}

// NewPool opens the ledger database pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations brings the ledger schema up to date from the embedded
// migration files.
func RunMigrations(databaseURL string, migrationsFS fs.FS) error {
	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("ledger schema up to date", "version", version, "dirty", dirty)
	return nil
}
