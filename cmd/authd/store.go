package main

import (
	"context"
	"fmt"

	"github.com/dtroode/ansv-auth/internal/config"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/model"
	"github.com/dtroode/ansv-auth/internal/repository/memory"
	"github.com/dtroode/ansv-auth/internal/repository/postgres"
	"github.com/dtroode/ansv-auth/internal/repository/sqlite"
)

// stores bundles the persistence selected by DATABASE_DRIVER.
type stores struct {
	users    model.UserStore
	sessions model.SessionStore
	pinger   model.Pinger
	close    func() error
}

// openStores connects to the configured database. Postgres and SQLite are
// migrated on open.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		conn, err := postgres.NewConnection(ctx, cfg.Database.DSN, cfg.Database.ConnectAttempts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		return &stores{
			users:    postgres.NewUserRepository(conn),
			sessions: postgres.NewSessionRepository(conn),
			pinger:   conn,
			close:    conn.Close,
		}, nil

	case config.DriverSQLite:
		conn, err := sqlite.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite: %w", err)
		}
		return &stores{
			users:    sqlite.NewUserRepository(conn.DB),
			sessions: sqlite.NewSessionRepository(conn.DB),
			pinger:   conn,
			close:    conn.Close,
		}, nil

	case config.DriverMemory:
		log.Warn("Using in-memory storage, all accounts are lost on exit")
		store := memory.NewStore()
		return &stores{
			users:    store,
			sessions: store,
			pinger:   store,
			close:    func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
