// Package storage opens the configured ledger database and wires the repositories onto it.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/platform/config"
	"github.com/SscSPs/backoffice_ledger/internal/repositories/cache"
	"github.com/SscSPs/backoffice_ledger/internal/repositories/database/pgsql"
	sqliterepo "github.com/SscSPs/backoffice_ledger/internal/repositories/database/sqlite"
	"github.com/SscSPs/backoffice_ledger/pkg/database"
)

// Storage owns every connection the repositories use.
type Storage struct {
	Repos   portsrepo.RepositoryProvider
	closers []func()
}

// Migrate applies pending schema migrations for the configured driver.
func Migrate(cfg *config.Config) error {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return database.MigrateSQLite(cfg.SQLitePath)
	default:
		return database.MigratePostgres(cfg.DatabaseURL)
	}
}

// Open connects to the configured database and, when REDIS_ADDR is set, to the
// account code cache. An unreachable Redis only disables the cache.
func Open(ctx context.Context, cfg *config.Config) (*Storage, error) {
	s := &Storage{}

	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		s.closers = append(s.closers, func() { db.Close() })
		s.Repos = sqliterepo.NewRepositoryProvider(db)
		slog.Info("Using SQLite ledger store", slog.String("path", cfg.SQLitePath))
	default:
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		s.closers = append(s.closers, func() { database.ClosePgxPool(pool) })
		s.Repos = pgsql.NewRepositoryProvider(pool)
		slog.Info("Using PostgreSQL ledger store")
	}

	if cfg.RedisAddr != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("Redis unavailable, continuing without account code cache", slog.String("error", err.Error()))
		} else {
			s.closers = append(s.closers, func() { rdb.Close() })
			s.Repos.AccountCache = cache.NewRedisAccountCodeCache(rdb, cfg.AccountCacheTTL)
		}
	}

	return s, nil
}

// Close releases connections in reverse order of opening.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
