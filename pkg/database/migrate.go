package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/SscSPs/backoffice_ledger/migrations"
	migrate "github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx" for migrations
)

// MigratePostgres applies every pending PostgreSQL migration. It opens its own
// connection, which the migrate driver closes when done.
func MigratePostgres(databaseURL string) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	if err := migrationDB.Ping(); err != nil {
		migrationDB.Close()
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		migrationDB.Close()
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}
	return runMigrations(migrations.Postgres, "postgres", "postgres", driver)
}

// MigrateSQLite applies every pending SQLite migration to the database file at path.
func MigrateSQLite(path string) error {
	migrationDB, err := OpenSQLite(path)
	if err != nil {
		return err
	}

	driver, err := sqlite3.WithInstance(migrationDB, &sqlite3.Config{})
	if err != nil {
		migrationDB.Close()
		return fmt.Errorf("could not create sqlite driver instance for migrations: %w", err)
	}
	return runMigrations(migrations.SQLite, "sqlite", "sqlite3", driver)
}

func runMigrations(fsys fs.FS, dir, databaseName string, driver migratedb.Driver) error {
	source, err := iofs.New(fsys, dir)
	if err != nil {
		driver.Close()
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, databaseName, driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()

	sourceErr, dbErr := m.Close()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		slog.Info("No new migrations to apply.", slog.String("driver", databaseName))
	} else {
		slog.Info("Database migrations applied successfully.", slog.String("driver", databaseName))
	}
	return nil
}
