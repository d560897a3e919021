package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

const migrationsTable = "shop_schema_migrations"

// RunMigrations applies the embedded migrations for the active driver. It uses a
// dedicated connection so closing the migrator leaves the shared pool untouched.
func (d *DB) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations/"+d.driver)
	if err != nil {
		return fmt.Errorf("could not open migrations source: %w", err)
	}

	conn, err := sql.Open(d.driver, d.dsn)
	if err != nil {
		return fmt.Errorf("could not open migration connection: %w", err)
	}

	var driver database.Driver
	switch d.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(conn, &postgres.Config{MigrationsTable: migrationsTable})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{MigrationsTable: migrationsTable})
	default:
		err = fmt.Errorf("unsupported driver %q", d.driver)
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.driver, driver)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}
