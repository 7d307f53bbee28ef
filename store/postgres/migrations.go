package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies the embedded schema migrations.
func (s *Store) runMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("subgate/postgres: load migrations: %w", err)
	}

	drv, err := migratepg.WithInstance(s.db, &migratepg.Config{
		MigrationsTable: "subgate_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("subgate/postgres: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		return fmt.Errorf("subgate/postgres: migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("subgate/postgres: migration failed: %w", err)
	}
	return nil
}
