package sqlite

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies the embedded schema migrations.
func (s *Store) runMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("subgate/sqlite: load migrations: %w", err)
	}

	drv, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{
		MigrationsTable: "subgate_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("subgate/sqlite: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("subgate/sqlite: migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("subgate/sqlite: migration failed: %w", err)
	}
	return nil
}
