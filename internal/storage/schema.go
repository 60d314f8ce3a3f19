package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationsTable records applied schema versions.
const MigrationsTable = "schema_migrations"

// Migrate creates the users and orders tables if absent and applies any newer
// migrations. Statements use IF NOT EXISTS, so files created by older
// importers are adopted as-is.
func (db *DB) Migrate() error {
	if db.readOnly {
		return fmt.Errorf("cannot migrate a read-only database")
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.conn.DB, &sqlite.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, DriverName, driver)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	// m.Close would also close db.conn; only the source needs releasing.
	defer func() { _ = src.Close() }()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		db.logger.Debug("Database schema is up to date", "path", db.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, _, verr := m.Version()
	if verr == nil {
		db.logger.Info("Database schema migrated", "path", db.path, "version", version)
	}
	return nil
}

// SchemaVersion returns the applied migration version, or 0 when none has run.
func (db *DB) SchemaVersion(ctx context.Context) (uint, error) {
	exists, err := db.TableExists(ctx, MigrationsTable)
	if err != nil || !exists {
		return 0, err
	}
	var version uint
	err = db.conn.GetContext(ctx, &version, "SELECT version FROM "+MigrationsTable+" LIMIT 1")
	return version, err
}
