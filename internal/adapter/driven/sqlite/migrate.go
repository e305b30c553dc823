package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var attemptSchema embed.FS

// ErrAttemptSchemaDirty means a previous attempt-table migration stopped
// halfway. The database needs fixing by hand before baron will record again.
var ErrAttemptSchemaDirty = errors.New("attempt schema is dirty")

// MigrateAttempts creates or upgrades the attempts table and returns the
// schema version it ended on. Running it against an up-to-date database is
// a no-op.
func MigrateAttempts(db *sql.DB) (uint, error) {
	src, err := iofs.New(attemptSchema, "migrations")
	if err != nil {
		return 0, fmt.Errorf("open attempt schema: %w", err)
	}

	// The driver keeps its bookkeeping beside the attempts table.
	target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{
		MigrationsTable: "attempt_schema_migrations",
	})
	if err != nil {
		return 0, fmt.Errorf("attach attempt schema driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("create attempt migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			return uint(dirtyErr.Version), fmt.Errorf("version %d: %w", dirtyErr.Version, ErrAttemptSchemaDirty)
		}
		return 0, fmt.Errorf("migrate attempts: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read attempt schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("version %d: %w", version, ErrAttemptSchemaDirty)
	}
	return version, nil
}
