package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

//go:embed migrations/*/up.sql
var migrationsFS embed.FS

// migrationLockID serialises concurrent migrators (bridge and API starting
// together) through a transaction-scoped advisory lock.
const migrationLockID = 0x736b797661

const createSchemaMigrationsQuery = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

type SchemaVersion uint64

// Migration is one directory under migrations/, named <version>_<name>.
type Migration struct {
	Version SchemaVersion
	Name    string
}

func (m Migration) UpSQL() (string, error) {
	sql, err := fs.ReadFile(migrationsFS, fmt.Sprintf("migrations/%s/up.sql", m.Name))
	if err != nil {
		return "", errors.Wrapf(err, "read up.sql for migration %s", m.Name)
	}
	return string(sql), nil
}

// CurrentSchemaVersion returns the highest applied version, 0 for a fresh database.
func CurrentSchemaVersion(ctx context.Context, db DB) (SchemaVersion, error) {
	var version int64
	err := db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	return SchemaVersion(version), nil
}

// Migrate creates the schema if it is absent. Running it again is a no-op.
func Migrate(ctx context.Context, db DB, logger *slog.Logger) error {
	if err := createSchemaMigrations(ctx, db); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	current, err := CurrentSchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	migrations, err := MigrationsNewerThan(current)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		applied, err := applyMigration(ctx, db, migration)
		if err != nil {
			return errors.Wrapf(err, "apply migration %d", migration.Version)
		}
		if applied {
			logger.Info("Applied schema migration", "version", migration.Version, "name", migration.Name)
		}
	}

	return nil
}

// createSchemaMigrations runs under the migration lock: two services racing
// on CREATE TABLE IF NOT EXISTS can still hit a unique violation in pg_type.
func createSchemaMigrations(ctx context.Context, db DB) error {
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, createSchemaMigrationsQuery)
		return err
	})
}

func applyMigration(ctx context.Context, db DB, migration Migration) (bool, error) {
	sql, err := migration.UpSQL()
	if err != nil {
		return false, err
	}

	applied := false
	err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return err
		}

		// Another process may have applied it while we waited for the lock.
		var exists bool
		err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`,
			int64(migration.Version)).Scan(&exists)
		if err != nil || exists {
			return err
		}

		if _, err := tx.Exec(ctx, sql); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, int64(migration.Version)); err != nil {
			return err
		}
		applied = true
		return nil
	})

	return applied, err
}

var migrationVersionRegex = regexp.MustCompile(`^(\d+)_`)

// MigrationsNewerThan lists embedded migrations above minVersion in ascending order.
func MigrationsNewerThan(minVersion SchemaVersion) ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var migrations []Migration
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		match := migrationVersionRegex.FindStringSubmatch(entry.Name())
		if len(match) != 2 {
			return nil, errors.Errorf("invalid migration directory name: %s", entry.Name())
		}

		versionInt, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid migration version: %s", match[1])
		}

		version := SchemaVersion(versionInt)
		if version <= minVersion {
			continue
		}

		migrations = append(migrations, Migration{Version: version, Name: entry.Name()})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}
