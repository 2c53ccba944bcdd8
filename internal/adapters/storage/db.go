package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// SQLDB is the database interface used by all stores.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order; never edit a released step, append a new one.
var migrations = []migration{
	{
		version: 1,
		name:    "audit_event",
		sql: `
		CREATE TABLE IF NOT EXISTS audit_event (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			category TEXT NOT NULL,
			action TEXT NOT NULL,
			outcome TEXT NOT NULL,
			viewer_id TEXT NOT NULL DEFAULT '',
			resource_id TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			ip_address TEXT NOT NULL DEFAULT ''
		);`,
	},
	{
		version: 2,
		name:    "audit_event_indexes",
		sql: `
		CREATE INDEX IF NOT EXISTS idx_audit_event_timestamp ON audit_event(timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_event_resource ON audit_event(resource_id);`,
	},
}

// LatestSchemaVersion returns the version the newest migration brings the schema to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// MigrateDB applies all pending migrations inside one transaction each.
// PRE: db is a valid database connection
// POST: schema_version equals LatestSchemaVersion()
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d (%s): begin: %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): reset version: %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): record version: %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): commit: %w", m.version, m.name, err)
		}
		zap.L().Info("migration_applied", zap.Int("version", m.version), zap.String("name", m.name))
	}
	return nil
}

// SchemaVersion returns the recorded schema version, 0 for a fresh database.
func SchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}
