package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// migration is one numbered schema step.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sqlx.Tx) error
}

var registry = []migration{
	{Version: 1, Name: "records_and_audit", Apply: migrateV001},
}

var journalModes = map[string]bool{"WAL": true, "DELETE": true, "TRUNCATE": true, "MEMORY": true}

// MigrationRunner brings a SQLite database up to the latest schema.
type MigrationRunner struct {
	db          *sqlx.DB
	journalMode string
}

// NewMigrationRunner wraps db for migration. An empty journalMode means WAL.
func NewMigrationRunner(db *sql.DB, journalMode string) *MigrationRunner {
	if journalMode == "" {
		journalMode = "wal"
	}
	return &MigrationRunner{db: sqlx.NewDb(db, "sqlite3"), journalMode: journalMode}
}

// Run sets the journal mode, makes sure schema_migrations exists and applies
// every registered migration newer than the highest recorded version. Each
// migration runs in its own transaction together with its bookkeeping row.
func (r *MigrationRunner) Run() error {
	mode := strings.ToUpper(r.journalMode)
	if !journalModes[mode] {
		return fmt.Errorf("unsupported journal mode %q", r.journalMode)
	}
	if _, err := r.db.Exec("PRAGMA journal_mode = " + mode); err != nil {
		return fmt.Errorf("set journal mode: %w", err)
	}

	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := r.db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range registry {
		if m.Version <= current {
			continue
		}
		if err := r.step(m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// Applied lists the recorded migration versions in ascending order.
func (r *MigrationRunner) Applied() ([]int, error) {
	var versions []int
	if err := r.db.Select(&versions, "SELECT version FROM schema_migrations ORDER BY version"); err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *MigrationRunner) step(m migration) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}
