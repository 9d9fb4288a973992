package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get and Delete for keys that were never written.
var ErrNotFound = errors.New("record not found")

// Store defines the raw key/value operations of the durable medium.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB

	// Prepared statements
	getRecord    *sqlx.Stmt
	putRecord    *sqlx.Stmt
	deleteRecord *sqlx.Stmt
	insertAudit  *sqlx.Stmt
}

// Open creates the database directory if needed, opens the SQLite file at
// path, applies migrations and returns a ready store plus the underlying
// *sql.DB, which the caller closes after the store.
func Open(path, journalMode string) (*SQLiteStore, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := NewMigrationRunner(db, journalMode).Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: sqlx.NewDb(db, "sqlite3")}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getRecord, err = s.db.Preparex(`SELECT value FROM records WHERE key = ?`)
	if err != nil {
		return err
	}

	s.putRecord, err = s.db.Preparex(`
		INSERT INTO records (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}

	s.deleteRecord, err = s.db.Preparex(`DELETE FROM records WHERE key = ?`)
	if err != nil {
		return err
	}

	s.insertAudit, err = s.db.Preparex(`INSERT INTO audit_log (action, detail, ts) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}

	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Get returns the stored value for key, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.getRecord.GetContext(ctx, &value, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get record %s: %w", key, err)
	}
	return value, nil
}

// Put overwrites the value stored under key and appends an audit entry,
// both in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ts := nowStamp()
	if _, err := tx.StmtxContext(ctx, s.putRecord).ExecContext(ctx, key, value, ts); err != nil {
		return fmt.Errorf("put record %s: %w", key, err)
	}
	if _, err := tx.StmtxContext(ctx, s.insertAudit).ExecContext(ctx, "put", key, ts); err != nil {
		return fmt.Errorf("audit put %s: %w", key, err)
	}

	return tx.Commit()
}

// Delete removes a single key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.deleteRecord.ExecContext(ctx, key)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := s.insertAudit.ExecContext(ctx, "delete", key, nowStamp()); err != nil {
		return fmt.Errorf("audit delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored key in lexical order.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM records ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// PurgeAll deletes every record. The audit log keeps a purge entry.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM records")
	if err != nil {
		return fmt.Errorf("purge records: %w", err)
	}
	n, _ := res.RowsAffected()

	if _, err := tx.StmtxContext(ctx, s.insertAudit).ExecContext(ctx, "purge", fmt.Sprintf("%d records", n), nowStamp()); err != nil {
		return fmt.Errorf("audit purge: %w", err)
	}

	return tx.Commit()
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.GetContext(ctx, &stats.TotalRecords, "SELECT COUNT(*) FROM records")
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	err = s.db.GetContext(ctx, &stats.AuditEntries, "SELECT COUNT(*) FROM audit_log")
	if err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	if stats.TotalRecords > 0 {
		var newest string
		if err := s.db.GetContext(ctx, &newest, "SELECT MAX(updated_at) FROM records"); err != nil {
			return nil, fmt.Errorf("last write: %w", err)
		}
		stats.LastWrite, _ = parseTimestamp(newest)
	}

	stats.Keys = []KeySize{}
	err = s.db.SelectContext(ctx, &stats.Keys,
		"SELECT key, LENGTH(CAST(value AS BLOB)) AS bytes FROM records ORDER BY key",
	)
	if err != nil {
		return nil, fmt.Errorf("key sizes: %w", err)
	}
	for _, k := range stats.Keys {
		stats.TotalBytes += k.Bytes
	}

	return stats, nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sqlx.Stmt{
		s.getRecord, s.putRecord, s.deleteRecord, s.insertAudit,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
