package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
)

// SQLiteStore implements KeyValueStore backed by a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string

	// Prepared statements
	getValue    *sql.Stmt
	upsertValue *sql.Stmt
	deleteValue *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and
// migrated database. path is informational and used for size reporting; it
// may be empty for in-memory databases.
func NewSQLiteStore(db *sql.DB, path string) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, path: path}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getValue, err = s.db.Prepare(`SELECT value FROM visit_records WHERE key = ?`)
	if err != nil {
		return err
	}

	s.upsertValue, err = s.db.Prepare(`
		INSERT INTO visit_records (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}

	s.deleteValue, err = s.db.Prepare(`DELETE FROM visit_records WHERE key = ?`)
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
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// Get returns the raw value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.getValue.QueryRowContext(ctx, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get value: %w", err)
	}
	return value, true, nil
}

// Put overwrites the value stored under key.
func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.upsertValue.ExecContext(ctx, key, value, ts); err != nil {
		return fmt.Errorf("put value: %w", err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.deleteValue.ExecContext(ctx, key)
	if err != nil {
		return fmt.Errorf("delete value: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return nil
}

// List returns all entries whose key starts with prefix.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM visit_records
		 WHERE substr(key, 1, length(?)) = ?
		 ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("list values: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var tsStr string
		if err := rows.Scan(&e.Key, &e.Value, &tsStr); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.UpdatedAt, _ = parseTimestamp(tsStr)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// PurgeAll deletes every stored value.
func (s *SQLiteStore) PurgeAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM visit_records")
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	return res.RowsAffected()
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Backend: "sqlite", Location: s.path}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visit_records").Scan(&stats.TotalKeys)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalKeys > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx, "SELECT MIN(updated_at), MAX(updated_at) FROM visit_records").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("record time range: %w", err)
		}
		stats.OldestWrite, _ = parseTimestamp(oldestStr)
		stats.NewestWrite, _ = parseTimestamp(newestStr)
	}

	stats.SizeBytes = s.databaseSize(ctx)
	return stats, nil
}

// databaseSize returns the database file size in bytes. For on-disk
// databases it uses os.Stat; otherwise it queries page_count * page_size.
func (s *SQLiteStore) databaseSize(ctx context.Context) int64 {
	if s.path != "" {
		if info, err := os.Stat(s.path); err == nil {
			return info.Size()
		}
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.getValue, s.upsertValue, s.deleteValue}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
