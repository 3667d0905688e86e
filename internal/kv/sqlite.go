package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	apperrors "trialguard/internal/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists preferences in a single-file SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and initializes the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, apperrors.NewPermissionError("cannot create preferences directory", err)
		}
		return nil, apperrors.NewStorageError("failed to create preferences directory", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open preferences database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to migrate preferences database", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS preferences (
		namespace  TEXT    NOT NULL,
		key        TEXT    NOT NULL,
		value      INTEGER NOT NULL,
		updated_at TEXT    NOT NULL,
		PRIMARY KEY (namespace, key)
	)`)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Get(ctx context.Context, ns, key string) (int64, bool, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE namespace = ? AND key = ?`, ns, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.NewStorageError(fmt.Sprintf("failed to read %s/%s", ns, key), err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, ns, key string, value int64) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO preferences (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		ns, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s/%s", ns, key), err)
	}
	return nil
}

// Snapshot writes a consistent copy of the database to dst, which must not exist.
func (s *SQLiteStore) Snapshot(ctx context.Context, dst string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dst); err != nil {
		return apperrors.NewStorageError("failed to snapshot preferences database", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }
