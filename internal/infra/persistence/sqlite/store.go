// Package sqlite persists workspace state buckets in an embedded SQLite file.
package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"occucalc/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.StateStore = (*Store)(nil)

// DefaultPath is used when no path is configured.
const DefaultPath = "occucalc.db"

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`
	loadSQL = `SELECT payload FROM state WHERE bucket = ?`
	saveSQL = `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`
)

// Store writes each bucket as a single row, replacing it on every Save.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens the database at path, creating the file, its parent
// directories and the state table as needed.
func NewStore(ctx context.Context, path string) (*Store, error) {
	path = cmp.Or(path, DefaultPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, errors.Join(fmt.Errorf("create state table: %w", err), db.Close())
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Load(ctx context.Context, bucket string) ([]byte, bool, error) {
	var payload []byte
	switch err := s.db.QueryRowContext(ctx, loadSQL, bucket).Scan(&payload); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("select %s: %w", bucket, err)
	}
	return payload, true, nil
}

func (s *Store) Save(ctx context.Context, bucket string, payload []byte) error {
	if _, err := s.db.ExecContext(ctx, saveSQL, bucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", bucket, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB is the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Path() string { return s.path }
