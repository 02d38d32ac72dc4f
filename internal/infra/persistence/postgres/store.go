// Package postgres persists workspace state buckets in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"occucalc/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

var _ domain.StateStore = (*Store)(nil)

const (
	driverName = "pgx"
	localDSN   = "postgres://localhost/occucalc?sslmode=disable"

	schemaSQL = `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	loadSQL = `SELECT payload FROM state WHERE bucket = $1`
	saveSQL = `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`
)

// opener is swapped by OverrideSQLOpen.
var opener = struct {
	sync.Mutex
	open func(driverName, dataSourceName string) (*sql.DB, error)
}{open: sql.Open}

// Store keeps one JSONB row per bucket.
type Store struct {
	db *sql.DB
}

// NewStore connects to dsn, or a local database when dsn is empty, and
// creates the state table if needed.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = localDSN
	}
	opener.Lock()
	db, err := opener.open(driverName, dsn)
	opener.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := prepare(ctx, db); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &Store{db: db}, nil
}

func prepare(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create state table: %w", err)
	}
	return nil
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

// OverrideSQLOpen replaces the connection opener until the returned func runs.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	opener.Lock()
	prev := opener.open
	opener.open = fn
	opener.Unlock()
	return func() {
		opener.Lock()
		opener.open = prev
		opener.Unlock()
	}
}
