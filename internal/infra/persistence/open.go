// Package persistence selects a state store backend for the workspace.
package persistence

import (
	"context"
	"fmt"

	"occucalc/internal/blob"
	"occucalc/internal/infra/persistence/blobstate"
	"occucalc/internal/infra/persistence/memory"
	"occucalc/internal/infra/persistence/postgres"
	"occucalc/internal/infra/persistence/sqlite"
	"occucalc/pkg/domain"
)

// Driver names a state store backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverBlob     Driver = "blob"
)

// Options configures Open. Blob is required for DriverBlob.
type Options struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Store
}

// Open returns the configured store. An empty driver selects sqlite.
func Open(ctx context.Context, opts Options) (domain.StateStore, error) {
	var (
		store domain.StateStore
		err   error
	)
	switch opts.Driver {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite, "":
		store, err = sqlite.NewStore(ctx, opts.SQLitePath)
	case DriverPostgres:
		store, err = postgres.NewStore(ctx, opts.PostgresDSN)
	case DriverBlob:
		store, err = blobstate.NewStore(opts.Blob)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s state store: %w", opts.Driver, err)
	}
	return store, nil
}
