// Package core holds the blob Store contract. Export artifacts and the
// blob-backed state store depend on it; backends live under internal/infra/blob.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver names a backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// PutOptions are stored alongside the payload.
type PutOptions struct {
	ContentType string
	// Metadata is small flat key/value data; S3 sends it as x-amz-meta-*.
	Metadata map[string]string
}

// Info is what a backend knows about one object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is a flat key/object namespace. Put replaces existing objects; Get
// and Head wrap ErrNotFound for missing keys; Delete reports whether the key
// existed; List orders by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// ErrNotFound marks a missing key.
var ErrNotFound = errors.New("blob not found")
