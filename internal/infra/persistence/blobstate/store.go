// Package blobstate persists workspace state buckets as JSON objects in a
// blob store, one object per bucket under state/.
package blobstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"occucalc/internal/blob"
	"occucalc/pkg/domain"
)

var _ domain.StateStore = (*Store)(nil)

// Prefix is prepended to every bucket key.
const Prefix = "state/"

// Store maps bucket names onto blob keys.
type Store struct {
	blobs blob.Store
}

// NewStore wraps blobs.
func NewStore(blobs blob.Store) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	return &Store{blobs: blobs}, nil
}

// Key returns the blob key holding bucket.
func Key(bucket string) string { return Prefix + bucket + ".json" }

// Load returns the payload stored under bucket.
func (s *Store) Load(ctx context.Context, bucket string) ([]byte, bool, error) {
	_, rc, err := s.blobs.Get(ctx, Key(bucket))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", bucket, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", bucket, err)
	}
	return b, true, nil
}

// Save replaces the payload stored under bucket.
func (s *Store) Save(ctx context.Context, bucket string, payload []byte) error {
	if _, err := s.blobs.Put(ctx, Key(bucket), bytes.NewReader(payload), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("save %s: %w", bucket, err)
	}
	return nil
}

// Buckets lists the buckets currently stored.
func (s *Store) Buckets(ctx context.Context) ([]string, error) {
	infos, err := s.blobs.List(ctx, Prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		name := strings.TrimSuffix(strings.TrimPrefix(info.Key, Prefix), ".json")
		out = append(out, name)
	}
	return out, nil
}

// Close is a no-op; the blob store is owned by the caller.
func (s *Store) Close() error { return nil }
