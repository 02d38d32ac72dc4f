// Package memory provides an ephemeral state store for tests and throwaway sessions.
package memory

import (
	"context"
	"sync"

	"occucalc/pkg/domain"
)

var _ domain.StateStore = (*Store)(nil)

// Store keeps bucket payloads in a map. Payloads are copied on the way in and out.
type Store struct {
	mu      sync.RWMutex
	buckets map[string][]byte
}

// NewStore returns an empty in-memory state store.
func NewStore() *Store {
	return &Store{buckets: make(map[string][]byte)}
}

// Load returns the payload stored under bucket.
func (s *Store) Load(_ context.Context, bucket string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[bucket]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

// Save replaces the payload stored under bucket.
func (s *Store) Save(_ context.Context, bucket string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket] = append([]byte(nil), payload...)
	return nil
}

// Buckets lists the stored bucket names.
func (s *Store) Buckets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.buckets))
	for k := range s.buckets {
		out = append(out, k)
	}
	return out
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
