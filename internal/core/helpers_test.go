package core

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// mapStore is an in-package StateStore double that can be told to fail.
type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   map[string]int
	failAll bool
}

var errStoreDown = errors.New("store down")

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}, saves: map[string]int{}}
}

func (s *mapStore) Load(_ context.Context, bucket string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, false, errStoreDown
	}
	b, ok := s.data[bucket]
	return b, ok, nil
}

func (s *mapStore) Save(_ context.Context, bucket string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStoreDown
	}
	s.data[bucket] = append([]byte(nil), payload...)
	s.saves[bucket]++
	return nil
}

func (s *mapStore) Close() error { return nil }

func (s *mapStore) saveCount(bucket string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[bucket]
}
