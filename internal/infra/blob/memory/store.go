// Package memory keeps blobs in process memory. Export tests and the memory
// blob driver use it.
package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"occucalc/internal/blob/core"
)

type object struct {
	info core.Info
	body []byte
}

// snapshot copies the object so callers cannot alias stored state.
func (o object) snapshot() (core.Info, []byte) {
	info := o.info
	info.Metadata = maps.Clone(o.info.Metadata)
	return info, bytes.Clone(o.body)
}

// Store is a map-backed core.Store. Each write bumps a revision used as the
// ETag.
type Store struct {
	mu       sync.RWMutex
	objects  map[string]object
	revision int
	now      func() time.Time
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{objects: map[string]object{}, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, errors.New("memory blob: empty key")
	}
	if err := ctx.Err(); err != nil {
		return core.Info{}, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, fmt.Errorf("read blob %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	obj := object{
		info: core.Info{
			Key:          key,
			Size:         int64(len(body)),
			ContentType:  opts.ContentType,
			ETag:         "rev-" + strconv.Itoa(s.revision),
			Metadata:     maps.Clone(opts.Metadata),
			LastModified: s.now(),
		},
		body: body,
	}
	s.objects[key] = obj
	info, _ := obj.snapshot()
	return info, nil
}

func (s *Store) lookup(key string) (object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return object{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return obj, nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj, err := s.lookup(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	info, body := obj.snapshot()
	return info, io.NopCloser(bytes.NewReader(body)), nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	obj, err := s.lookup(key)
	if err != nil {
		return core.Info{}, err
	}
	info, _ := obj.snapshot()
	return info, nil
}

// Delete reports whether key existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return false, nil
	}
	delete(s.objects, key)
	return true, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Info{}
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			info, _ := obj.snapshot()
			out = append(out, info)
		}
	}
	slices.SortFunc(out, func(a, b core.Info) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}
