// Package fs stores blobs as files below a root directory.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"occucalc/internal/blob/core"
)

// DefaultRoot is used when no root is configured.
const DefaultRoot = "./occucalc-blobs"

const sidecarExt = ".meta"

// Store maps keys to files under root. Each blob has a JSON sidecar next to
// it holding content type, metadata and a sha256 ETag.
type Store struct {
	root string
}

var _ core.Store = (*Store)(nil)

// New prepares root and returns a store over it.
func New(root string) (*Store, error) {
	if root == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory blobs are stored under.
func (s *Store) Root() string { return s.root }

// sanitizeKey rejects keys that are blank, would leave root or would
// collide with a sidecar.
func sanitizeKey(key string) (string, error) {
	switch {
	case strings.TrimSpace(key) == "":
		return "", errors.New("fs blob: empty key")
	case strings.Contains(key, ".."):
		return "", fmt.Errorf("fs blob: key %q contains '..'", key)
	case strings.HasPrefix(key, "/"):
		return "", fmt.Errorf("fs blob: key %q is absolute", key)
	case strings.HasSuffix(key, sidecarExt):
		return "", fmt.Errorf("fs blob: key %q ends in %s", key, sidecarExt)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

type paths struct {
	data, sidecar string
}

func (s *Store) locate(key string) (paths, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return paths{}, err
	}
	data := filepath.Join(s.root, filepath.FromSlash(clean))
	return paths{data: data, sidecar: data + sidecarExt}, nil
}

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (sc sidecar) info(key string) core.Info {
	return core.Info{
		Key:          key,
		Size:         sc.Size,
		ContentType:  sc.ContentType,
		ETag:         sc.ETag,
		Metadata:     maps.Clone(sc.Metadata),
		LastModified: sc.UpdatedAt,
	}
}

func notFound(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return err
}

// Put streams r into a temp file in the target directory, renames it over
// any previous content and then rewrites the sidecar.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	p, err := s.locate(key)
	if err != nil {
		return core.Info{}, err
	}
	dir := filepath.Dir(p.data)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.Info{}, fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return core.Info{}, err
	}
	defer os.Remove(tmp.Name())

	sum := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(tmp, sum), r)
	if err := errors.Join(copyErr, tmp.Close()); err != nil {
		return core.Info{}, fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p.data); err != nil {
		return core.Info{}, fmt.Errorf("commit blob %s: %w", key, err)
	}
	sc := sidecar{
		ContentType: opts.ContentType,
		Metadata:    maps.Clone(opts.Metadata),
		ETag:        hex.EncodeToString(sum.Sum(nil)),
		Size:        n,
		UpdatedAt:   time.Now().UTC(),
	}
	raw, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return core.Info{}, err
	}
	if err := os.WriteFile(p.sidecar, raw, 0o644); err != nil {
		return core.Info{}, fmt.Errorf("write sidecar for %s: %w", key, err)
	}
	return sc.info(key), nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	p, err := s.locate(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	f, err := os.Open(p.data)
	if err != nil {
		return core.Info{}, nil, notFound(key, err)
	}
	sc, err := loadSidecar(p.sidecar)
	if err != nil {
		f.Close()
		return core.Info{}, nil, notFound(key, err)
	}
	return sc.info(key), f, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	p, err := s.locate(key)
	if err != nil {
		return core.Info{}, err
	}
	sc, err := loadSidecar(p.sidecar)
	if err != nil {
		return core.Info{}, notFound(key, err)
	}
	return sc.info(key), nil
}

// Delete removes the blob and its sidecar, reporting whether the blob
// existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	p, err := s.locate(key)
	if err != nil {
		return false, err
	}
	switch err := os.Remove(p.data); {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := os.Remove(p.sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return true, err
	}
	return true, nil
}

// List walks root and reports every sidecar whose key has prefix.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	out := []core.Info{}
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, sidecarExt) {
			return err
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(path, sidecarExt))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		sc, err := loadSidecar(path)
		if err != nil {
			return err
		}
		out = append(out, sc.info(key))
		return nil
	}
	if err := filepath.WalkDir(s.root, walk); err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b core.Info) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func loadSidecar(path string) (sidecar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}, err
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return sidecar{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return sc, nil
}
