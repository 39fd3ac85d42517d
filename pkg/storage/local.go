package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

const tmpSuffix = ".tmp"

// LocalStorage keeps objects as files below a directory. All access goes
// through an os.Root, so no path can leave it.
type LocalStorage struct {
	root *os.Root
	mu   sync.RWMutex
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage directory %s: %w", dir, err)
	}
	return &LocalStorage{root: root}, nil
}

// Close releases the directory handle.
func (s *LocalStorage) Close() error {
	return s.root.Close()
}

// rel maps an object path to a name relative to the root. "../" segments are
// absorbed by cleaning against "/".
func rel(p string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "."
	}
	return filepath.FromSlash(cleaned)
}

func notFound(p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return err
}

func (s *LocalStorage) Read(_ context.Context, p string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.root.ReadFile(rel(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, notFound(p, err))
	}
	return data, nil
}

// Write replaces the object in one rename so readers never see a partial file.
func (s *LocalStorage) Write(_ context.Context, p string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := rel(p)
	if dir := filepath.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}
	tmp := name + "." + ulid.Make().String() + tmpSuffix
	if err := s.root.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := s.root.Rename(tmp, name); err != nil {
		_ = s.root.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", p, err)
	}
	return nil
}

func (s *LocalStorage) Delete(_ context.Context, p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.root.Remove(rel(p)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", p, notFound(p, err))
	}
	return nil
}

// List returns the objects directly under prefix. A missing prefix is empty.
func (s *LocalStorage) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.root.Open(rel(prefix))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", prefix, err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	base := filepath.ToSlash(rel(prefix))
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), tmpSuffix) {
			continue
		}
		if base == "." {
			out = append(out, e.Name())
		} else {
			out = append(out, base+"/"+e.Name())
		}
	}
	return out, nil
}

func (s *LocalStorage) Exists(_ context.Context, p string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.root.Stat(rel(p))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
}
