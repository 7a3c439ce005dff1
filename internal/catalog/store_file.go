package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the catalog as a single JSON document on disk. Writes go
// to a temp file in the same directory and are renamed over the target, so
// readers see either the old or the new document.
type FileStore struct {
	path string
	// serializes check-and-write within this process
	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Ping creates the parent directory if needed. A missing document is an
// empty catalog, so only an unusable directory counts as down.
func (s *FileStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (Snapshot, error) {
	b, err := s.read()
	if err != nil {
		return Snapshot{Catalog: Catalog{Products: []Product{}}}, err
	}
	if b == nil {
		return Snapshot{Catalog: Catalog{Products: []Product{}}}, nil
	}

	c, err := decodeDocument(b)
	return Snapshot{Catalog: c, Version: fingerprint(b)}, err
}

func (s *FileStore) Save(ctx context.Context, next Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b, err := encodeDocument(next.Catalog)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.read()
	if err != nil {
		return "", err
	}
	if fingerprint(cur) != next.Version {
		return "", ErrConflict
	}

	if err := s.writeAtomic(b); err != nil {
		return "", err
	}
	return fingerprint(b), nil
}

// read returns nil bytes and no error when the document does not exist.
func (s *FileStore) read() ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

func (s *FileStore) writeAtomic(b []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename catalog: %w", err)
	}
	return nil
}
