package catalog

import (
	"context"
	"strconv"
	"sync"
)

// MemStore keeps the catalog in memory. Versions are a write counter.
type MemStore struct {
	mu      sync.RWMutex
	catalog Catalog
	writes  uint64
}

func NewMemStore(seed ...Product) *MemStore {
	s := &MemStore{catalog: Catalog{Products: []Product{}}}
	if len(seed) > 0 {
		s.catalog = Catalog{Products: seed}.clone()
		s.writes = 1
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{Catalog: s.catalog.clone(), Version: s.version()}, nil
}

func (s *MemStore) Save(ctx context.Context, next Snapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next.Version != s.version() {
		return "", ErrConflict
	}
	s.catalog = next.Catalog.clone()
	s.writes++
	return s.version(), nil
}

func (s *MemStore) version() string {
	if s.writes == 0 {
		return ""
	}
	return strconv.FormatUint(s.writes, 10)
}
