package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	boltBucket = []byte("catalog")
	boltKey    = []byte("document")
)

// BoltStore keeps the catalog document under a single key of a bbolt file.
type BoltStore struct {
	db *bolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(boltBucket) == nil {
			return fmt.Errorf("bucket %s missing", boltBucket)
		}
		return nil
	})
}

func (s *BoltStore) Load(ctx context.Context) (Snapshot, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw = current(tx)
		return nil
	})
	if err != nil {
		return Snapshot{Catalog: Catalog{Products: []Product{}}}, fmt.Errorf("read catalog: %w", err)
	}
	if raw == nil {
		return Snapshot{Catalog: Catalog{Products: []Product{}}}, nil
	}

	c, err := decodeDocument(raw)
	return Snapshot{Catalog: c, Version: fingerprint(raw)}, err
}

func (s *BoltStore) Save(ctx context.Context, next Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b, err := encodeDocument(next.Catalog)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		if fingerprint(current(tx)) != next.Version {
			return ErrConflict
		}
		return tx.Bucket(boltBucket).Put(boltKey, b)
	})
	if err != nil {
		return "", err
	}
	return fingerprint(b), nil
}

// current copies the stored document out of tx; nil when absent.
func current(tx *bolt.Tx) []byte {
	b := tx.Bucket(boltBucket)
	if b == nil {
		return nil
	}
	v := b.Get(boltKey)
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
