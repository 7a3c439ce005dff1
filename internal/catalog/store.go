package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrConflict means the stored document changed since it was loaded.
	ErrConflict = errors.New("catalog changed concurrently")
	// ErrCorrupt means the stored document could not be parsed.
	ErrCorrupt = errors.New("catalog document corrupt")
)

// Snapshot is a loaded catalog plus the opaque version it was read at.
// An absent document has an empty version.
type Snapshot struct {
	Catalog Catalog
	Version string
}

// Store persists the whole catalog as one document.
//
// Save writes next.Catalog only if the stored version still equals
// next.Version and returns the new version; otherwise ErrConflict.
// Load on a corrupt document returns ErrCorrupt together with the version
// of the corrupt bytes so that a following Save may replace them.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, next Snapshot) (string, error)
	Ping(ctx context.Context) error
}

func encodeDocument(c Catalog) ([]byte, error) {
	if c.Products == nil {
		c.Products = []Product{}
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return b, nil
}

func decodeDocument(b []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return Catalog{Products: []Product{}}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if c.Products == nil {
		c.Products = []Product{}
	}
	return c, nil
}

func fingerprint(b []byte) string {
	if b == nil {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}
