package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Service implements the catalog operations on top of a Store. Every
// mutation is a full read-modify-write of the document; mutations are
// serialized through mu so writers in one process never lose each other's
// changes. Writers in other processes are caught by the store's version
// check and reported as ErrConflict.
type Service struct {
	store   Store
	log     *zap.Logger
	metrics *Metrics

	mu sync.Mutex
}

func NewService(store Store, log *zap.Logger, metrics *Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log, metrics: metrics}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Load never fails: an absent, corrupt or unreadable document reads as an
// empty catalog.
func (s *Service) Load(ctx context.Context) Catalog {
	return s.snapshot(ctx).Catalog
}

func (s *Service) snapshot(ctx context.Context) Snapshot {
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn("catalog load failed, using empty catalog", zap.Error(err))
		snap.Catalog = Catalog{Products: []Product{}}
	}
	if snap.Catalog.Products == nil {
		snap.Catalog.Products = []Product{}
	}
	return snap
}

// Create appends p, assigning its id from the title when empty. Ids are not
// checked for uniqueness.
func (s *Service) Create(ctx context.Context, p Product) (Catalog, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = Slug(p.Title)
	}
	if err := Validate(p); err != nil {
		s.metrics.observe(opCreate, err)
		return Catalog{}, err
	}

	return s.mutate(ctx, opCreate, func(c Catalog) Catalog {
		c.Products = append(c.Products, p)
		return c
	})
}

// Update replaces the first product with p.ID in place. The bool reports
// whether one matched; an unmatched id still rewrites the unchanged catalog
// and is not an error.
func (s *Service) Update(ctx context.Context, p Product) (Catalog, bool, error) {
	if err := Validate(p); err != nil {
		s.metrics.observe(opUpdate, err)
		return Catalog{}, false, err
	}

	var matched bool
	c, err := s.mutate(ctx, opUpdate, func(c Catalog) Catalog {
		for i := range c.Products {
			if c.Products[i].ID == p.ID {
				c.Products[i] = p
				matched = true
				break
			}
		}
		return c
	})
	if err != nil {
		return Catalog{}, false, err
	}
	if !matched {
		s.log.Info("update matched no product", zap.String("id", p.ID))
	}
	return c, matched, nil
}

// Delete removes every product with the given id and reports how many went.
func (s *Service) Delete(ctx context.Context, id string) (Catalog, int, error) {
	var removed int
	c, err := s.mutate(ctx, opDelete, func(c Catalog) Catalog {
		kept := c.Products[:0]
		for _, p := range c.Products {
			if p.ID == id {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		c.Products = kept
		return c
	})
	if err != nil {
		return Catalog{}, 0, err
	}
	if removed == 0 {
		s.log.Info("delete matched no product", zap.String("id", id))
	}
	return c, removed, nil
}

func (s *Service) mutate(ctx context.Context, op string, fn func(Catalog) Catalog) (Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot(ctx)
	next := fn(snap.Catalog.clone())

	if _, err := s.store.Save(ctx, Snapshot{Catalog: next, Version: snap.Version}); err != nil {
		s.metrics.observe(op, err)
		return Catalog{}, fmt.Errorf("%s product: %w", op, err)
	}
	s.metrics.observe(op, nil)
	return next, nil
}

// Get returns the first product with the given id.
func (s *Service) Get(ctx context.Context, id string) (Product, bool) {
	for _, p := range s.Load(ctx).Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Lookup reports the title of the product whose id equals code. It is a
// plain id match: anyone who knows or guesses an id gets a positive answer.
func (s *Service) Lookup(ctx context.Context, code string) (string, bool) {
	if code == "" {
		return "", false
	}
	p, ok := s.Get(ctx, code)
	if !ok {
		return "", false
	}
	return p.Title, true
}

// Search returns products whose title, description or category contains q,
// ignoring case. An empty q returns the whole catalog.
func (s *Service) Search(ctx context.Context, q string) []Product {
	all := s.Load(ctx).Products
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return all
	}

	out := make([]Product, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

// Related lists every other product in catalog order.
func Related(c Catalog, id string) []Product {
	out := make([]Product, 0, len(c.Products))
	for _, p := range c.Products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidProduct):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
