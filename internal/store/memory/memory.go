// Package memory implements store.Store in process memory. It backs the
// development server when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tidwall/btree"

	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/store"
)

// entry orders a record by when it was stored.
type entry struct {
	seq uint64
	rec *model.Record
}

// collection keeps records in insertion order with an id index.
type collection struct {
	byID  map[string]uint64
	order *btree.BTreeG[entry]
}

func newCollection() *collection {
	return &collection{
		byID:  make(map[string]uint64),
		order: btree.NewBTreeG(func(a, b entry) bool { return a.seq < b.seq }),
	}
}

type Store struct {
	mu          sync.RWMutex
	seq         uint64
	collections map[string]*collection
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) CreateRecord(ctx context.Context, name string, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = newCollection()
		s.collections[name] = c
	}
	if _, dup := c.byID[rec.ID]; dup {
		return fmt.Errorf("record %s already exists in %s", rec.ID, name)
	}
	s.seq++
	c.byID[rec.ID] = s.seq
	c.order.Set(entry{seq: s.seq, rec: rec.Clone()})
	return nil
}

func (s *Store) GetRecord(ctx context.Context, name, id string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[name]
	if c == nil {
		return nil, store.ErrNotFound
	}
	seq, ok := c.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	e, _ := c.order.Get(entry{seq: seq})
	return e.rec.Clone(), nil
}

func (s *Store) ListRecords(ctx context.Context, name string, filter store.ListFilter) ([]*model.Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[name]
	if c == nil {
		return []*model.Record{}, 0, nil
	}
	total := c.order.Len()
	skip := max(filter.Offset, 0)
	out := make([]*model.Record, 0, min(max(total-skip, 0), limitOr(filter.Limit, total)))
	c.order.Scan(func(e entry) bool {
		if skip > 0 {
			skip--
			return true
		}
		if filter.Limit > 0 && len(out) == filter.Limit {
			return false
		}
		out = append(out, e.rec.Clone())
		return true
	})
	return out, total, nil
}

func limitOr(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}

func (s *Store) DeleteRecord(ctx context.Context, name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[name]
	if c == nil {
		return store.ErrNotFound
	}
	seq, ok := c.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(c.byID, id)
	c.order.Delete(entry{seq: seq})
	return nil
}

func (s *Store) Collections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name, c := range s.collections {
		if c.order.Len() > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error { return nil }
