package inmemorystore

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/vk/bayesgrid/internal/runstore"
)

// Store is an in-memory implementation of runstore.Store. Records are kept
// in a sync.Map keyed by run ID and deep-copied on the way in and out, so
// callers never share maps with the store.
type Store struct {
	runs sync.Map // Key: run ID, Value: *runstore.Run
}

// New creates a new, empty in-memory run store.
func New() *Store {
	return &Store{}
}

var _ runstore.Store = (*Store)(nil)

// Save implements runstore.Store.
func (s *Store) Save(ctx context.Context, run *runstore.Run) error {
	s.runs.Store(run.ID, clone(run))
	return nil
}

// Get implements runstore.Store.
func (s *Store) Get(ctx context.Context, id string) (*runstore.Run, error) {
	v, ok := s.runs.Load(id)
	if !ok {
		return nil, runstore.ErrNotFound
	}
	return clone(v.(*runstore.Run)), nil
}

// List implements runstore.Store.
func (s *Store) List(ctx context.Context) ([]*runstore.Run, error) {
	var runs []*runstore.Run
	s.runs.Range(func(_, v any) bool {
		runs = append(runs, clone(v.(*runstore.Run)))
		return true
	})
	slices.SortFunc(runs, func(a, b *runstore.Run) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return runs, nil
}

// Close implements runstore.Store. It is a no-op.
func (s *Store) Close() error { return nil }

func clone(r *runstore.Run) *runstore.Run {
	c := *r
	c.Evidence = maps.Clone(r.Evidence)
	if r.Marginals != nil {
		c.Marginals = make(map[string][]float64, len(r.Marginals))
		for k, v := range r.Marginals {
			c.Marginals[k] = slices.Clone(v)
		}
	}
	return &c
}
