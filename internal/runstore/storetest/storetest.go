// Package storetest holds the behaviour every runstore.Store must show.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/runstore"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) runstore.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("save and get", func(t *testing.T) {
		s := newStore(t)
		run := &runstore.Run{
			ID:          "r1",
			Network:     "sprinkler",
			Mode:        "local",
			Draws:       1000,
			Workers:     1,
			TotalWeight: 412.5,
			Evidence:    map[string]string{"wet": "t"},
			Marginals:   map[string][]float64{"rain": {0.3, 0.7}, "wet": {1, 0}},
			Duration:    1500 * time.Millisecond,
			CreatedAt:   base,
		}
		require.NoError(t, s.Save(ctx, run))

		got, err := s.Get(ctx, "r1")
		require.NoError(t, err)
		if diff := cmp.Diff(run, got); diff != "" {
			t.Errorf("run mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, runstore.ErrNotFound)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, &runstore.Run{ID: "r1", Draws: 1, CreatedAt: base}))
		require.NoError(t, s.Save(ctx, &runstore.Run{ID: "r1", Draws: 2, Degenerate: true, CreatedAt: base}))

		got, err := s.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Draws)
		assert.True(t, got.Degenerate)
		runs, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("list is ordered by creation time", func(t *testing.T) {
		s := newStore(t)
		for i, id := range []string{"c", "a", "b"} {
			created := base.Add(time.Duration(2-i) * time.Minute)
			require.NoError(t, s.Save(ctx, &runstore.Run{ID: id, CreatedAt: created}))
		}
		runs, err := s.List(ctx)
		require.NoError(t, err)
		ids := make([]string, len(runs))
		for i, r := range runs {
			ids[i] = r.ID
		}
		assert.Equal(t, []string{"b", "a", "c"}, ids)
	})

	t.Run("concurrent saves", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Save(ctx, &runstore.Run{ID: fmt.Sprintf("run-%02d", i), Draws: i, CreatedAt: base})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		runs, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, runs, 20)
	})
}
