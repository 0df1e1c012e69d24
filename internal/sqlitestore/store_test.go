package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/runstore"
	"github.com/vk/bayesgrid/internal/runstore/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) runstore.Store {
		s, err := Open(context.Background(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	created := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, &runstore.Run{
		ID:        "r1",
		Network:   "asia",
		Marginals: map[string][]float64{"tub": {0.01, 0.99}},
		CreatedAt: created,
	}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "asia", got.Network)
	assert.Equal(t, []float64{0.01, 0.99}, got.Marginals["tub"])
	assert.True(t, created.Equal(got.CreatedAt))
}
