package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/wire"
)

func evidenceChain(t *testing.T, seed uint64) *bayes.Graph {
	t.Helper()
	g := bayes.New(bayes.WithSeed(seed))
	n1 := g.MustAddNode("n1", "t", "f")
	n2 := g.MustAddNode("n2", "t", "f").AddParent(n1)
	n3 := g.MustAddNode("n3", "t", "f").AddParent(n2)
	require.NoError(t, n1.SetCpt([]float64{0.5, 0.5}))
	require.NoError(t, n2.SetCpt([]float64{0.2, 0.8}, []float64{0.5, 0.5}))
	require.NoError(t, n3.SetCpt([]float64{0.5, 0.5}, []float64{0.5, 0.5}))
	require.NoError(t, g.Observe("n1", "t"))
	return g
}

func marginal(t *testing.T, g *bayes.Graph, name string) []float64 {
	t.Helper()
	n, err := g.Node(name)
	require.NoError(t, err)
	m, err := n.Marginal()
	require.NoError(t, err)
	return m
}

func TestOffload(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	pool := NewLocal(ctx, 2)
	defer pool.Close()
	g := evidenceChain(t, 4)

	// --- Act ---
	total, err := Offload(ctx, g, 100000, pool)

	// --- Assert ---
	require.NoError(t, err)
	assert.Greater(t, total, 0.0)
	assert.InDelta(t, 0.2, marginal(t, g, "n2")[0], 0.01)
	assert.InDelta(t, 0.5, marginal(t, g, "n3")[0], 0.01)
	assert.Equal(t, 1.0, marginal(t, g, "n1")[0])
}

func TestFanOut(t *testing.T) {
	ctx := context.Background()
	pool := NewLocal(ctx, 4)
	defer pool.Close()

	t.Run("weights from every shard are summed", func(t *testing.T) {
		g := evidenceChain(t, 5)
		g.SetSaveSamples(true)
		workers := []Worker{pool, pool, pool, pool}

		total, err := FanOut(ctx, g, 100001, workers)
		require.NoError(t, err)

		n3, _ := g.Node("n3")
		w := n3.SampleWeights()
		assert.InDelta(t, total, w[0]+w[1], 1e-6)
		assert.Len(t, g.Samples(), 100001)
		assert.InDelta(t, 0.2, marginal(t, g, "n2")[0], 0.01)
	})

	t.Run("a failing shard leaves the graph untouched", func(t *testing.T) {
		g := evidenceChain(t, 6)
		_, err := g.Sample(10)
		require.NoError(t, err)
		n2, _ := g.Node("n2")
		before := n2.SampleWeights()

		broken := workerFunc(func(context.Context, []byte) ([]byte, error) {
			return nil, errors.New("connection reset")
		})
		_, err = FanOut(ctx, g, 100, []Worker{pool, broken})
		assert.ErrorContains(t, err, "connection reset")
		assert.Equal(t, before, n2.SampleWeights())
	})

	t.Run("a shard reporting failure leaves the graph untouched", func(t *testing.T) {
		g := evidenceChain(t, 7)
		g.SetSaveSamples(true)
		_, err := g.Sample(500)
		require.NoError(t, err)
		n2, _ := g.Node("n2")
		before := n2.SampleWeights()
		samples := len(g.Samples())

		failing := workerFunc(func(context.Context, []byte) ([]byte, error) {
			return []byte(`{"success":false,"error":"remote decode failed"}`), nil
		})
		_, err = FanOut(ctx, g, 100, []Worker{pool, failing})
		assert.ErrorIs(t, err, wire.ErrWorkerFailed)
		assert.ErrorContains(t, err, "remote decode failed")
		assert.Equal(t, before, n2.SampleWeights())
		assert.Len(t, g.Samples(), samples)
	})

	t.Run("a shard with mismatched weights leaves the graph untouched", func(t *testing.T) {
		g := evidenceChain(t, 8)
		_, err := g.Sample(200)
		require.NoError(t, err)
		n1, _ := g.Node("n1")
		before := n1.SampleWeights()

		bad := workerFunc(func(context.Context, []byte) ([]byte, error) {
			return []byte(`{"success":true,"totalWeight":1,"nodes":[` +
				`{"name":"n1","value":0,"visited":true,"sampleWeights":[1,0]},` +
				`{"name":"n3","value":0,"visited":true,"sampleWeights":[1]}]}`), nil
		})
		_, err = FanOut(ctx, g, 100, []Worker{bad, pool})
		assert.ErrorIs(t, err, wire.ErrMalformedMessage)
		assert.Equal(t, before, n1.SampleWeights())
	})

	t.Run("no workers", func(t *testing.T) {
		_, err := FanOut(ctx, evidenceChain(t, 1), 10, nil)
		assert.ErrorContains(t, err, "no workers")
	})

	t.Run("invalid draw count", func(t *testing.T) {
		_, err := FanOut(ctx, evidenceChain(t, 1), 0, []Worker{pool})
		assert.ErrorIs(t, err, bayes.ErrInvalidDrawCount)
	})
}

func TestLocal(t *testing.T) {
	t.Run("serves concurrent requests", func(t *testing.T) {
		ctx := context.Background()
		pool := NewLocal(ctx, 3)
		defer pool.Close()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				g := evidenceChain(t, uint64(i))
				_, err := Offload(ctx, g, 500, pool)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
	})

	t.Run("closed pool rejects requests", func(t *testing.T) {
		pool := NewLocal(context.Background(), 1)
		require.NoError(t, pool.Close())
		require.NoError(t, pool.Close())

		_, err := pool.Sample(context.Background(), []byte(`{}`))
		assert.ErrorIs(t, err, ErrWorkerClosed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		pool := NewLocal(context.Background(), 1)
		defer pool.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		_, err := pool.Sample(ctx, []byte(`{}`))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

type workerFunc func(ctx context.Context, request []byte) ([]byte, error)

func (f workerFunc) Sample(ctx context.Context, request []byte) ([]byte, error) {
	return f(ctx, request)
}
