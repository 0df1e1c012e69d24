package bayes

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/cpt"
)

// draws used by statistical tests; large enough that the tolerances below
// are several standard deviations wide.
const testDraws = 100000

// chain builds n1 -> n2 -> n3 over {t, f}. When reversed is set the nodes are
// registered in the opposite order.
func chain(t *testing.T, n2Rows [][]float64, reversed bool, opts ...Option) *Graph {
	t.Helper()
	g := New(opts...)
	names := []string{"n1", "n2", "n3"}
	if reversed {
		names = []string{"n3", "n2", "n1"}
	}
	for _, name := range names {
		g.MustAddNode(name, "t", "f")
	}
	n1, _ := g.Node("n1")
	n2, _ := g.Node("n2")
	n3, _ := g.Node("n3")
	n2.AddParent(n1)
	n3.AddParent(n2)

	require.NoError(t, n1.SetCpt([]float64{0.5, 0.5}))
	require.NoError(t, n2.SetCpt(n2Rows...))
	require.NoError(t, n3.SetCpt([]float64{0.5, 0.5}, []float64{0.5, 0.5}))
	return g
}

var uniformRows = [][]float64{{0.5, 0.5}, {0.5, 0.5}}

func assertMarginal(t *testing.T, g *Graph, name string, lo, hi []float64) {
	t.Helper()
	n, err := g.Node(name)
	require.NoError(t, err)
	m, err := n.Marginal()
	require.NoError(t, err)
	for i := range m {
		assert.GreaterOrEqual(t, m[i], lo[i], "%s[%d]", name, i)
		assert.LessOrEqual(t, m[i], hi[i], "%s[%d]", name, i)
	}
}

func TestSampleUniformChain(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		g := chain(t, uniformRows, reversed, WithSeed(42))

		total, err := g.Sample(testDraws)
		require.NoError(t, err)
		// No evidence: every draw has weight 1.
		assert.InDelta(t, float64(testDraws), total, 1e-6)

		for _, name := range []string{"n1", "n2", "n3"} {
			assertMarginal(t, g, name, []float64{0.49, 0.49}, []float64{0.51, 0.51})
		}
	}
}

func TestSampleWithEvidence(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		g := chain(t, [][]float64{{0.2, 0.8}, {0.5, 0.5}}, reversed, WithSeed(7))
		require.NoError(t, g.Observe("n1", "t"))

		_, err := g.Sample(testDraws)
		require.NoError(t, err)

		assertMarginal(t, g, "n1", []float64{0.99, 0}, []float64{1, 0.01})
		assertMarginal(t, g, "n2", []float64{0.19, 0.79}, []float64{0.21, 0.81})
		assertMarginal(t, g, "n3", []float64{0.49, 0.49}, []float64{0.51, 0.51})

		n1, _ := g.Node("n1")
		assert.Equal(t, 0, n1.Value(), "evidence is never resampled")
	}
}

func TestSampleEvidenceOnChild(t *testing.T) {
	g := New(WithSeed(3))
	rain := g.MustAddNode("rain", "t", "f")
	wet := g.MustAddNode("wet", "t", "f").AddParent(rain)
	require.NoError(t, rain.SetCpt([]float64{0.5, 0.5}))
	require.NoError(t, wet.SetCpt([]float64{0.9, 0.1}, []float64{0.1, 0.9}))
	require.NoError(t, wet.Observe("t"))

	_, err := g.Sample(testDraws)
	require.NoError(t, err)

	m, err := rain.Marginal()
	require.NoError(t, err)
	assert.InDelta(t, 0.9, m[0], 0.01)
}

func TestUnobserveRestoresPrior(t *testing.T) {
	rows := [][]float64{{0.2, 0.8}, {0.5, 0.5}}
	fresh := chain(t, rows, false, WithSeed(11))
	_, err := fresh.Sample(testDraws)
	require.NoError(t, err)

	g := chain(t, rows, false, WithSeed(12))
	require.NoError(t, g.Observe("n1", "t"))
	_, err = g.Sample(testDraws)
	require.NoError(t, err)
	require.NoError(t, g.Unobserve("n1"))
	_, err = g.Sample(testDraws)
	require.NoError(t, err)

	want := fresh.Marginals()
	got := g.Marginals()
	for name, m := range want {
		assert.InDeltaSlice(t, m, got[name], 0.01, name)
	}
}

func TestSeededSamplingIsReproducible(t *testing.T) {
	a := chain(t, uniformRows, false, WithSeed(99))
	b := chain(t, uniformRows, false, WithSeed(99))

	_, err := a.Sample(1000)
	require.NoError(t, err)
	_, err = b.Sample(1000)
	require.NoError(t, err)
	assert.Equal(t, a.Marginals(), b.Marginals())
}

func TestSampleState(t *testing.T) {
	g := New(WithSeed(1))
	n := g.MustAddNode("n", "t", "f")

	_, err := n.Marginal()
	assert.ErrorIs(t, err, ErrNotSampled)
	assert.Nil(t, n.SampleWeights())
	assert.Empty(t, g.Marginals())

	_, err = g.Sample(0)
	assert.ErrorIs(t, err, ErrInvalidDrawCount)

	// No CPT was set: one is generated before sampling.
	_, err = g.Sample(100)
	require.NoError(t, err)
	assert.NotNil(t, n.Table())
	assert.True(t, n.Visited())
	assert.NotEqual(t, Unassigned, n.Value())
	w := n.SampleWeights()
	assert.InDelta(t, 100.0, w[0]+w[1], 1e-9)
}

func TestDegenerateEvidence(t *testing.T) {
	g := New(WithSeed(5))
	a := g.MustAddNode("a", "t", "f")
	b := g.MustAddNode("b", "t", "f").AddParent(a)
	require.NoError(t, a.SetCpt([]float64{0.5, 0.5}))
	var exact cpt.Table
	require.NoError(t, json.Unmarshal([]byte(`[[1,0],[1,0]]`), &exact))
	require.NoError(t, b.SetTable(&exact))
	require.NoError(t, b.Observe("f"))

	total, err := g.Sample(500)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	_, err = a.Marginal()
	assert.ErrorIs(t, err, ErrDegenerateEvidence)
	assert.Empty(t, g.Marginals())
}

func TestSampleRetention(t *testing.T) {
	g := chain(t, uniformRows, false, WithSeed(2))
	g.SetSaveSamples(true)
	assert.True(t, g.SaveSamples())

	_, err := g.Sample(50)
	require.NoError(t, err)
	assert.Len(t, g.Samples(), 50)

	_, err = g.Sample(20)
	require.NoError(t, err)
	samples := g.Samples()
	require.Len(t, samples, 20)
	for _, s := range samples {
		assert.Len(t, s, 3)
		assert.Contains(t, []string{"t", "f"}, s["n2"])
	}

	csv := g.SamplesCSV(CSVOptions{})
	assert.Len(t, strings.Split(csv, "\n"), 21)
}

func TestSampleParallel(t *testing.T) {
	g := chain(t, [][]float64{{0.2, 0.8}, {0.5, 0.5}}, false, WithSeed(21))
	require.NoError(t, g.Observe("n1", "t"))
	g.SetSaveSamples(true)

	total, err := g.SampleParallel(context.Background(), testDraws, 4)
	require.NoError(t, err)
	assert.Greater(t, total, 0.0)
	assert.Len(t, g.Samples(), testDraws)

	assertMarginal(t, g, "n2", []float64{0.19, 0.79}, []float64{0.21, 0.81})
	assertMarginal(t, g, "n3", []float64{0.49, 0.49}, []float64{0.51, 0.51})

	t.Run("seeded runs are reproducible", func(t *testing.T) {
		a := chain(t, uniformRows, false, WithSeed(8))
		b := chain(t, uniformRows, false, WithSeed(8))
		_, err := a.SampleParallel(context.Background(), 4000, 3)
		require.NoError(t, err)
		_, err = b.SampleParallel(context.Background(), 4000, 3)
		require.NoError(t, err)
		assert.Equal(t, a.Marginals(), b.Marginals())
	})

	t.Run("cancelled context leaves state untouched", func(t *testing.T) {
		g := chain(t, uniformRows, false, WithSeed(9))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.SampleParallel(ctx, 1000, 2)
		assert.ErrorIs(t, err, context.Canceled)
		n1, _ := g.Node("n1")
		assert.Nil(t, n1.SampleWeights())
	})
}

func TestShardSizes(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, ShardSizes(10, 3))
	assert.Equal(t, []int{1, 1}, ShardSizes(2, 8))
	assert.Equal(t, []int{5}, ShardSizes(5, 0))
}

func TestDrawIndexFallsBackToLast(t *testing.T) {
	g := New(WithSeed(1))
	// The remainder never goes negative for an all-zero row.
	for i := 0; i < 100; i++ {
		idx := drawIndex(g.rng, []float64{0, 0})
		assert.Equal(t, 1, idx)
	}
}
