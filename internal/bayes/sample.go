package bayes

import (
	"context"
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// cancelCheckInterval is the number of draws between context checks.
const cancelCheckInterval = 1024

// drawState is the transient state of a single draw, indexed by node index.
type drawState struct {
	values  []int
	visited []bool
	scratch []int
	rng     *rand.Rand
}

func newDrawState(g *Graph, rng *rand.Rand) *drawState {
	return &drawState{
		values:  make([]int, len(g.nodes)),
		visited: make([]bool, len(g.nodes)),
		rng:     rng,
	}
}

// reset prepares a new draw: observed nodes keep their evidence, every other
// node is unassigned, and nothing is visited.
func (s *drawState) reset(g *Graph) {
	for i, n := range g.nodes {
		if n.observed {
			s.values[i] = n.value
		} else {
			s.values[i] = Unassigned
		}
		s.visited[i] = false
	}
}

// resolve returns the importance-weight contribution of n and of every
// ancestor of n not yet resolved in this draw. Parents are resolved before
// the node consults its own CPT row, which makes the result independent of
// the order in which callers visit nodes.
func (s *drawState) resolve(n *Node) float64 {
	if s.visited[n.index] {
		return 1
	}
	w := 1.0
	for _, p := range n.parents {
		w *= s.resolve(p)
	}
	s.visited[n.index] = true

	s.scratch = s.scratch[:0]
	for _, p := range n.parents {
		s.scratch = append(s.scratch, s.values[p.index])
	}
	row := n.table.Row(s.scratch...)

	if n.observed {
		return w * row[n.value]
	}
	s.values[n.index] = drawIndex(s.rng, row)
	return w
}

// drawIndex samples an index from the categorical distribution row. When
// rounding leaves the remainder non-negative after the last entry, the last
// index is chosen.
func drawIndex(rng *rand.Rand, row []float64) int {
	r := rng.Float64()
	for i, p := range row {
		r -= p
		if r < 0 {
			return i
		}
	}
	return len(row) - 1
}

// shard is the result of running a contiguous block of draws.
type shard struct {
	weights [][]float64
	total   float64
	samples []Assignment
	last    *drawState
}

func (g *Graph) runShard(ctx context.Context, rng *rand.Rand, draws int, save bool) (*shard, error) {
	res := &shard{weights: make([][]float64, len(g.nodes))}
	for i, n := range g.nodes {
		res.weights[i] = make([]float64, len(n.domain))
	}
	if save {
		res.samples = make([]Assignment, 0, draws)
	}
	st := newDrawState(g, rng)
	for d := 0; d < draws; d++ {
		if d%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		st.reset(g)
		w := 1.0
		for _, n := range g.nodes {
			w *= st.resolve(n)
		}
		res.total += w
		for i, v := range st.values {
			res.weights[i][v] += w
		}
		if save {
			res.samples = append(res.samples, g.assignment(st.values))
		}
	}
	res.last = st
	return res, nil
}

// prepare fills in missing CPTs and checks that the graph can be sampled.
func (g *Graph) prepare(draws int) error {
	if draws < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDrawCount, draws)
	}
	if err := g.Reinit(); err != nil {
		return err
	}
	return g.Validate()
}

// Sample runs draws likelihood-weighted draws against the current evidence
// and CPTs. It replaces every node's weight accumulator (and the retained
// samples, when enabled) and returns the sum of the draw weights. A zero sum
// means the evidence has zero likelihood under every draw; it is logged and
// the node marginals report ErrDegenerateEvidence.
func (g *Graph) Sample(draws int) (float64, error) {
	if err := g.prepare(draws); err != nil {
		return 0, err
	}
	res, err := g.runShard(context.Background(), g.rng, draws, g.saveSamples)
	if err != nil {
		return 0, err
	}
	return g.commit([]*shard{res}, draws), nil
}

// SampleParallel is Sample split across workers goroutines. Each shard draws
// from its own random source, seeded from the graph's, and keeps its own
// per-draw state and accumulators; shard results are summed in shard order
// once all have finished. Retained samples are concatenated in shard order.
// Cancelling ctx stops the shards between draws and leaves the graph's
// sampled state untouched.
func (g *Graph) SampleParallel(ctx context.Context, draws, workers int) (float64, error) {
	if err := g.prepare(draws); err != nil {
		return 0, err
	}
	sizes := ShardSizes(draws, workers)

	seeds := make([]uint64, len(sizes))
	for i := range seeds {
		seeds[i] = g.DeriveSeed()
	}

	results := make([]*shard, len(sizes))
	eg, ctx := errgroup.WithContext(ctx)
	for i, size := range sizes {
		eg.Go(func() error {
			res, err := g.runShard(ctx, newRand(seeds[i]), size, g.saveSamples)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, fmt.Errorf("parallel sampling: %w", err)
	}
	return g.commit(results, draws), nil
}

// ShardSizes splits draws into at most workers non-empty blocks whose sizes
// differ by at most one.
func ShardSizes(draws, workers int) []int {
	if workers < 1 {
		workers = 1
	}
	if workers > draws {
		workers = draws
	}
	sizes := make([]int, workers)
	for i := range sizes {
		sizes[i] = draws / workers
		if i < draws%workers {
			sizes[i]++
		}
	}
	return sizes
}

// commit reduces shard results into the nodes and returns the total weight.
func (g *Graph) commit(results []*shard, draws int) float64 {
	total := 0.0
	for _, n := range g.nodes {
		n.weights = make([]float64, len(n.domain))
	}
	// Retained samples are left alone when retention is off.
	if g.saveSamples {
		g.samples = make([]Assignment, 0, draws)
	}
	for _, res := range results {
		total += res.total
		for i, n := range g.nodes {
			floats.Add(n.weights, res.weights[i])
		}
		if g.saveSamples {
			g.samples = append(g.samples, res.samples...)
		}
	}

	last := results[len(results)-1].last
	for i, n := range g.nodes {
		n.value = last.values[i]
		n.visited = last.visited[i]
	}

	if total == 0 {
		g.logger.Warn("Every draw had zero weight; evidence is inconsistent with the CPTs",
			"draws", draws, "evidence", g.Evidence())
	} else {
		g.logger.Debug("Sampling complete", "draws", draws, "total_weight", total)
	}
	return total
}
