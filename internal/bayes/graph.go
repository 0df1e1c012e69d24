package bayes

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/vk/bayesgrid/internal/cpt"
)

// Graph is an ordered collection of Nodes together with the sampling state
// of the most recent sampling call.
type Graph struct {
	nodes  []*Node
	byName map[string]*Node // built lazily, reset by AddNode

	saveSamples bool
	samples     []Assignment

	rng    *rand.Rand
	logger *slog.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithSeed makes sampling deterministic for a given sequence of calls.
func WithSeed(seed uint64) Option {
	return func(g *Graph) {
		g.rng = newRand(seed)
	}
}

// WithLogger sets the logger used to report recoverable errors.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New returns an empty graph. Without WithSeed the random source is seeded
// from the global generator.
func New(opts ...Option) *Graph {
	g := &Graph{logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = newRand(rand.Uint64())
	}
	return g
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// AddNode registers a new variable with the given domain labels. The order
// of the labels is the canonical value order used by the node's CPT.
func (g *Graph) AddNode(name string, domain ...string) (*Node, error) {
	if _, ok := g.lookup()[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, name)
	}
	if len(domain) == 0 {
		return nil, fmt.Errorf("%w: node %q has no values", ErrInvalidDomain, name)
	}
	seen := make(map[string]struct{}, len(domain))
	for _, label := range domain {
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: node %q repeats value %q", ErrInvalidDomain, name, label)
		}
		seen[label] = struct{}{}
	}

	n := &Node{
		graph:  g,
		index:  len(g.nodes),
		name:   name,
		domain: slices.Clone(domain),
		value:  Unassigned,
		dirty:  true,
	}
	g.nodes = append(g.nodes, n)
	g.byName = nil
	return n, nil
}

// MustAddNode is like AddNode but panics on error.
func (g *Graph) MustAddNode(name string, domain ...string) *Node {
	n, err := g.AddNode(name, domain...)
	if err != nil {
		panic(err)
	}
	return n
}

func (g *Graph) lookup() map[string]*Node {
	if g.byName == nil {
		g.byName = make(map[string]*Node, len(g.nodes))
		for _, n := range g.nodes {
			g.byName[n.name] = n
		}
	}
	return g.byName
}

// Node returns the node registered under name.
func (g *Graph) Node(name string) (*Node, error) {
	n, ok := g.lookup()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return n, nil
}

// Nodes returns the nodes in registration order.
func (g *Graph) Nodes() []*Node {
	return slices.Clone(g.nodes)
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Observe clamps the named node to the given value label. Unknown names and
// labels are logged and returned; the graph is left unchanged.
func (g *Graph) Observe(name, value string) error {
	n, err := g.Node(name)
	if err != nil {
		g.logger.Warn("Cannot observe node", "node", name, "error", err)
		return err
	}
	return n.Observe(value)
}

// Unobserve releases the evidence on the named node.
func (g *Graph) Unobserve(name string) error {
	n, err := g.Node(name)
	if err != nil {
		g.logger.Warn("Cannot unobserve node", "node", name, "error", err)
		return err
	}
	n.Unobserve()
	return nil
}

// Evidence returns the current observations as node name to value label.
func (g *Graph) Evidence() map[string]string {
	ev := make(map[string]string)
	for _, n := range g.nodes {
		if n.observed {
			ev[n.name] = n.domain[n.value]
		}
	}
	return ev
}

// Reinit generates a random CPT for every node whose table was never set or
// whose parent list changed since the last assignment.
func (g *Graph) Reinit() error {
	for _, n := range g.nodes {
		if n.table != nil && !n.dirty {
			continue
		}
		t, err := cpt.NewRandom(g.rng, len(n.domain), n.parentDims())
		if err != nil {
			return fmt.Errorf("node %q: %w", n.name, err)
		}
		n.table = t
		n.dirty = false
		g.logger.Debug("Generated random CPT", "node", n.name, "leaves", t.Leaves())
	}
	return nil
}

// DeriveSeed returns a fresh seed from the graph's random source. It is used
// to seed independent shards so that a seeded graph stays reproducible.
func (g *Graph) DeriveSeed() uint64 {
	return g.rng.Uint64()
}

// Marginals returns the marginal estimate of every node that has one, keyed
// by node name.
func (g *Graph) Marginals() map[string][]float64 {
	out := make(map[string][]float64, len(g.nodes))
	for _, n := range g.nodes {
		if m, err := n.Marginal(); err == nil {
			out[n.name] = m
		}
	}
	return out
}

// ResetWeights zeroes every node's weight accumulator and drops retained
// samples, so that results merged in afterwards start from nothing.
func (g *Graph) ResetWeights() {
	for _, n := range g.nodes {
		n.weights = make([]float64, len(n.domain))
	}
	g.samples = nil
}
