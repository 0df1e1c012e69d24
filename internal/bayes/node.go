package bayes

import (
	"fmt"
	"slices"

	"github.com/vk/bayesgrid/internal/cpt"
	"gonum.org/v1/gonum/floats"
)

// Unassigned is the value index of a node that holds no value.
const Unassigned = -1

// Node is one discrete random variable of a Graph. Nodes are created with
// Graph.AddNode and never outlive their graph.
type Node struct {
	graph *Graph
	index int

	name       string
	domain     []string
	valueIndex map[string]int // built lazily

	parents []*Node
	table   *cpt.Table
	// dirty is set while the table shape is stale relative to parents.
	dirty bool

	value    int
	observed bool
	visited  bool
	// weights accumulates importance weight per value index. nil until the
	// node has been sampled.
	weights []float64
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Domain returns the value labels in canonical order.
func (n *Node) Domain() []string { return slices.Clone(n.domain) }

// Parents returns the parents in the order they were added.
func (n *Node) Parents() []*Node { return slices.Clone(n.parents) }

// ParentNames returns the names of the parents in the order they were added.
func (n *Node) ParentNames() []string {
	names := make([]string, len(n.parents))
	for i, p := range n.parents {
		names[i] = p.name
	}
	return names
}

// AddParent appends parent to the node's parent list and marks the CPT
// stale. Parents must belong to the same graph; Graph.Validate reports
// violations and cycles before sampling.
func (n *Node) AddParent(parent *Node) *Node {
	n.parents = append(n.parents, parent)
	n.dirty = true
	return n
}

// Dirty reports whether the CPT must be rebuilt before it can be indexed.
func (n *Node) Dirty() bool { return n.dirty }

func (n *Node) parentDims() []int {
	dims := make([]int, len(n.parents))
	for i, p := range n.parents {
		dims[i] = len(p.domain)
	}
	return dims
}

// SetCpt assigns the node's conditional probabilities. A node without
// parents takes a single row over its domain. A node with parents takes one
// row per combination of parent values, with the last parent varying
// fastest. Every row is smoothed by cpt.NormalizeRow before it is stored.
func (n *Node) SetCpt(rows ...[]float64) error {
	t, err := cpt.FromRows(len(n.domain), n.parentDims(), rows)
	if err != nil {
		return fmt.Errorf("node %q: %w", n.name, err)
	}
	n.table = t
	n.dirty = false
	return nil
}

// SetTable assigns a prepared table verbatim, without smoothing. Its shape
// must match the node's domain and parents and its rows must sum to 1.
func (n *Node) SetTable(t *cpt.Table) error {
	if !t.Matches(len(n.domain), n.parentDims()) {
		return fmt.Errorf("node %q: %w: table has width %d and parent sizes %v, want %d and %v",
			n.name, cpt.ErrShapeMismatch, t.Width(), t.Dims(), len(n.domain), n.parentDims())
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("node %q: %w", n.name, err)
	}
	n.table = t.Clone()
	n.dirty = false
	return nil
}

// Table returns a copy of the node's CPT, or nil if none was assigned.
func (n *Node) Table() *cpt.Table { return n.table.Clone() }

// ValueIndex resolves a value label to its index in the domain.
func (n *Node) ValueIndex(label string) (int, error) {
	if n.valueIndex == nil {
		n.valueIndex = make(map[string]int, len(n.domain))
		for i, v := range n.domain {
			n.valueIndex[v] = i
		}
	}
	i, ok := n.valueIndex[label]
	if !ok {
		return Unassigned, fmt.Errorf("%w: %q for node %q", ErrUnknownValue, label, n.name)
	}
	return i, nil
}

// Observe clamps the node to the value with the given label. An unknown
// label is logged and returned, and the node is left unchanged.
func (n *Node) Observe(label string) error {
	i, err := n.ValueIndex(label)
	if err != nil {
		n.graph.logger.Warn("Cannot observe node", "node", n.name, "value", label, "error", err)
		return err
	}
	n.observed = true
	n.value = i
	return nil
}

// ObserveIndex clamps the node to the value with the given index.
func (n *Node) ObserveIndex(i int) error {
	if i < 0 || i >= len(n.domain) {
		return fmt.Errorf("%w: index %d for node %q", ErrUnknownValue, i, n.name)
	}
	n.observed = true
	n.value = i
	return nil
}

// Unobserve releases any evidence on the node.
func (n *Node) Unobserve() {
	n.observed = false
	n.value = Unassigned
}

// Observed reports whether the node is clamped to evidence.
func (n *Node) Observed() bool { return n.observed }

// Value returns the current value index: the evidence for an observed node,
// otherwise the value drawn in the last draw, or Unassigned.
func (n *Node) Value() int { return n.value }

// ValueLabel returns the label of the current value, or "" when unassigned.
func (n *Node) ValueLabel() string {
	if n.value == Unassigned {
		return ""
	}
	return n.domain[n.value]
}

// Visited reports whether the node was resolved in the last draw.
func (n *Node) Visited() bool { return n.visited }

// SampleWeights returns a copy of the accumulated importance weight per
// value index, or nil before the node has been sampled.
func (n *Node) SampleWeights() []float64 {
	return slices.Clone(n.weights)
}

// Marginal returns the normalized posterior estimate of the node. The
// estimate reflects the evidence in force at the last sampling call.
func (n *Node) Marginal() ([]float64, error) {
	if n.weights == nil {
		return nil, fmt.Errorf("node %q: %w", n.name, ErrNotSampled)
	}
	sum := floats.Sum(n.weights)
	if sum == 0 {
		return nil, fmt.Errorf("node %q: %w", n.name, ErrDegenerateEvidence)
	}
	m := slices.Clone(n.weights)
	floats.Scale(1/sum, m)
	return m, nil
}

// NodeState is the sampled state of a node, as exchanged with workers.
type NodeState struct {
	Value   int
	Visited bool
	Weights []float64
}

// State returns a snapshot of the node's sampled state.
func (n *Node) State() NodeState {
	return NodeState{Value: n.value, Visited: n.visited, Weights: n.SampleWeights()}
}

// Restore overwrites the node's value and visited flag with s. The weights
// replace the node's accumulator, or are added to it when accumulate is set.
func (n *Node) Restore(s NodeState, accumulate bool) error {
	if err := n.CheckState(s); err != nil {
		return err
	}
	n.value = s.Value
	n.visited = s.Visited
	switch {
	case s.Weights == nil:
	case accumulate && n.weights != nil:
		floats.Add(n.weights, s.Weights)
	default:
		n.weights = slices.Clone(s.Weights)
	}
	return nil
}

// CheckState reports whether s fits the node's domain, without changing the
// node.
func (n *Node) CheckState(s NodeState) error {
	if s.Value < Unassigned || s.Value >= len(n.domain) {
		return fmt.Errorf("%w: index %d for node %q", ErrUnknownValue, s.Value, n.name)
	}
	if s.Weights != nil && len(s.Weights) != len(n.domain) {
		return fmt.Errorf("node %q: %w: %d weights for %d values", n.name, cpt.ErrShapeMismatch, len(s.Weights), len(n.domain))
	}
	return nil
}
