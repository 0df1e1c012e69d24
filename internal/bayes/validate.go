package bayes

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Validate checks that every parent is registered in this graph, that the
// parent edges are acyclic, and that every assigned CPT matches its node's
// shape. Sampling calls it first, so a cyclic network fails with ErrCycle
// instead of recursing without bound.
func (g *Graph) Validate() error {
	dg := simple.NewDirectedGraph()
	for _, n := range g.nodes {
		dg.AddNode(simple.Node(n.index))
	}
	for _, n := range g.nodes {
		for _, p := range n.parents {
			if p == nil || p.graph != g || p.index >= len(g.nodes) || g.nodes[p.index] != p {
				return fmt.Errorf("node %q: %w", n.name, ErrForeignParent)
			}
			if p == n {
				return fmt.Errorf("%w: node %q is its own parent", ErrCycle, n.name)
			}
			dg.SetEdge(dg.NewEdge(simple.Node(p.index), simple.Node(n.index)))
		}
		if n.table != nil && !n.dirty && !n.table.Matches(len(n.domain), n.parentDims()) {
			return fmt.Errorf("node %q: CPT shape does not match parents", n.name)
		}
	}

	if _, err := topo.Sort(dg); err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) && len(cycles) > 0 {
			names := make([]string, len(cycles[0]))
			for i, id := range cycles[0] {
				names[i] = g.nodes[id.ID()].name
			}
			return fmt.Errorf("%w: involving %s", ErrCycle, strings.Join(names, ", "))
		}
		return fmt.Errorf("%w: %v", ErrCycle, err)
	}
	return nil
}
