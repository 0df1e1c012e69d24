package app

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/runstore"
)

// writeReport prints the marginals of every node in registration order.
func writeReport(w io.Writer, run *runstore.Run, nodes []*bayes.Node) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	name := run.Network
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(tw, "Network: %s  mode=%s draws=%d total_weight=%.6g\n", name, run.Mode, run.Draws, run.TotalWeight)
	if len(run.Evidence) > 0 {
		fmt.Fprint(tw, "Evidence:")
		for _, k := range slices.Sorted(maps.Keys(run.Evidence)) {
			fmt.Fprintf(tw, " %s=%s", k, run.Evidence[k])
		}
		fmt.Fprintln(tw)
	}
	if run.Degenerate {
		fmt.Fprintln(tw, "No draw is consistent with the evidence; marginals are undefined.")
		return tw.Flush()
	}
	for _, n := range nodes {
		m, ok := run.Marginals[n.Name()]
		if !ok {
			continue
		}
		marker := ""
		if n.Observed() {
			marker = " (observed)"
		}
		fmt.Fprintf(tw, "%s%s\n", n.Name(), marker)
		for i, label := range n.Domain() {
			fmt.Fprintf(tw, "  %s\t%.4f\n", label, m[i])
		}
	}
	return tw.Flush()
}
