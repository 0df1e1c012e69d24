package bayes

import (
	"io"
	"strings"
)

// Assignment is the value of every node in one draw, keyed by node name.
type Assignment map[string]string

func (g *Graph) assignment(values []int) Assignment {
	a := make(Assignment, len(g.nodes))
	for i, n := range g.nodes {
		if v := values[i]; v != Unassigned {
			a[n.name] = n.domain[v]
		}
	}
	return a
}

// SetSaveSamples enables or disables retention of every draw's assignment.
func (g *Graph) SetSaveSamples(save bool) {
	g.saveSamples = save
}

// SaveSamples reports whether draws are retained.
func (g *Graph) SaveSamples() bool {
	return g.saveSamples
}

// Samples returns the draws retained by the last sampling call made with
// retention enabled.
func (g *Graph) Samples() []Assignment {
	out := make([]Assignment, len(g.samples))
	copy(out, g.samples)
	return out
}

// RestoreSamples replaces the retained samples, or appends to them when
// accumulate is set.
func (g *Graph) RestoreSamples(samples []Assignment, accumulate bool) {
	if !accumulate {
		g.samples = nil
	}
	g.samples = append(g.samples, samples...)
}

// CSVOptions controls the text form of retained samples. Empty delimiters
// fall back to a newline between rows and a comma between fields.
type CSVOptions struct {
	RowDelimiter   string
	FieldDelimiter string
}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.RowDelimiter == "" {
		o.RowDelimiter = "\n"
	}
	if o.FieldDelimiter == "" {
		o.FieldDelimiter = ","
	}
	return o
}

// SamplesCSV renders the retained samples as a table: a header row of node
// names in registration order followed by one row of value labels per draw.
// Rows are separated, not terminated, by the row delimiter. Names and labels
// are written as they are, without quoting: a name or label that contains
// either delimiter makes the output ambiguous, so pick delimiters that no
// label uses.
func (g *Graph) SamplesCSV(opts CSVOptions) string {
	var b strings.Builder
	_ = g.WriteSamplesCSV(&b, opts)
	return b.String()
}

// WriteSamplesCSV writes the output of SamplesCSV to w.
func (g *Graph) WriteSamplesCSV(w io.Writer, opts CSVOptions) error {
	opts = opts.withDefaults()
	fields := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		fields[i] = n.name
	}
	if _, err := io.WriteString(w, strings.Join(fields, opts.FieldDelimiter)); err != nil {
		return err
	}
	for _, s := range g.samples {
		for i, n := range g.nodes {
			fields[i] = s[n.name]
		}
		if _, err := io.WriteString(w, opts.RowDelimiter+strings.Join(fields, opts.FieldDelimiter)); err != nil {
			return err
		}
	}
	return nil
}
