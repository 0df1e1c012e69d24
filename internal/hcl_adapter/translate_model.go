// This file contains the logic for translating HCL schema structs into the
// format-agnostic network model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/vk/bayesgrid/internal/config"
	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	rowType  = cty.List(cty.Number)
	rowsType = cty.List(rowType)
)

// translateFile converts the decoded blocks of one file into a model.
func (l *Loader) translateFile(ctx context.Context, root *fileRoot) (*config.Model, error) {
	m := config.NewModel()
	if root.Name != nil {
		m.Name = *root.Name
	}
	for _, vb := range root.Variables {
		v, err := l.translateVariable(ctx, vb)
		if err != nil {
			return nil, err
		}
		m.Variables = append(m.Variables, v)
	}
	for _, eb := range root.Evidence {
		if err := translateEvidence(eb, m.Evidence); err != nil {
			return nil, err
		}
	}
	for _, sb := range root.Sampling {
		m.Sampling.Draws = sb.Draws
		m.Sampling.Workers = sb.Workers
		m.Sampling.SaveSamples = sb.SaveSamples
		m.Sampling.Seed = sb.Seed
	}
	return m, nil
}

// translateVariable converts the HCL-specific variable schema into the agnostic model.
func (l *Loader) translateVariable(ctx context.Context, vb *VariableBlock) (*config.Variable, error) {
	logger := ctxlog.FromContext(ctx).With("variable", vb.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	v := &config.Variable{
		Name:    vb.Name,
		Values:  vb.Values,
		Parents: vb.Parents,
		Source:  fmt.Sprintf("%s:%d", vb.DeclRange.Filename, vb.DeclRange.Start.Line),
	}
	if !isExprDefined(ctx, vb.Cpt, "cpt") {
		logger.Debug("No cpt given; a random table will be generated.")
		return v, nil
	}

	val, diags := vb.Cpt.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("variable %q: invalid cpt: %w", vb.Name, diags)
	}
	rows, err := ctyToRows(val)
	if err != nil {
		return nil, fmt.Errorf("variable %q (%s): cpt: %w", vb.Name, v.Source, err)
	}
	v.Cpt = rows
	return v, nil
}

// ctyToRows accepts either a flat list of numbers (one row) or a list of
// such lists.
func ctyToRows(val cty.Value) ([][]float64, error) {
	if !val.IsWhollyKnown() || val.IsNull() {
		return nil, fmt.Errorf("value must be known and not null")
	}
	if row, err := convert.Convert(val, rowType); err == nil {
		var out []float64
		if err := gocty.FromCtyValue(row, &out); err != nil {
			return nil, err
		}
		return [][]float64{out}, nil
	}
	rows, err := convert.Convert(val, rowsType)
	if err != nil {
		return nil, fmt.Errorf("must be a list of numbers or a list of lists of numbers")
	}
	var out [][]float64
	if err := gocty.FromCtyValue(rows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// translateEvidence evaluates every attribute of an evidence block as a
// value label.
func translateEvidence(eb *EvidenceBlock, into map[string]string) error {
	attrs, diags := eb.Body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("invalid evidence block: %w", diags)
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("evidence %q: %w", name, diags)
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil || str.IsNull() {
			return fmt.Errorf("evidence %q: value must be a string", name)
		}
		var label string
		if err := gocty.FromCtyValue(str, &label); err != nil {
			return fmt.Errorf("evidence %q: %w", name, err)
		}
		if prev, ok := into[name]; ok && prev != label {
			return fmt.Errorf("conflicting evidence for %q: %q and %q", name, prev, label)
		}
		into[name] = label
	}
	return nil
}
