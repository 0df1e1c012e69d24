package builder

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/config"
	"github.com/vk/bayesgrid/internal/ctxlog"
)

// createNodes performs the first pass, registering a node for every
// variable of the model.
func createNodes(ctx context.Context, model *config.Model, g *bayes.Graph) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting node creation pass.")

	for _, v := range model.Variables {
		logger.Debug("Creating node.", "node", v.Name, "values", len(v.Values), "source", v.Source)
		if _, err := g.AddNode(v.Name, v.Values...); err != nil {
			return fmt.Errorf("%s: %w", where(v), err)
		}
	}
	logger.Debug("Finished node creation pass.")
	return nil
}

// linkParents performs the second pass, resolving parent names into edges.
func linkParents(ctx context.Context, model *config.Model, g *bayes.Graph) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting parent linking pass.")

	for _, v := range model.Variables {
		if len(v.Parents) == 0 {
			continue
		}
		n, err := g.Node(v.Name)
		if err != nil {
			return err
		}
		nodeLogger := logger.With("node", v.Name)
		for i, name := range v.Parents {
			if slices.Contains(v.Parents[:i], name) {
				return fmt.Errorf("%s: variable %q lists parent %q twice", where(v), v.Name, name)
			}
			p, err := g.Node(name)
			if err != nil {
				return fmt.Errorf("%s: variable %q depends on undefined variable: %w", where(v), v.Name, err)
			}
			nodeLogger.Debug("Linking parent.", "parent", name)
			n.AddParent(p)
		}
	}
	logger.Debug("Finished parent linking pass.")
	return nil
}

// assignTables performs the third pass. Explicit rows are normalized and
// stored; the remaining nodes get random tables.
func assignTables(ctx context.Context, model *config.Model, g *bayes.Graph) error {
	logger := ctxlog.FromContext(ctx)
	random := 0
	for _, v := range model.Variables {
		if len(v.Cpt) == 0 {
			random++
			continue
		}
		n, err := g.Node(v.Name)
		if err != nil {
			return err
		}
		if err := n.SetCpt(v.Cpt...); err != nil {
			return fmt.Errorf("%s: %w", where(v), err)
		}
	}
	if random > 0 {
		logger.Debug("Generating random tables.", "count", random)
	}
	return g.Reinit()
}

// applyEvidence performs the final pass.
func applyEvidence(ctx context.Context, model *config.Model, g *bayes.Graph) error {
	logger := ctxlog.FromContext(ctx)
	names := make([]string, 0, len(model.Evidence))
	for name := range model.Evidence {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		value := model.Evidence[name]
		if err := g.Observe(name, value); err != nil {
			return fmt.Errorf("invalid evidence %s = %q: %w", name, value, err)
		}
		logger.Debug("Evidence applied.", "node", name, "value", value)
	}
	return nil
}

func where(v *config.Variable) string {
	if v.Source == "" {
		return "variable " + v.Name
	}
	return v.Source
}
