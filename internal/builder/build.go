package builder

import (
	"context"
	"fmt"

	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/config"
	"github.com/vk/bayesgrid/internal/ctxlog"
)

// Build constructs a validated network from a config model. opts are passed
// to bayes.New; the logger from ctx is added unless opts override it.
func Build(ctx context.Context, model *config.Model, opts ...bayes.Option) (*bayes.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting network construction.", "network", model.Name)

	g := bayes.New(append([]bayes.Option{bayes.WithLogger(logger)}, opts...)...)

	// First pass: create all nodes.
	if err := createNodes(ctx, model, g); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node creation complete.", "node_count", g.Len())

	// Second pass: link parents.
	if err := linkParents(ctx, model, g); err != nil {
		return nil, err
	}
	logger.Debug("Build: Parent linking complete.")

	// Validation: foreign parents and cycles.
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("error validating network: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")

	// Third pass: conditional probability tables.
	if err := assignTables(ctx, model, g); err != nil {
		return nil, err
	}
	logger.Debug("Build: Table assignment complete.")

	// Final pass: evidence.
	if err := applyEvidence(ctx, model, g); err != nil {
		return nil, err
	}

	logger.Info("Build: Network construction successful.", "nodes", g.Len(), "evidence", len(model.Evidence))
	return g, nil
}
