package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/runstore"
)

// Run samples the network once in the configured mode, prints the
// marginals, writes the retained draws when asked to and records the run.
// It returns the recorded run.
func (a *App) Run(ctx context.Context) (*runstore.Run, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.startHealthCheckServer(ctx)
	defer a.closeHealthCheckServer(ctx)

	s := a.resolveSettings()
	a.graph.SetSaveSamples(s.saveSamples)
	a.logger.Info("🚀 Starting sampling...", "mode", s.mode, "draws", s.draws, "workers", s.workers, "nodes", a.graph.Len())

	start := time.Now()
	total, err := a.sample(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("sampling failed: %w", err)
	}
	elapsed := time.Since(start)
	degenerate := total == 0
	a.metrics.ObserveRun(s.mode, s.draws, degenerate, elapsed)
	a.logger.Info("🏁 Sampling finished.", "total_weight", total, "duration", elapsed)

	run := &runstore.Run{
		ID:          uuid.NewString(),
		Network:     a.model.Name,
		Mode:        s.mode,
		Draws:       s.draws,
		Workers:     s.workers,
		TotalWeight: total,
		Degenerate:  degenerate,
		Evidence:    a.graph.Evidence(),
		Marginals:   a.graph.Marginals(),
		Duration:    elapsed,
		CreatedAt:   start.UTC(),
	}

	if err := writeReport(a.outW, run, a.graph.Nodes()); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	if a.config.SamplesCSV != "" {
		if err := a.exportSamples(ctx, a.config.SamplesCSV); err != nil {
			return nil, err
		}
	}
	if err := a.store.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	a.logger.Debug("Run recorded.", "run_id", run.ID)

	a.logger.Debug("App.Run method finished.")
	return run, nil
}

func (a *App) exportSamples(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating samples file: %w", err)
	}
	if err := a.graph.WriteSamplesCSV(f, bayes.CSVOptions{}); err != nil {
		f.Close()
		return fmt.Errorf("writing samples: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Samples written.", "path", path, "rows", len(a.graph.Samples()))
	return nil
}
