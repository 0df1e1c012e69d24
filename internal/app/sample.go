package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/socketworker"
	"github.com/vk/bayesgrid/internal/worker"
)

// sample runs one sampling call in the resolved mode and returns the total
// draw weight.
func (a *App) sample(ctx context.Context, s settings) (float64, error) {
	switch s.mode {
	case ModeLocal:
		return a.graph.Sample(s.draws)
	case ModeParallel:
		return a.graph.SampleParallel(ctx, s.draws, s.workers)
	case ModeOffload:
		return a.sampleOffload(ctx, s)
	case ModeRemote:
		return a.sampleRemote(ctx, s)
	default:
		return 0, fmt.Errorf("unknown mode %q", s.mode)
	}
}

// sampleOffload ships the network to an in-process pool. One worker takes
// the whole call; more split it into one shard per worker.
func (a *App) sampleOffload(ctx context.Context, s settings) (float64, error) {
	pool := worker.NewLocal(ctx, s.workers)
	defer pool.Close()

	if s.workers <= 1 {
		return worker.Offload(ctx, a.graph, s.draws, pool)
	}
	shards := make([]worker.Worker, s.workers)
	for i := range shards {
		shards[i] = pool
	}
	return worker.FanOut(ctx, a.graph, s.draws, shards)
}

// sampleRemote dials every configured worker and splits the call across
// them.
func (a *App) sampleRemote(ctx context.Context, s settings) (total float64, err error) {
	logger := ctxlog.FromContext(ctx)
	var clients []*socketworker.Client
	defer func() {
		for _, c := range clients {
			err = errors.Join(err, c.Close())
		}
	}()

	workers := make([]worker.Worker, 0, len(a.config.WorkerURLs))
	for _, url := range a.config.WorkerURLs {
		c, dialErr := socketworker.Dial(ctx, url, socketworker.DialOptions{})
		if dialErr != nil {
			return 0, fmt.Errorf("connecting to worker %s: %w", url, dialErr)
		}
		clients = append(clients, c)
		workers = append(workers, c)
	}
	logger.Debug("Connected to remote workers.", "count", len(clients))

	if len(workers) == 1 {
		return worker.Offload(ctx, a.graph, s.draws, workers[0])
	}
	return worker.FanOut(ctx, a.graph, s.draws, workers)
}
