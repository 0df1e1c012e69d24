package worker

import (
	"context"
	"fmt"

	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/wire"
	"golang.org/x/sync/errgroup"
)

// Offload runs one sampling call of draws on w and merges the result into g,
// replacing its weights. It returns the total draw weight. The request seed
// is derived from g, so a seeded graph gives reproducible results.
func Offload(ctx context.Context, g *bayes.Graph, draws int, w Worker) (float64, error) {
	seed := g.DeriveSeed()
	req, err := wire.Encode(g, draws, wire.EncodeOptions{Seed: &seed, SaveSamples: g.SaveSamples()})
	if err != nil {
		return 0, err
	}
	resp, err := w.Sample(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("offload: %w", err)
	}
	total, err := wire.Merge(g, resp, wire.MergeReplace)
	if err != nil {
		return 0, fmt.Errorf("offload: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Offloaded sampling merged.", "draws", draws, "total_weight", total)
	return total, nil
}

// FanOut splits one sampling call of draws across workers and runs the
// shards concurrently, each with its own seed. Once every shard has
// returned and every response has been checked, g's weights are reset and
// the shard results are accumulated in shard order. A transport failure or a
// failed or malformed response leaves g untouched. It returns the summed draw
// weight.
func FanOut(ctx context.Context, g *bayes.Graph, draws int, workers []Worker) (float64, error) {
	if len(workers) == 0 {
		return 0, fmt.Errorf("fan-out: no workers")
	}
	if draws < 1 {
		return 0, fmt.Errorf("%w: %d", bayes.ErrInvalidDrawCount, draws)
	}
	logger := ctxlog.FromContext(ctx)
	sizes := bayes.ShardSizes(draws, len(workers))

	requests := make([][]byte, len(sizes))
	for i, size := range sizes {
		seed := g.DeriveSeed()
		req, err := wire.Encode(g, size, wire.EncodeOptions{Seed: &seed, SaveSamples: g.SaveSamples()})
		if err != nil {
			return 0, err
		}
		requests[i] = req
	}

	responses := make([][]byte, len(sizes))
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range requests {
		eg.Go(func() error {
			logger.Debug("Dispatching shard.", "shard", i, "draws", sizes[i])
			resp, err := workers[i].Sample(egCtx, requests[i])
			if err != nil {
				return fmt.Errorf("shard %d: %w", i, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, fmt.Errorf("fan-out: %w", err)
	}

	decoded := make([]wire.Response, len(responses))
	for i, resp := range responses {
		d, err := wire.DecodeResponse(g, resp)
		if err != nil {
			return 0, fmt.Errorf("fan-out: shard %d: %w", i, err)
		}
		decoded[i] = d
	}

	g.ResetWeights()
	total := 0.0
	for i, resp := range decoded {
		w, err := wire.Apply(g, resp, wire.MergeAccumulate)
		if err != nil {
			return 0, fmt.Errorf("fan-out: shard %d: %w", i, err)
		}
		total += w
	}
	logger.Debug("Fan-out merged.", "shards", len(sizes), "draws", draws, "total_weight", total)
	return total, nil
}
