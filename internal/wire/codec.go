package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/ctxlog"
)

// EncodeOptions tunes a request.
type EncodeOptions struct {
	Seed        *uint64
	SaveSamples bool
}

// Encode snapshots g into a request for drawCount draws. Nodes without a
// current CPT receive a random one first, exactly as sampling locally would.
func Encode(g *bayes.Graph, drawCount int, opts EncodeOptions) ([]byte, error) {
	if drawCount < 1 {
		return nil, fmt.Errorf("%w: %d", bayes.ErrInvalidDrawCount, drawCount)
	}
	if err := g.Reinit(); err != nil {
		return nil, err
	}
	req := Request{
		DrawCount:   drawCount,
		Seed:        opts.Seed,
		SaveSamples: opts.SaveSamples,
		Nodes:       make([]NodeMessage, 0, g.Len()),
	}
	for _, n := range g.Nodes() {
		req.Nodes = append(req.Nodes, NodeMessage{
			Name:        n.Name(),
			Domain:      n.Domain(),
			Value:       n.Value(),
			Observed:    n.Observed(),
			Visited:     n.Visited(),
			Cpt:         n.Table(),
			ParentNames: n.ParentNames(),
		})
	}
	return json.Marshal(req)
}

// Decode rebuilds the graph described by a request. Parent names may refer to
// any node of the request, regardless of order.
func Decode(data []byte, opts ...bayes.Option) (*bayes.Graph, Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, req, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if req.Seed != nil {
		opts = append(opts, bayes.WithSeed(*req.Seed))
	}
	g := bayes.New(opts...)

	nodes := make([]*bayes.Node, len(req.Nodes))
	for i, nm := range req.Nodes {
		n, err := g.AddNode(nm.Name, nm.Domain...)
		if err != nil {
			return nil, req, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		nodes[i] = n
	}
	for i, nm := range req.Nodes {
		for _, pname := range nm.ParentNames {
			p, err := g.Node(pname)
			if err != nil {
				return nil, req, fmt.Errorf("%w: %q of node %q", ErrUnknownParent, pname, nm.Name)
			}
			nodes[i].AddParent(p)
		}
	}
	for i, nm := range req.Nodes {
		if nm.Cpt != nil {
			if err := nodes[i].SetTable(nm.Cpt); err != nil {
				return nil, req, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
			}
		}
		if nm.Observed {
			if err := nodes[i].ObserveIndex(nm.Value); err != nil {
				return nil, req, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
			}
		}
	}
	g.SetSaveSamples(req.SaveSamples)
	return g, req, nil
}

// Execute is the worker side of the exchange: it decodes a request, samples
// the rebuilt graph and returns an encoded response. Failures are reported
// inside the response rather than returned.
func Execute(ctx context.Context, data []byte) []byte {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	resp := execute(ctx, data)
	if !resp.Success {
		logger.Warn("Sampling request failed", "error", resp.Error)
	} else {
		logger.Debug("Sampling request served",
			"draws", resp.DrawCount, "nodes", len(resp.Nodes), "duration", time.Since(start))
	}

	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(Response{Error: err.Error()})
	}
	return out
}

func execute(ctx context.Context, data []byte) Response {
	g, req, err := Decode(data, bayes.WithLogger(ctxlog.FromContext(ctx)))
	if err != nil {
		return Response{Error: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return Response{Error: err.Error(), DrawCount: req.DrawCount}
	}
	total, err := g.Sample(req.DrawCount)
	if err != nil {
		return Response{Error: err.Error(), DrawCount: req.DrawCount}
	}

	resp := Response{
		Success:     true,
		DrawCount:   req.DrawCount,
		TotalWeight: total,
		Nodes:       make([]NodeResult, 0, g.Len()),
	}
	for _, n := range g.Nodes() {
		s := n.State()
		resp.Nodes = append(resp.Nodes, NodeResult{
			Name:          n.Name(),
			Value:         s.Value,
			Visited:       s.Visited,
			SampleWeights: s.Weights,
		})
	}
	if req.SaveSamples {
		resp.Samples = g.Samples()
	}
	return resp
}

// Merge applies a worker response to the canonical graph and returns the
// total weight the worker reported. For every node named in the response the
// value and visited flag are overwritten; the weights are combined according
// to policy. Nodes absent from the canonical graph are skipped. The response
// is checked in full before g is touched, so a failed merge leaves g as it
// was.
func Merge(g *bayes.Graph, data []byte, policy MergePolicy) (float64, error) {
	resp, err := DecodeResponse(g, data)
	if err != nil {
		return 0, err
	}
	return Apply(g, resp, policy)
}

// DecodeResponse decodes a worker response and checks that it reports
// success and that every node state fits the matching node of g. It does not
// modify g.
func DecodeResponse(g *bayes.Graph, data []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if !resp.Success {
		return resp, fmt.Errorf("%w: %s", ErrWorkerFailed, resp.Error)
	}
	for _, nr := range resp.Nodes {
		n, err := g.Node(nr.Name)
		if err != nil {
			continue
		}
		if err := n.CheckState(nr.state()); err != nil {
			return resp, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
	}
	return resp, nil
}

// Apply writes a response accepted by DecodeResponse into g and returns its
// total weight.
func Apply(g *bayes.Graph, resp Response, policy MergePolicy) (float64, error) {
	accumulate := policy == MergeAccumulate
	for _, nr := range resp.Nodes {
		n, err := g.Node(nr.Name)
		if err != nil {
			continue
		}
		if err := n.Restore(nr.state(), accumulate); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
	}
	if resp.Samples != nil {
		g.RestoreSamples(resp.Samples, accumulate)
	}
	return resp.TotalWeight, nil
}

func (nr NodeResult) state() bayes.NodeState {
	return bayes.NodeState{Value: nr.Value, Visited: nr.Visited, Weights: nr.SampleWeights}
}
