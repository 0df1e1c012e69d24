package wire

import (
	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/cpt"
)

// Request asks a worker to sample a network.
type Request struct {
	DrawCount int `json:"drawCount"`
	// Seed makes the worker's draws reproducible when set.
	Seed        *uint64       `json:"seed,omitempty"`
	SaveSamples bool          `json:"saveSamples,omitempty"`
	Nodes       []NodeMessage `json:"nodes"`
}

// NodeMessage is one node of a Request, in registration order.
type NodeMessage struct {
	Name        string     `json:"name"`
	Domain      []string   `json:"domain"`
	Value       int        `json:"value"`
	Observed    bool       `json:"observed"`
	Visited     bool       `json:"visited"`
	Cpt         *cpt.Table `json:"cpt"`
	ParentNames []string   `json:"parentNames"`
}

// Response carries the result of a worker's sampling pass.
type Response struct {
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	DrawCount   int                `json:"drawCount"`
	TotalWeight float64            `json:"totalWeight"`
	Nodes       []NodeResult       `json:"nodes"`
	Samples     []bayes.Assignment `json:"samples,omitempty"`
}

// NodeResult is the sampled state of one node.
type NodeResult struct {
	Name          string    `json:"name"`
	Value         int       `json:"value"`
	Visited       bool      `json:"visited"`
	SampleWeights []float64 `json:"sampleWeights"`
}

// MergePolicy decides how returned weights combine with the canonical ones.
type MergePolicy int

const (
	// MergeReplace overwrites the canonical weights. Use it when a single
	// worker ran the whole sampling call.
	MergeReplace MergePolicy = iota
	// MergeAccumulate adds the returned weights to the canonical ones. Use it
	// when one sampling call is split across several workers.
	MergeAccumulate
)

func (p MergePolicy) String() string {
	switch p {
	case MergeReplace:
		return "replace"
	case MergeAccumulate:
		return "accumulate"
	default:
		return "unknown"
	}
}
