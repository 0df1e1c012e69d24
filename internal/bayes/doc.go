// Package bayes models a discrete Bayesian network and estimates posterior
// marginals by likelihood-weighted sampling.
//
// A Graph owns an ordered set of Nodes. Each Node is a discrete random
// variable with a named domain, an ordered list of parents and a conditional
// probability table (see package cpt). Nodes may be clamped to an observed
// value; sampling then weights every draw by the likelihood of the evidence.
//
// Sampling resolves nodes by memoized recursion over the parent edges rather
// than by a precomputed topological order, so the order in which nodes are
// registered never affects correctness. Per-draw state lives in a drawState
// value that is independent of the Graph, which lets SampleParallel run
// shards of draws concurrently and reduce their weights afterwards.
//
// A Graph is not safe for concurrent use. Sample and SampleParallel only read
// the network structure while they run, but mutating the graph from another
// goroutine at the same time is a data race.
package bayes
