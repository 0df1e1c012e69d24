// Package worker runs sampling passes outside the canonical graph.
//
// A Worker takes an encoded wire request and returns an encoded response.
// Local serves requests from a pool of goroutines, each decoding its own
// private copy of the network, so nothing is shared with the caller's graph.
// Offload and FanOut drive one or several workers and merge the results back
// into the canonical graph.
package worker
