// Package wire defines the message exchanged with an isolated sampling
// worker and the operations on both sides of the exchange.
//
// The canonical side calls Encode to snapshot a graph into a request, hands
// the bytes to a worker, and calls Merge on the response. The worker side
// calls Execute, which rebuilds an independent graph from the request with
// Decode, samples it and encodes the per-node results. No memory is shared
// between the two graphs; parents travel as names and are resolved again on
// receipt, and the lookup caches of the rebuilt graph start empty.
package wire
