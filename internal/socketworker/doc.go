// Package socketworker carries wire requests between processes over
// socket.io.
//
// A Server accepts "sample" events whose payload is an envelope holding a
// request id and an encoded wire request. It runs the request on a local
// worker and answers on the same socket with a "sampled" event carrying the
// same id. A Client keeps one connection open, implements worker.Worker and
// matches responses to callers by id, so several requests may be in flight
// on one connection.
package socketworker
