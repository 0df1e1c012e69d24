// Package runstore defines the interface for recording completed sampling
// runs: what was sampled, how, and the marginals that came out.
//
// The store is written once per run by the app after the results are
// reported, and read back by tools that compare runs. Backends can be
// swapped without touching the sampling code: inmemorystore for tests and
// one-off runs, sqlitestore when results must outlive the process.
package runstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is the record of one sampling call.
type Run struct {
	ID          string
	Network     string
	Mode        string
	Draws       int
	Workers     int
	TotalWeight float64
	// Degenerate is set when every draw had zero weight; Marginals is then
	// empty.
	Degenerate bool
	Evidence   map[string]string
	Marginals  map[string][]float64
	Duration   time.Duration
	CreatedAt  time.Time
}

// Store persists run records.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Save inserts the run, replacing any record with the same ID.
	Save(ctx context.Context, run *Run) error
	// Get returns the run with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns every run ordered by creation time, oldest first.
	List(ctx context.Context) ([]*Run, error)
	// Close releases the resources held by the store.
	Close() error
}
