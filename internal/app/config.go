package app

import (
	"errors"
	"fmt"
	"slices"
)

// Sampling modes.
const (
	// ModeLocal samples in the calling goroutine.
	ModeLocal = "local"
	// ModeParallel shards the draws across goroutines sharing the network.
	ModeParallel = "parallel"
	// ModeOffload ships the network to an isolated in-process worker pool.
	ModeOffload = "offload"
	// ModeRemote ships the network to socket.io workers.
	ModeRemote = "remote"
)

// Modes lists the valid sampling modes.
var Modes = []string{ModeLocal, ModeParallel, ModeOffload, ModeRemote}

// Defaults used when neither a flag nor the network file sets a value.
const (
	DefaultDraws   = 10000
	DefaultWorkers = 4
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	NetworkPath string // .hcl / .yaml files or a directory of them

	// Draws and Workers override the network file's sampling block when
	// positive.
	Draws   int
	Workers int
	Mode    string
	// WorkerURLs are the socket.io workers used in remote mode.
	WorkerURLs []string
	// SaveSamples retains every draw; the network file can also turn it on.
	SaveSamples bool
	// SamplesCSV is the file the retained draws are written to, if set.
	SamplesCSV string
	// Seed overrides the network file's seed when non-nil.
	Seed *uint64
	// DBPath selects the sqlite run store; empty keeps runs in memory.
	DBPath string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and fills in the mode default.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.NetworkPath == "" {
		return nil, errors.New("NetworkPath is a required configuration field and cannot be empty")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeLocal
	}
	if !slices.Contains(Modes, cfg.Mode) {
		return nil, fmt.Errorf("invalid mode %q: must be one of %v", cfg.Mode, Modes)
	}
	if cfg.Draws < 0 {
		return nil, fmt.Errorf("draws must not be negative, got %d", cfg.Draws)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.Mode == ModeRemote && len(cfg.WorkerURLs) == 0 {
		return nil, errors.New("remote mode needs at least one worker URL")
	}
	if cfg.Mode != ModeRemote && len(cfg.WorkerURLs) > 0 {
		return nil, fmt.Errorf("worker URLs are only used in %s mode", ModeRemote)
	}
	return &cfg, nil
}
