package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/builder"
	"github.com/vk/bayesgrid/internal/config"
	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/inmemorystore"
	"github.com/vk/bayesgrid/internal/metrics"
	"github.com/vk/bayesgrid/internal/runstore"
	"github.com/vk/bayesgrid/internal/sqlitestore"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	model      *config.Model
	graph      *bayes.Graph
	store      runstore.Store
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads and builds
// the network eagerly, so a broken network file fails here. Such failures
// are fatal startup errors and panic.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.NetworkPath)
	if err != nil {
		panic(fmt.Errorf("failed to load network: %w", err))
	}
	logger.Debug("Network loaded into unified model.", "variables", len(model.Variables))

	var opts []bayes.Option
	if seed := effectiveSeed(cfg, model); seed != nil {
		opts = append(opts, bayes.WithSeed(*seed))
		logger.Debug("Sampling is seeded.", "seed", *seed)
	}
	graph, err := builder.Build(ctx, model, opts...)
	if err != nil {
		panic(fmt.Errorf("failed to build network: %w", err))
	}

	var store runstore.Store
	if cfg.DBPath != "" {
		store, err = sqlitestore.Open(ctx, cfg.DBPath)
		if err != nil {
			panic(fmt.Errorf("failed to open run store: %w", err))
		}
	} else {
		store = inmemorystore.New()
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		model:   model,
		graph:   graph,
		store:   store,
		metrics: metrics.New(),
	}
}

// Graph returns the network built from the configuration.
func (a *App) Graph() *bayes.Graph {
	return a.graph
}

// Model returns the loaded network model.
func (a *App) Model() *config.Model {
	return a.model
}

// Store returns the run store.
func (a *App) Store() runstore.Store {
	return a.store
}

// Metrics returns the app's collectors.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Close releases the run store.
func (a *App) Close() error {
	return a.store.Close()
}

func effectiveSeed(cfg *Config, model *config.Model) *uint64 {
	if cfg.Seed != nil {
		return cfg.Seed
	}
	return model.Sampling.Seed
}

// settings is the resolved sampling configuration of a run.
type settings struct {
	mode        string
	draws       int
	workers     int
	saveSamples bool
}

// resolveSettings applies flag values over the network file's sampling
// block over the package defaults.
func (a *App) resolveSettings() settings {
	s := settings{
		mode:        a.config.Mode,
		draws:       DefaultDraws,
		workers:     DefaultWorkers,
		saveSamples: a.config.SaveSamples || a.config.SamplesCSV != "",
	}
	fs := a.model.Sampling
	if fs.Draws != nil {
		s.draws = *fs.Draws
	}
	if fs.Workers != nil {
		s.workers = *fs.Workers
	}
	if fs.SaveSamples != nil && *fs.SaveSamples {
		s.saveSamples = true
	}
	if a.config.Draws > 0 {
		s.draws = a.config.Draws
	}
	if a.config.Workers > 0 {
		s.workers = a.config.Workers
	}
	if s.mode == ModeRemote {
		s.workers = len(a.config.WorkerURLs)
	}
	return s
}
