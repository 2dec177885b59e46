package engine

import (
	"log/slog"

	"github.com/hupe1980/lloyd/internal/resource"
	"github.com/hupe1980/lloyd/model"
	"github.com/hupe1980/lloyd/worker"
)

// Options configures a run.
type Options struct {
	// Logger receives run lifecycle events. If nil, logging is discarded.
	Logger *slog.Logger

	// Metrics observes iterations and worker traffic. If nil, a no-op observer.
	Metrics MetricsObserver

	// Seeds are the initial centroids. If nil, the first k points.
	Seeds []model.Centroid

	// Worker configures the worker processes of the distributed strategy.
	// K, Logger and Resources are filled in by the run.
	Worker worker.Config

	// Resources limits launches and wire throughput of the distributed strategy.
	Resources resource.Config
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the options used when no Option overrides them.
func DefaultOptions() Options {
	return Options{
		Metrics: &NoopMetricsObserver{},
		Worker:  worker.DefaultConfig(),
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetricsObserver sets the metrics observer.
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithSeeds sets explicit initial centroids.
func WithSeeds(seeds []model.Centroid) Option {
	return func(o *Options) {
		o.Seeds = seeds
	}
}

// WithWorkerConfig modifies the worker process configuration.
func WithWorkerConfig(fn func(*worker.Config)) Option {
	return func(o *Options) {
		fn(&o.Worker)
	}
}

// WithResources sets the resource limits of the distributed strategy.
func WithResources(cfg resource.Config) Option {
	return func(o *Options) {
		o.Resources = cfg
	}
}

func applyOptions(optFns []Option) Options {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = &NoopMetricsObserver{}
	}
	return opts
}
