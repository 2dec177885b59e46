package lloyd

import (
	"io"
	"time"

	"github.com/hupe1980/lloyd/codec"
	"github.com/hupe1980/lloyd/engine"
	"github.com/hupe1980/lloyd/internal/resource"
	"github.com/hupe1980/lloyd/model"
	"github.com/hupe1980/lloyd/wire"
	"github.com/hupe1980/lloyd/worker"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	seeds            []model.Centroid
	worker           worker.Config
	resources        resource.Config
}

// Option configures a run.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		worker:           worker.DefaultConfig(),
	}
}

// WithLogger sets the structured logger.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithSeeds sets the initial centroids. Exactly k seeds must be given.
func WithSeeds(seeds []model.Centroid) Option {
	return func(o *options) {
		o.seeds = seeds
	}
}

// WithWorkerCommand sets the worker executable and arguments placed before the
// -addr and -k launch arguments.
func WithWorkerCommand(path string, args ...string) Option {
	return func(o *options) {
		o.worker.Command = path
		o.worker.Args = args
	}
}

// WithWorkerEnv appends KEY=value entries to the worker environment.
func WithWorkerEnv(env ...string) Option {
	return func(o *options) {
		o.worker.Env = append(o.worker.Env, env...)
	}
}

// WithWorkerOutput redirects the workers' stdout and stderr. Defaults to os.Stderr.
func WithWorkerOutput(w io.Writer) Option {
	return func(o *options) {
		o.worker.Stderr = w
	}
}

// WithCompression sets the wire compression for both directions.
func WithCompression(c wire.Compression) Option {
	return func(o *options) {
		o.worker.Compression = c
	}
}

// WithCodec sets the codec of the worker handshake.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.worker.Codec = c
	}
}

// WithMaxFrameSize bounds every wire frame in bytes. Partitions, centroid sets
// and assignment arrays larger than one frame are streamed in chunks.
// Default: 256 MiB. Values below wire.MinFrameSize fail the launch.
func WithMaxFrameSize(n int) Option {
	return func(o *options) {
		o.worker.MaxFrameSize = n
	}
}

// WithAcceptTimeout bounds the time a worker may take to connect back.
// Default: 30s. Zero disables the bound.
func WithAcceptTimeout(d time.Duration) Option {
	return func(o *options) {
		o.worker.AcceptTimeout = d
	}
}

// WithRPCTimeout bounds a single centroids/assignments round trip.
// Default: none.
func WithRPCTimeout(d time.Duration) Option {
	return func(o *options) {
		o.worker.RPCTimeout = d
	}
}

// WithShutdownGrace sets how long a worker may take to exit after its
// connection is closed before it is killed. Default: 5s.
func WithShutdownGrace(d time.Duration) Option {
	return func(o *options) {
		o.worker.ShutdownGrace = d
	}
}

// WithMaxConcurrentLaunches limits how many workers are started at the same time.
// Default: 1.
func WithMaxConcurrentLaunches(n int64) Option {
	return func(o *options) {
		o.resources.MaxConcurrentLaunches = n
	}
}

// WithLaunchRate limits worker starts per second. Default: unlimited.
func WithLaunchRate(perSec float64) Option {
	return func(o *options) {
		o.resources.LaunchesPerSec = perSec
	}
}

// WithIOLimit limits the total wire throughput in bytes per second.
// Default: unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resources.IOLimitBytesPerSec = bytesPerSec
	}
}

func (o *options) engineOptions(logger *Logger) []engine.Option {
	return []engine.Option{
		engine.WithLogger(logger.Logger),
		engine.WithMetricsObserver(&metricsObserver{mc: o.metricsCollector}),
		engine.WithSeeds(o.seeds),
		engine.WithWorkerConfig(func(cfg *worker.Config) { *cfg = o.worker }),
		engine.WithResources(o.resources),
	}
}
