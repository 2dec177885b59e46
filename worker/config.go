package worker

import (
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/lloyd/codec"
	"github.com/hupe1980/lloyd/internal/resource"
	"github.com/hupe1980/lloyd/wire"
)

// Default timeouts.
const (
	DefaultAcceptTimeout = 30 * time.Second
	DefaultShutdownGrace = 5 * time.Second
)

// Config describes how a worker process is launched and supervised.
type Config struct {
	// Command is the worker executable. If empty, DefaultCommand is used.
	Command string

	// Args are passed before the -addr and -k launch arguments.
	Args []string

	// Env entries are appended to the inherited environment.
	Env []string

	// K is the number of clusters; the worker echoes it in its handshake.
	K int

	// AcceptTimeout bounds the time between process start and handshake.
	// If 0, the accept is bounded only by the context and by process exit.
	AcceptTimeout time.Duration

	// RPCTimeout bounds a single RoundTrip. If 0, only the context bounds it.
	RPCTimeout time.Duration

	// ShutdownGrace is how long Close waits for the process to exit on its own
	// before killing it.
	ShutdownGrace time.Duration

	// Compression applies to frames sent in both directions.
	Compression wire.Compression

	// Codec encodes the handshake. Both ends must agree.
	Codec codec.Codec

	// MaxFrameSize bounds every frame in both directions; larger arrays are
	// streamed in chunks. It is passed to the worker. If 0, wire.DefaultMaxFrameSize.
	MaxFrameSize int

	// Resources bounds launches and wire throughput. May be nil.
	Resources *resource.Controller

	// Stderr receives the worker's stdout and stderr. If nil, os.Stderr.
	Stderr io.Writer

	// Logger receives channel lifecycle events. If nil, logging is discarded.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the default timeouts and codec.
func DefaultConfig() Config {
	return Config{
		AcceptTimeout: DefaultAcceptTimeout,
		ShutdownGrace: DefaultShutdownGrace,
		Compression:   wire.CompressionNone,
		Codec:         codec.Default,
	}
}

func (c Config) wireOptions(o *wire.Options) {
	o.Compression = c.Compression
	if c.MaxFrameSize > 0 {
		o.MaxFrameSize = c.MaxFrameSize
	}
	if c.Codec != nil {
		o.Codec = c.Codec
	}
	if c.Resources != nil {
		o.Limiter = c.Resources
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
