package worker

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/hupe1980/lloyd/codec"
	"github.com/hupe1980/lloyd/internal/kmeans"
	"github.com/hupe1980/lloyd/wire"
)

// Serve runs the worker side of the protocol on an established connection:
// handshake, one partition, then one assignment array per centroid broadcast.
//
// Serve returns nil when the coordinator closes the connection or ctx ends.
func Serve(ctx context.Context, conn *wire.Conn, k int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if k < 1 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrProtocol, k)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.SendHello(ctx, wire.Hello{PID: os.Getpid(), K: k}); err != nil {
		return shutdown(ctx, logger, "send hello", err)
	}

	points, err := conn.RecvPoints()
	if err != nil {
		return shutdown(ctx, logger, "receive partition", err)
	}
	logger.Debug("partition received", "points", len(points))

	assignments := make([]int32, len(points))
	for iteration := 0; ; iteration++ {
		centroids, err := conn.RecvCentroids()
		if err != nil {
			return shutdown(ctx, logger, "receive centroids", err)
		}
		if len(centroids) != k {
			return fmt.Errorf("%w: got %d centroids, want %d", ErrProtocol, len(centroids), k)
		}

		kmeans.AssignInto(assignments, points, centroids)

		if err := conn.SendAssignments(ctx, assignments); err != nil {
			return shutdown(ctx, logger, "send assignments", err)
		}
		logger.Debug("iteration served", "iteration", iteration)
	}
}

// shutdown treats a closed stream as the end of the run and anything else as a failure.
func shutdown(ctx context.Context, logger *slog.Logger, op string, err error) error {
	if ctx.Err() != nil || closedByPeer(err) {
		logger.Debug("connection closed, exiting", "op", op)
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func closedByPeer(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// Main parses the launch arguments, dials the coordinator and serves until the
// connection closes. It is the body of the lloyd-worker command.
func Main(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(CommandName, flag.ContinueOnError)

	var (
		addr        = fs.String("addr", "", "coordinator address (host:port)")
		k           = fs.Int("k", 0, "number of clusters")
		codecName   = fs.String("codec", codec.Default.Name(), "handshake codec (json, go-json)")
		compression = fs.String("compression", "none", "outgoing frame compression (none, lz4, zstd)")
		maxFrame    = fs.Int("max-frame-size", wire.DefaultMaxFrameSize, "largest frame in bytes; arrays are chunked to fit")
		dialTimeout = fs.Duration("dial-timeout", 10*time.Second, "timeout for connecting to the coordinator")
		level       slog.Level
	)
	fs.TextVar(&level, "log-level", slog.LevelWarn, "minimum log level")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *addr == "" {
		return errors.New("worker: -addr is required")
	}
	if *k < 1 {
		return fmt.Errorf("worker: -k must be positive, got %d", *k)
	}

	if *maxFrame < wire.MinFrameSize {
		return fmt.Errorf("worker: -max-frame-size must be at least %d, got %d", wire.MinFrameSize, *maxFrame)
	}

	c, ok := codec.ByName(*codecName)
	if !ok {
		return fmt.Errorf("worker: unknown codec %q", *codecName)
	}
	comp, err := wire.ParseCompression(*compression)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("component", CommandName, "pid", os.Getpid())

	if err := setParentDeathSignal(); err != nil {
		logger.Warn("parent death signal unavailable", "error", err)
	}

	d := net.Dialer{Timeout: *dialTimeout}
	nc, err := d.DialContext(ctx, "tcp", *addr)
	if err != nil {
		return fmt.Errorf("worker: dial %s: %w", *addr, err)
	}

	conn := wire.NewConn(nc, func(o *wire.Options) {
		o.Compression = comp
		o.Codec = c
		o.MaxFrameSize = *maxFrame
	})
	defer conn.Close()

	return Serve(ctx, conn, *k, logger)
}
